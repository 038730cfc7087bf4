package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReadinessChecker reports whether a dependency can serve traffic.
type ReadinessChecker interface {
	CheckReady(ctx context.Context) error
}

type healthHandler struct {
	checker ReadinessChecker
	log     *zap.Logger
}

func (h *healthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
}

func (h *healthHandler) Ready(c *gin.Context) {
	if h.checker != nil {
		if err := h.checker.CheckReady(c.Request.Context()); err != nil {
			h.log.Warn("readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "fail"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
