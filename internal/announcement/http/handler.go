package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/m1chalz/AI-First-sub005/internal/announcement"
	"github.com/m1chalz/AI-First-sub005/internal/pkg/request"
	"github.com/m1chalz/AI-First-sub005/internal/pkg/response"
)

type Handler struct {
	service announcement.Service
	log     *zap.Logger
}

func NewHandler(service announcement.Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// List returns every announcement, newest first.
func (h *Handler) List(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, h.log, err)
		return
	}

	items := make([]AnnouncementResponse, len(list))
	for i, a := range list {
		items[i] = NewResponse(a)
	}

	c.JSON(http.StatusOK, response.NewListResponse(items))
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	a, err := h.service.GetByID(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, NewResponse(a))
}

// Create registers a new announcement and discloses its management password once.
func (h *Handler) Create(c *gin.Context) {
	var body CreateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	created, err := h.service.Create(c.Request.Context(), body.toRequest())
	if err != nil {
		response.Error(c, h.log, err)
		return
	}

	// The password must not linger in any intermediary cache.
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusCreated, CreatedResponse{
		ID:                 created.ID,
		ManagementPassword: created.ManagementPassword,
	})
}

// Delete hard-deletes an announcement. Admin only.
func (h *Handler) Delete(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	if err := h.service.Delete(c.Request.Context(), req.ID); err != nil {
		response.Error(c, h.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}
