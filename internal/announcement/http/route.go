package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the announcement routes on the /api/v1 group.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	// === Public Routes ===
	group := g.Group("/announcements")
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.POST("", h.Create)
	}

	// === Administration Routes ===
	adminGroup := g.Group("/admin/v1/announcements")
	adminGroup.Use(authMiddleware, adminMiddleware)
	{
		adminGroup.DELETE("/:id", h.Delete)
	}
}
