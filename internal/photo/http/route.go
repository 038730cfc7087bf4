package http

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the upload route on the /api/v1 group and the public
// image route on the root router.
func RegisterRoutes(api gin.IRouter, root gin.IRouter, h *Handler) {
	api.POST("/announcements/:id/photo", h.Upload)
	root.GET("/images/:key", h.Serve)
}
