package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	group := g.Group("/courts")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)
	}

	// === Admin Routes ===
	{
		group.POST("", adminMiddleware, h.Create)
		group.PATCH("/:id", adminMiddleware, h.Update)
		group.PATCH("/:id/maintenance", adminMiddleware, h.SetMaintenance)
		group.DELETE("/:id", adminMiddleware, h.Delete)
	}
}
