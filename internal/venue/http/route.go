package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *VenueHandler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	group := g.Group("/venues")

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
		group.DELETE("/:id", adminMiddleware, h.Delete)
	}
}
