package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	g.GET("/courts/:id/availability", authMiddleware, h.Availability)

	group := g.Group("/reservations")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.POST("/estimate", h.Estimate)
		group.POST("", h.Create)
		group.GET("/me", h.Me)
		group.GET("/:id", h.Get)
		group.POST("/:id/cancel", h.Cancel)
		group.POST("/:id/pay", h.Pay)
	}

	// === Admin Routes ===
	{
		group.GET("", adminMiddleware, h.List)
		group.DELETE("/:id", adminMiddleware, h.Delete)
	}
}
