package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/nekogravitycat/polideportivo-booking/internal/auth"
	"github.com/nekogravitycat/polideportivo-booking/internal/court"
	courtHttp "github.com/nekogravitycat/polideportivo-booking/internal/court/http"
	"github.com/nekogravitycat/polideportivo-booking/internal/pkg/logger"
	"github.com/nekogravitycat/polideportivo-booking/internal/pkg/metrics"
	"github.com/nekogravitycat/polideportivo-booking/internal/reservation"
	reservationHttp "github.com/nekogravitycat/polideportivo-booking/internal/reservation/http"
	"github.com/nekogravitycat/polideportivo-booking/internal/user"
	userHttp "github.com/nekogravitycat/polideportivo-booking/internal/user/http"
	"github.com/nekogravitycat/polideportivo-booking/internal/venue"
	venueHttp "github.com/nekogravitycat/polideportivo-booking/internal/venue/http"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds everything NewRouter needs.
type Config struct {
	IsProduction       bool
	ProdOrigins        string
	Logger             zerolog.Logger
	Metrics            *metrics.Metrics
	DB                 Pinger
	UserService        user.Service
	VenueService       venue.Service
	CourtService       court.Service
	ReservationService reservation.Service
	JWTManager         *auth.JWTManager
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Metrics, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global Middleware:
	// - Logger: one structured line per request, with the request logger in the context.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(logger.Middleware(cfg.Logger), gin.Recovery())
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{
		"http://localhost:8081", // Swagger
	}
	if cfg.IsProduction && cfg.ProdOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(cfg.ProdOrigins, ",")
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", healthz(cfg.DB))
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	// adminMiddleware: Further checks if the authenticated user is an admin.
	adminMiddleware := RequireAdmin(cfg.UserService)

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	userHandler := userHttp.NewHandler(cfg.UserService, cfg.JWTManager)
	venueHandler := venueHttp.NewHandler(cfg.VenueService)
	courtHandler := courtHttp.NewHandler(cfg.CourtService)
	reservationHandler := reservationHttp.NewHandler(cfg.ReservationService, cfg.UserService)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		userHttp.RegisterRoutes(v1, userHandler, authMiddleware)
		venueHttp.RegisterRoutes(v1, venueHandler, authMiddleware, adminMiddleware)
		courtHttp.RegisterRoutes(v1, courtHandler, authMiddleware, adminMiddleware)
		reservationHttp.RegisterRoutes(v1, reservationHandler, authMiddleware, adminMiddleware)
	}

	return r
}

func healthz(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg("health check failed")
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
