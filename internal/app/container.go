package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nekogravitycat/polideportivo-booking/internal/api"
	"github.com/nekogravitycat/polideportivo-booking/internal/auth"
	"github.com/nekogravitycat/polideportivo-booking/internal/clock"
	"github.com/nekogravitycat/polideportivo-booking/internal/config"
	"github.com/nekogravitycat/polideportivo-booking/internal/court"
	"github.com/nekogravitycat/polideportivo-booking/internal/notification"
	"github.com/nekogravitycat/polideportivo-booking/internal/pkg/metrics"
	"github.com/nekogravitycat/polideportivo-booking/internal/reservation"
	"github.com/nekogravitycat/polideportivo-booking/internal/user"
	"github.com/nekogravitycat/polideportivo-booking/internal/venue"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	JWTSecret    string
	JWTTTL       time.Duration
	BcryptCost   int
	Location     *time.Location
	Policy       config.Policy

	// Redis is optional; nil disables the court catalog cache.
	Redis           *redis.Client
	CatalogCacheTTL time.Duration

	// Events receives reservation events. nil logs them.
	Events notification.Dispatcher

	Logger zerolog.Logger
	Clock  clock.Clock
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
	Metrics    *metrics.Metrics
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.System{}
	}
	events := cfg.Events
	if events == nil {
		events = notification.NewLogDispatcher(cfg.Logger)
	}

	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasherWithCost(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	m := metrics.New("polideportivo")

	// User Module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, passwordHasher, clk, cfg.Logger)

	// Venue Module
	venueRepo := venue.NewPgxRepository(cfg.DBPool)
	venueService := venue.NewService(venueRepo)

	// Reservation store, shared by the court delete guard and the lifecycle.
	reservationRepo := reservation.NewPgxRepository(cfg.DBPool)
	upcoming := reservation.NewUpcomingCounter(reservationRepo, clk, cfg.Location)

	// Court Module
	courtRepo := court.NewPgxRepository(cfg.DBPool)
	catalog := court.NewCatalog(courtRepo)
	var invalidator court.Invalidator
	if cfg.Redis != nil {
		cached := court.NewCachedCatalog(catalog, cfg.Redis, cfg.CatalogCacheTTL, cfg.Logger)
		catalog, invalidator = cached, cached
	}
	courtService := court.NewService(courtRepo, venueService, upcoming, invalidator)

	// Reservation Module
	reservationService := reservation.NewService(
		reservationRepo,
		catalog,
		reservation.PolicyFromConfig(cfg.Policy),
		clk,
		cfg.Location,
		events,
		m,
		cfg.Logger,
	)

	// API Router Config
	routerParams := api.Config{
		IsProduction:       cfg.IsProduction,
		ProdOrigins:        cfg.ProdOrigins,
		Logger:             cfg.Logger,
		Metrics:            m,
		DB:                 cfg.DBPool,
		UserService:        userService,
		VenueService:       venueService,
		CourtService:       courtService,
		ReservationService: reservationService,
		JWTManager:         jwtManager,
	}

	// Router
	router := api.NewRouter(routerParams)

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
		Metrics:    m,
	}
}
