package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const PROD_STRING = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction      bool
	ProdOrigins       string
	HTTPAddr          string
	LogLevel          string
	DBDSN             string
	JWTSecret         string
	JWTAccessTokenTTL time.Duration
	BcryptCost        int
	Location          *time.Location

	// Redis backs the court catalog cache. Empty RedisAddr disables it.
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CatalogCacheTTL time.Duration

	// AMQP carries reservation events. Empty AMQPURL logs events instead.
	AMQPURL      string
	AMQPExchange string

	Policy Policy
}

// Policy holds the booking rules that may be overridden by BOOKING_POLICY_FILE.
type Policy struct {
	OpenHour            int              `toml:"open_hour"`
	LastStartHour       int              `toml:"last_start_hour"`
	CloseHour           int              `toml:"close_hour"`
	CancelCutoffMinutes int              `toml:"cancel_cutoff_minutes"`
	AddOns              map[string]int64 `toml:"add_ons"`
}

// DefaultPolicy mirrors the reference venue: whole-hour starts 08:00-22:00,
// cancellation up to one hour before start, child-care for 5.00.
func DefaultPolicy() Policy {
	return Policy{
		OpenHour:            8,
		LastStartHour:       22,
		CloseHour:           23,
		CancelCutoffMinutes: 60,
		AddOns:              map[string]int64{"childcare": 500},
	}
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		log.Printf("failed to load .env file: %v", err)
	}

	cfg := &Config{}

	// Production origin (default: empty)
	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")

	// Application environment (default: dev)
	appEnvStr := getEnv("APP_ENV", "dev")
	cfg.IsProduction = appEnvStr == PROD_STRING

	// HTTP listen address (default: :8080)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	// Database DSN is required
	cfg.DBDSN = os.Getenv("DB_DSN")
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}

	// JWT secret is required for signing tokens
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	// JWT access token TTL, parse as time.Duration (e.g. "15m", "1h").
	cfg.JWTAccessTokenTTL, err = getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_TOKEN_TTL: %w", err)
	}

	// Bcrypt cost for password hashing (default: 12)
	cfg.BcryptCost, err = getEnvAsInt("BCRYPT_COST", 12)
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}

	// Reservation dates and hours are wall-clock times of the venues' time zone.
	tz := getEnv("APP_TIMEZONE", "Europe/Madrid")
	cfg.Location, err = time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", tz, err)
	}

	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.RedisDB, err = getEnvAsInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.CatalogCacheTTL, err = getEnvAsDuration("CATALOG_CACHE_TTL", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid CATALOG_CACHE_TTL: %w", err)
	}

	cfg.AMQPURL = getEnv("AMQP_URL", "")
	cfg.AMQPExchange = getEnv("AMQP_EXCHANGE", "reservations")

	cfg.Policy, err = LoadPolicy(getEnv("BOOKING_POLICY_FILE", ""))
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadPolicy reads a TOML policy file on top of DefaultPolicy.
// An empty path returns the defaults.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	if path == "" {
		return p, nil
	}

	if _, err := toml.DecodeFile(path, &p); err != nil {
		return Policy{}, fmt.Errorf("failed to decode booking policy %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, fmt.Errorf("invalid booking policy %s: %w", path, err)
	}
	return p, nil
}

// Validate checks the hours are ordered inside a single day.
func (p Policy) Validate() error {
	if p.OpenHour < 0 || p.CloseHour > 24 {
		return fmt.Errorf("hours must be within 0-24")
	}
	if p.OpenHour > p.LastStartHour || p.LastStartHour >= p.CloseHour {
		return fmt.Errorf("open_hour <= last_start_hour < close_hour is required")
	}
	if p.CancelCutoffMinutes < 0 {
		return fmt.Errorf("cancel_cutoff_minutes must not be negative")
	}
	for name, cents := range p.AddOns {
		if cents < 0 {
			return fmt.Errorf("add-on %q has a negative surcharge", name)
		}
	}
	return nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer.
// It returns the default value if the variable is not set.
// It returns an error if the variable is set but is not a valid integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		// Return 0 and a wrapped error to provide context
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}

	return val, nil
}

// getEnvAsDuration is getEnvAsInt for time.ParseDuration values.
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid duration: %w", key, valStr, err)
	}
	return val, nil
}
