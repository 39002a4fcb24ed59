package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPolicy(t *testing.T) {
	t.Run("Empty path returns defaults", func(t *testing.T) {
		p, err := LoadPolicy("")
		require.NoError(t, err)
		assert.Equal(t, DefaultPolicy(), p)
	})

	t.Run("File overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.toml")
		content := `
open_hour = 9
last_start_hour = 20
close_hour = 21
cancel_cutoff_minutes = 120

[add_ons]
childcare = 700
lighting = 300
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		p, err := LoadPolicy(path)
		require.NoError(t, err)
		assert.Equal(t, 9, p.OpenHour)
		assert.Equal(t, 20, p.LastStartHour)
		assert.Equal(t, 21, p.CloseHour)
		assert.Equal(t, 120, p.CancelCutoffMinutes)
		assert.Equal(t, int64(700), p.AddOns["childcare"])
		assert.Equal(t, int64(300), p.AddOns["lighting"])
	})

	t.Run("Unordered hours are rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.toml")
		require.NoError(t, os.WriteFile(path, []byte("open_hour = 22\nlast_start_hour = 10\n"), 0o600))

		_, err := LoadPolicy(path)
		assert.Error(t, err)
	})

	t.Run("Missing file is an error", func(t *testing.T) {
		_, err := LoadPolicy(filepath.Join(t.TempDir(), "missing.toml"))
		assert.Error(t, err)
	})
}

func TestLoad(t *testing.T) {
	t.Run("Requires DB_DSN", func(t *testing.T) {
		t.Setenv("DB_DSN", "")
		t.Setenv("JWT_SECRET", "secret")

		_, err := Load()
		assert.ErrorContains(t, err, "DB_DSN")
	})

	t.Run("Applies defaults", func(t *testing.T) {
		t.Setenv("DB_DSN", "postgres://localhost/test")
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("APP_TIMEZONE", "UTC")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.HTTPAddr)
		assert.Equal(t, 15*time.Minute, cfg.JWTAccessTokenTTL)
		assert.Equal(t, "reservations", cfg.AMQPExchange)
		assert.Equal(t, time.UTC, cfg.Location)
		assert.Equal(t, DefaultPolicy(), cfg.Policy)
	})

	t.Run("Rejects malformed durations", func(t *testing.T) {
		t.Setenv("DB_DSN", "postgres://localhost/test")
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("CATALOG_CACHE_TTL", "soon")

		_, err := Load()
		assert.ErrorContains(t, err, "CATALOG_CACHE_TTL")
	})
}
