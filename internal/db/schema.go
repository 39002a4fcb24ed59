package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied at startup; every statement is idempotent.
var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto`,
	`CREATE TABLE IF NOT EXISTS public.users (
		id            uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		email         text NOT NULL UNIQUE,
		password_hash text NOT NULL,
		display_name  text NOT NULL,
		national_id   text NOT NULL,
		role          text NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin', 'superadmin')),
		is_active     boolean NOT NULL DEFAULT true,
		created_at    timestamptz NOT NULL DEFAULT now(),
		last_login_at timestamptz
	)`,
	`CREATE TABLE IF NOT EXISTS public.venues (
		id         uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		name       text NOT NULL UNIQUE,
		address    text NOT NULL,
		phone      text,
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS public.courts (
		id                 uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		venue_id           uuid NOT NULL REFERENCES public.venues(id) ON DELETE RESTRICT,
		name               text NOT NULL,
		type               text NOT NULL,
		hourly_price_cents bigint NOT NULL CHECK (hourly_price_cents > 0),
		under_maintenance  boolean NOT NULL DEFAULT false,
		created_at         timestamptz NOT NULL DEFAULT now(),
		UNIQUE (venue_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS public.reservations (
		id               uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id          uuid NOT NULL,
		user_name        text NOT NULL,
		user_national_id text NOT NULL,
		court_id         uuid NOT NULL REFERENCES public.courts(id) ON DELETE CASCADE,
		venue_id         uuid NOT NULL,
		date             date NOT NULL,
		start_minute     integer NOT NULL,
		end_minute       integer NOT NULL,
		add_ons          text[] NOT NULL DEFAULT '{}',
		price_cents      bigint NOT NULL,
		status           text NOT NULL,
		created_at       timestamptz NOT NULL DEFAULT now(),
		updated_at       timestamptz NOT NULL DEFAULT now(),
		CHECK (end_minute > start_minute)
	)`,
	`CREATE INDEX IF NOT EXISTS reservations_court_date_idx ON public.reservations (court_id, date)`,
	`CREATE INDEX IF NOT EXISTS reservations_user_idx ON public.reservations (user_id)`,
}

// Migrate creates the tables when they are missing.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema failed: %w", err)
		}
	}
	return nil
}
