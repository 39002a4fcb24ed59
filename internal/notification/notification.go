// Package notification publishes reservation lifecycle events.
package notification

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type EventType string

const (
	ReservationCreated   EventType = "reservation.created"
	ReservationPaid      EventType = "reservation.paid"
	ReservationCancelled EventType = "reservation.cancelled"
)

// Event describes a state change of one reservation.
type Event struct {
	Type          EventType `json:"type"`
	ReservationID string    `json:"reservation_id"`
	UserID        string    `json:"user_id"`
	CourtID       string    `json:"court_id"`
	Date          string    `json:"date"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	PriceCents    int64     `json:"price_cents"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Dispatcher delivers events. Callers treat a failed dispatch as non-fatal.
type Dispatcher interface {
	Dispatch(ctx context.Context, e Event) error
}

// LogDispatcher writes events to the log. It is used when no broker is configured.
type LogDispatcher struct {
	log zerolog.Logger
}

func NewLogDispatcher(log zerolog.Logger) *LogDispatcher {
	return &LogDispatcher{log: log.With().Str("component", "notification").Logger()}
}

func (d *LogDispatcher) Dispatch(_ context.Context, e Event) error {
	d.log.Info().
		Str("event", string(e.Type)).
		Str("reservation_id", e.ReservationID).
		Str("user_id", e.UserID).
		Str("court_id", e.CourtID).
		Str("date", e.Date).
		Str("start_time", e.StartTime).
		Str("end_time", e.EndTime).
		Int64("price_cents", e.PriceCents).
		Str("status", e.Status).
		Msg("reservation event")
	return nil
}
