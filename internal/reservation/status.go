package reservation

import (
	"fmt"
	"strings"
	"time"
)

// Effective statuses shown to users. Completed is never stored.
const (
	EffectivePending   = "Pending"
	EffectiveConfirmed = "Confirmed"
	EffectivePaid      = "Paid"
	EffectiveCancelled = "Cancelled"
	EffectiveCompleted = "Completed"
)

// EffectiveStatus is the display status of r at now. Every listing and
// detail view goes through this function.
func EffectiveStatus(r *Reservation, now time.Time, loc *time.Location) string {
	if r.Status == StatusCancelled {
		return EffectiveCancelled
	}
	if r.StartsAt(loc).Before(now) {
		return EffectiveCompleted
	}
	s := string(r.Status)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// IsHistory reports whether an effective status belongs in the history list.
func IsHistory(effective string) bool {
	return effective == EffectiveCancelled || effective == EffectiveCompleted
}

// checkCancellable applies the cancellation window: not cancelled, not
// started, and at least cutoff before the start.
func checkCancellable(r *Reservation, now time.Time, loc *time.Location, cutoff time.Duration) error {
	if r.Status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	if !r.Status.Active() {
		return fmt.Errorf("%w: reservation %s has status %q", ErrInternal, r.ID, r.Status)
	}

	remaining := r.StartsAt(loc).Sub(now)
	if remaining < 0 {
		return ErrAlreadyPast
	}
	if remaining < cutoff {
		return ErrTooCloseToStart.WithMessage(fmt.Sprintf(
			"reservations can only be cancelled up to %s before start; %d minutes remain",
			formatCutoff(cutoff), int(remaining/time.Minute),
		))
	}
	return nil
}

// checkPayable requires a pending reservation that has not started.
func checkPayable(r *Reservation, now time.Time, loc *time.Location) error {
	if r.Status != StatusPending {
		return ErrNotPayable
	}
	if !r.StartsAt(loc).After(now) {
		return ErrAlreadyPast
	}
	return nil
}

func formatCutoff(d time.Duration) string {
	switch {
	case d == time.Hour:
		return "1 hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	default:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	}
}
