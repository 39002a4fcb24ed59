package reservation

import (
	"context"
	"time"

	"github.com/nekogravitycat/polideportivo-booking/internal/clock"
)

// UpcomingCounter counts active reservations that have not started yet.
// The court service uses it to refuse deleting a court that still has bookings.
type UpcomingCounter struct {
	repo  Repository
	clock clock.Clock
	loc   *time.Location
}

func NewUpcomingCounter(repo Repository, clk clock.Clock, loc *time.Location) *UpcomingCounter {
	return &UpcomingCounter{repo: repo, clock: clk, loc: loc}
}

func (u *UpcomingCounter) CountUpcoming(ctx context.Context, courtID string) (int, error) {
	now := u.clock.Now()
	rs, err := retryOnce(func() ([]*Reservation, error) {
		return u.repo.ListActiveByCourtSince(ctx, courtID, DateOf(now, u.loc))
	})
	if err != nil {
		return 0, err
	}

	n := 0
	for _, r := range rs {
		if r.StartsAt(u.loc).After(now) {
			n++
		}
	}
	return n, nil
}
