package reservation

import (
	"context"
	"time"
)

// Overlaps reports whether half-open windows [aStart, aEnd) and [bStart, bEnd)
// intersect. Touching windows do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd TimeOfDay) bool {
	return aStart < bEnd && bStart < aEnd
}

// FindConflict returns the first active reservation overlapping [start, end), or nil.
func FindConflict(existing []*Reservation, start, end TimeOfDay) *Reservation {
	for _, r := range existing {
		if r.Status.Active() && Overlaps(start, end, r.Start, r.End) {
			return r
		}
	}
	return nil
}

// ConflictChecker answers whether a window on a court is already taken.
type ConflictChecker struct {
	repo Repository
}

func NewConflictChecker(repo Repository) *ConflictChecker {
	return &ConflictChecker{repo: repo}
}

// HasConflict reports whether an active reservation on courtID and date
// overlaps [start, end). Inserts still re-check atomically in CreateIfFree.
func (c *ConflictChecker) HasConflict(ctx context.Context, courtID string, date time.Time, start, end TimeOfDay) (bool, error) {
	existing, err := c.repo.ListActiveByCourtAndDate(ctx, courtID, date)
	if err != nil {
		return false, err
	}
	return FindConflict(existing, start, end) != nil, nil
}
