package reservation

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/nekogravitycat/polideportivo-booking/internal/pkg/apperror"
)

var (
	ErrNotFound            = apperror.New(http.StatusNotFound, "reservation not found")
	ErrInvalidWindow       = apperror.New(http.StatusBadRequest, "invalid reservation window")
	ErrResourceUnavailable = apperror.New(http.StatusNotFound, "court not found or unavailable")
	ErrSlotTaken           = apperror.New(http.StatusConflict, "time slot already booked")
	ErrAlreadyPast         = apperror.New(http.StatusForbidden, "reservation has already started")
	ErrTooCloseToStart     = apperror.New(http.StatusForbidden, "reservation starts too soon to be cancelled")
	ErrAlreadyCancelled    = apperror.New(http.StatusConflict, "reservation is already cancelled")
	ErrNotPayable          = apperror.New(http.StatusConflict, "only pending reservations can be paid")
	ErrUnknownAddOn        = apperror.New(http.StatusBadRequest, "unknown add-on")
	ErrInvalidStatus       = apperror.New(http.StatusBadRequest, "unknown reservation status")
	ErrPermissionDenied    = apperror.New(http.StatusForbidden, "permission denied")
	ErrConcurrentUpdate    = apperror.New(http.StatusConflict, "reservation was modified concurrently; retry")
	ErrTransientStore      = apperror.New(http.StatusServiceUnavailable, "storage temporarily unavailable")
	ErrInternal            = apperror.New(http.StatusInternalServerError, "internal error")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// ActiveStatuses hold a slot; only these take part in conflict checks.
var ActiveStatuses = []Status{StatusPending, StatusConfirmed, StatusPaid}

// Valid reports whether s is a stored status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// Active reports whether s holds its slot.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusPaid
}

// TimeOfDay is a wall-clock time as minutes since midnight.
type TimeOfDay int

const minutesPerDay = 24 * 60

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay accepts "HH:MM" from 00:00 up to and including 24:00.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if len(s) != 5 || s[2] != ':' || !isDigits(s[:2]) || !isDigits(s[3:]) {
		return 0, fmt.Errorf("time %q is not HH:MM", s)
	}
	h, _ := strconv.Atoi(s[:2])
	m, _ := strconv.Atoi(s[3:])
	t := NewTimeOfDay(h, m)
	if m > 59 || t > minutesPerDay {
		return 0, fmt.Errorf("time %q is out of range", s)
	}
	return t, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Reservation is a booked window on one court for one user.
// Date is the calendar day at midnight UTC; Start and End are wall-clock
// times of the venue's time zone on that day.
type Reservation struct {
	ID             string
	UserID         string
	UserName       string
	UserNationalID string
	CourtID        string
	CourtName      string
	VenueID        string
	Date           time.Time
	Start          TimeOfDay
	End            TimeOfDay
	AddOns         []string
	PriceCents     int64
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// StartsAt is the instant the reservation begins in loc.
func (r *Reservation) StartsAt(loc *time.Location) time.Time {
	return At(r.Date, r.Start, loc)
}

// check reports a stored row that breaks the model's invariants.
func (r *Reservation) check() error {
	switch {
	case r.ID == "" || r.UserID == "" || r.CourtID == "":
		return fmt.Errorf("%w: reservation %q is missing identifiers", ErrInternal, r.ID)
	case !r.Status.Valid():
		return fmt.Errorf("%w: reservation %s has unknown status %q", ErrInternal, r.ID, r.Status)
	case r.Date.IsZero():
		return fmt.Errorf("%w: reservation %s has no date", ErrInternal, r.ID)
	case r.End <= r.Start || r.Start < 0 || r.End > minutesPerDay:
		return fmt.Errorf("%w: reservation %s has window %d-%d", ErrInternal, r.ID, r.Start, r.End)
	}
	return nil
}

// Filter defines parameters for the admin reservation listing.
type Filter struct {
	UserID    string
	CourtID   string
	VenueID   string
	Status    Status
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

const dateLayout = "2006-01-02"

// ParseDate parses "YYYY-MM-DD" into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// FormatDate renders a calendar date as "YYYY-MM-DD".
func FormatDate(d time.Time) string {
	return d.Format(dateLayout)
}

// DateOf returns the calendar day of t in loc, as midnight UTC.
func DateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// At combines a calendar date and a wall-clock time in loc.
func At(date time.Time, t TimeOfDay, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, loc)
}
