package reservation

import (
	"fmt"
	"time"

	"github.com/nekogravitycat/polideportivo-booking/internal/config"
)

// Policy holds the venue-wide booking rules.
type Policy struct {
	OpenHour      int // earliest start hour
	LastStartHour int // latest start hour, inclusive
	CloseHour     int // latest end hour
	CancelCutoff  time.Duration
	AddOns        map[string]int64 // name -> flat surcharge in cents
}

// PolicyFromConfig converts the loaded configuration.
func PolicyFromConfig(p config.Policy) Policy {
	addOns := make(map[string]int64, len(p.AddOns))
	for name, cents := range p.AddOns {
		addOns[normalizeAddOn(name)] = cents
	}
	return Policy{
		OpenHour:      p.OpenHour,
		LastStartHour: p.LastStartHour,
		CloseHour:     p.CloseHour,
		CancelCutoff:  time.Duration(p.CancelCutoffMinutes) * time.Minute,
		AddOns:        addOns,
	}
}

// CheckWindow validates start and end against whole-hour granularity and opening hours.
func (p Policy) CheckWindow(start, end TimeOfDay) error {
	if end <= start {
		return ErrInvalidWindow.WithMessage("end time must be after start time")
	}
	if start.Minute() != 0 || end.Minute() != 0 {
		return ErrInvalidWindow.WithMessage("reservations start and end on the hour")
	}
	if start.Hour() < p.OpenHour || start.Hour() > p.LastStartHour {
		return ErrInvalidWindow.WithMessage(fmt.Sprintf(
			"reservations start between %02d:00 and %02d:00", p.OpenHour, p.LastStartHour))
	}
	if end.Hour() > p.CloseHour {
		return ErrInvalidWindow.WithMessage(fmt.Sprintf("reservations end by %02d:00", p.CloseHour))
	}
	return nil
}

// Open and Close bound the bookable part of a day.
func (p Policy) Open() TimeOfDay  { return NewTimeOfDay(p.OpenHour, 0) }
func (p Policy) Close() TimeOfDay { return NewTimeOfDay(p.CloseHour, 0) }
