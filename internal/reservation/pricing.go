package reservation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nekogravitycat/polideportivo-booking/internal/court"
)

// PricingEngine computes reservation prices. It has no side effects.
type PricingEngine struct {
	addOns map[string]int64
}

func NewPricingEngine(addOns map[string]int64) *PricingEngine {
	return &PricingEngine{addOns: addOns}
}

// Estimate returns hourly price times whole hours plus each add-on's flat surcharge.
func (e *PricingEngine) Estimate(c *court.Court, start, end TimeOfDay, addOns []string) (int64, error) {
	hours := end.Hour() - start.Hour()
	if hours <= 0 {
		return 0, ErrInvalidWindow.WithMessage("end time must be after start time")
	}

	price := c.HourlyPriceCents * int64(hours)
	for _, name := range normalizeAddOns(addOns) {
		cents, ok := e.addOns[name]
		if !ok {
			return 0, ErrUnknownAddOn.WithMessage(fmt.Sprintf("unknown add-on %q", name))
		}
		price += cents
	}
	return price, nil
}

func normalizeAddOn(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// normalizeAddOns lowercases, drops blanks and duplicates, and sorts.
func normalizeAddOns(names []string) []string {
	if len(names) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = normalizeAddOn(n)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
