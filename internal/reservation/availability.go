package reservation

import "sort"

// TimeSlot is a free window on a court.
type TimeSlot struct {
	Start TimeOfDay
	End   TimeOfDay
}

// CalculateAvailability returns the free windows between opensAt and closesAt,
// ignoring cancelled reservations. Adjacent busy windows merge.
func CalculateAvailability(opensAt, closesAt TimeOfDay, reservations []*Reservation) []TimeSlot {
	busy := make([]*Reservation, 0, len(reservations))
	for _, r := range reservations {
		if r.Status.Active() && r.End > opensAt && r.Start < closesAt {
			busy = append(busy, r)
		}
	}
	sort.Slice(busy, func(i, j int) bool { return busy[i].Start < busy[j].Start })

	var slots []TimeSlot
	cursor := opensAt
	for _, r := range busy {
		if r.Start > cursor {
			slots = append(slots, TimeSlot{Start: cursor, End: r.Start})
		}
		if r.End > cursor {
			cursor = r.End
		}
	}
	if cursor < closesAt {
		slots = append(slots, TimeSlot{Start: cursor, End: closesAt})
	}
	return slots
}
