package scheduler

import "time"

// AppointmentDuration is the fixed length of every bookable appointment.
// There are no variable-length appointments in the brokerage domain.
const AppointmentDuration = time.Hour

// Interval is a half-open time range [Start, End). Back-to-back intervals
// sharing a boundary instant do not overlap.
type Interval struct {
	Start time.Time
	End   time.Time
}

// SlotAt derives the appointment interval beginning at the proposed start.
func SlotAt(start time.Time) Interval {
	return Interval{Start: start, End: start.Add(AppointmentDuration)}
}

// Overlaps reports whether two half-open intervals intersect. This is the
// predicate the storage layer mirrors in SQL when it rechecks a slot inside
// the booking transaction.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}
