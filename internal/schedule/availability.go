package schedule

import "time"

// Interval is a half-open [Start, End) range of absolute time that is
// already taken by an appointment or a block.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether [start, end) intersects the interval.
// Touching endpoints do not overlap.
func (i Interval) Overlaps(start, end time.Time) bool {
	return start.Before(i.End) && end.After(i.Start)
}

// Slot is a bookable appointment window.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Time returns the wall-clock start of the slot in its own location.
func (s Slot) Time() TimeOfDay {
	return TimeOfDay{Hour: s.Start.Hour(), Minute: s.Start.Minute()}
}

// AvailableSlots returns the slots on date's calendar day (in loc) that start
// at or after now and do not overlap any busy interval. Slot generation is
// keyed off date's own weekday. Output keeps generation order.
func AvailableSlots(w WorkingHours, loc *time.Location, date time.Time, durationMinutes int, busy []Interval, now time.Time) []Slot {
	local := date.In(loc)
	length := time.Duration(durationMinutes) * time.Minute

	var available []Slot
	for _, tod := range GenerateSlots(w, local.Weekday(), durationMinutes) {
		start := tod.On(local, loc)
		end := start.Add(length)
		if start.Before(now) {
			continue
		}
		if overlapsAny(busy, start, end) {
			continue
		}
		available = append(available, Slot{Start: start, End: end})
	}
	return available
}

func overlapsAny(busy []Interval, start, end time.Time) bool {
	for _, b := range busy {
		if b.Overlaps(start, end) {
			return true
		}
	}
	return false
}
