package schedule

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time aligned to Granularity.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) minutes() int {
	return t.Hour*60 + t.Minute
}

// On materializes t on the calendar date of day, in loc.
func (t TimeOfDay) On(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.In(loc).Date()
	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, loc)
}

// ParseTimeOfDay parses "HH:MM" (trailing seconds are ignored).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if len(s) < 5 {
		return TimeOfDay{}, fmt.Errorf("invalid time string: %s", s)
	}
	tt, err := time.Parse("15:04", s[:5])
	if err != nil {
		return TimeOfDay{}, err
	}
	return TimeOfDay{Hour: tt.Hour(), Minute: tt.Minute()}, nil
}

// GenerateSlots lists the candidate start times for an appointment of
// durationMinutes on the given weekday. Within each working range the cursor
// starts on the hour and advances by Granularity; a start is emitted while
// the appointment still ends no later than the range's end. Ranges are
// concatenated in order.
func GenerateSlots(w WorkingHours, day time.Weekday, durationMinutes int) []TimeOfDay {
	if durationMinutes <= 0 {
		return nil
	}
	step := int(Granularity / time.Minute)

	var slots []TimeOfDay
	for _, r := range w.HoursFor(day) {
		end := r.End * 60
		for cursor := r.Start * 60; cursor+durationMinutes <= end; cursor += step {
			slots = append(slots, TimeOfDay{Hour: cursor / 60, Minute: cursor % 60})
		}
	}
	return slots
}
