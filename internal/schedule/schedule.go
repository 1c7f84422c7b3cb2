package schedule

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// TimeZone is the single zone every wall-clock time of the practice is expressed in.
const TimeZone = "Europe/Madrid"

// Granularity is the spacing between consecutive candidate start times.
const Granularity = 30 * time.Minute

// Durations lists the appointment lengths, in minutes, that can be booked.
var Durations = []int{30, 60}

// HourRange is a half-open [Start, End) span of whole hours on one day.
type HourRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// WorkingHours maps a weekday to its ordered, disjoint working ranges.
// A weekday without an entry is closed.
type WorkingHours map[time.Weekday][]HourRange

// DefaultWorkingHours is the practice's weekly schedule.
var DefaultWorkingHours = WorkingHours{
	time.Monday:    {{9, 14}, {16, 20}},
	time.Tuesday:   {{9, 14}, {16, 20}},
	time.Wednesday: {{9, 14}, {16, 20}},
	time.Thursday:  {{9, 14}, {16, 20}},
	time.Friday:    {{9, 14}, {16, 20}},
	time.Saturday:  {{10, 14}},
}

// HoursFor returns the working ranges of the given weekday, or nil when closed.
func (w WorkingHours) HoursFor(day time.Weekday) []HourRange {
	if day == time.Sunday {
		return nil
	}
	return w[day]
}

// Validate checks that every day's ranges lie within [0,24], are non-empty,
// and are strictly increasing without overlap.
func (w WorkingHours) Validate() error {
	for day, ranges := range w {
		prevEnd := 0
		for i, r := range ranges {
			if r.Start < 0 || r.End > 24 {
				return fmt.Errorf("%s range %d: hours must be within 0..24, got [%d,%d)", day, i, r.Start, r.End)
			}
			if r.Start >= r.End {
				return fmt.Errorf("%s range %d: start %d must be before end %d", day, i, r.Start, r.End)
			}
			if i > 0 && r.Start < prevEnd {
				return fmt.Errorf("%s range %d: overlaps or precedes previous range", day, i)
			}
			prevEnd = r.End
		}
	}
	return nil
}

// IsAllowedDuration reports whether minutes is one of the offered durations.
func IsAllowedDuration(minutes int) bool {
	for _, d := range Durations {
		if d == minutes {
			return true
		}
	}
	return false
}

// NextOpenDay returns the first date on or after from (at local midnight)
// whose weekday has working hours. The zero time is returned when the
// schedule has no open day at all.
func NextOpenDay(w WorkingHours, from time.Time) time.Time {
	day := StartOfDay(from)
	for i := 0; i < 7; i++ {
		if len(w.HoursFor(day.Weekday())) > 0 {
			return day
		}
		day = day.AddDate(0, 0, 1)
	}
	return time.Time{}
}

// StartOfDay returns midnight of t's calendar date in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// LoadLocation resolves TimeZone.
func LoadLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", TimeZone, err)
	}
	return loc, nil
}
