package booking

import "time"

// Record is an appointment as the booking flow sees it. ID is empty until the
// appointment has been written to the calendar; Start is nil until a slot
// has been chosen.
type Record struct {
	ID              string     `json:"id,omitempty"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone,omitempty"`
	Reason          string     `json:"reason"`
	Start           *time.Time `json:"start,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
}

// End returns Start plus the duration, or the zero time when Start is unset.
func (r Record) End() time.Time {
	if r.Start == nil {
		return time.Time{}
	}
	return r.Start.Add(time.Duration(r.DurationMinutes) * time.Minute)
}

// Reminder asks the calendar to alert Minutes before the event through Method
// ("email" or "popup").
type Reminder struct {
	Method  string `json:"method"`
	Minutes int    `json:"minutes"`
}

// RemoteEvent is the calendar-side shape of an appointment or block.
type RemoteEvent struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Body      string     `json:"body,omitempty"`
	Start     time.Time  `json:"start"`
	End       time.Time  `json:"end"`
	TimeZone  string     `json:"time_zone,omitempty"`
	Attendees []string   `json:"attendees,omitempty"`
	Reminders []Reminder `json:"reminders,omitempty"`
}

// DefaultReminders are attached to every booked appointment.
var DefaultReminders = []Reminder{
	{Method: "email", Minutes: 24 * 60},
	{Method: "popup", Minutes: 60},
}
