package booking

import (
	"fmt"
	"strings"
	"time"
)

// TitlePrefix starts the title of every booked appointment; the patient's
// name follows it.
const TitlePrefix = "Fisioterapia - "

// BlockTitle is the title of administrator-created blocks. Blocks carry no
// body.
const BlockTitle = "Blocked Time"

// Body field keys, in encoding order.
const (
	keyName   = "Name"
	keyEmail  = "Email"
	keyPhone  = "Phone"
	keyReason = "Reason"
)

const fieldSeparator = ": "

// Encode turns a record with a chosen start into a calendar event. The body
// holds one "Key: Value" line per field, in the order Name, Email, Phone,
// Reason. Line breaks inside values are flattened to spaces so every field
// stays on its own line.
func Encode(r Record, timeZone string) (RemoteEvent, error) {
	if r.Start == nil {
		return RemoteEvent{}, fmt.Errorf("%w: start time is required", ErrInvalidRecord)
	}

	lines := []string{
		keyName + fieldSeparator + flatten(r.Name),
		keyEmail + fieldSeparator + flatten(r.Email),
		keyPhone + fieldSeparator + flatten(r.Phone),
		keyReason + fieldSeparator + flatten(r.Reason),
	}

	ev := RemoteEvent{
		ID:        r.ID,
		Title:     TitlePrefix + flatten(r.Name),
		Body:      strings.Join(lines, "\n"),
		Start:     *r.Start,
		End:       r.End(),
		TimeZone:  timeZone,
		Reminders: DefaultReminders,
	}
	if r.Email != "" {
		ev.Attendees = []string{r.Email}
	}
	return ev, nil
}

// Decode recovers a record from a calendar event. It never fails: missing or
// malformed lines leave fields empty. Keys match case-insensitively, unknown
// keys are skipped and a repeated key keeps its last value. When the body
// yields no name the title, minus TitlePrefix, is used. The duration always
// comes from the event's start and end.
func Decode(ev RemoteEvent) Record {
	r := Record{ID: ev.ID}

	for _, line := range strings.Split(ev.Body, "\n") {
		line = strings.TrimSuffix(line, "\r")
		key, value, _ := strings.Cut(line, fieldSeparator)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "name":
			r.Name = value
		case "email":
			r.Email = value
		case "phone":
			r.Phone = value
		case "reason":
			r.Reason = value
		}
	}
	if r.Name == "" {
		r.Name = strings.TrimPrefix(ev.Title, TitlePrefix)
	}

	if !ev.Start.IsZero() {
		start := ev.Start
		r.Start = &start
		if ev.End.After(ev.Start) {
			r.DurationMinutes = int(ev.End.Sub(ev.Start) / time.Minute)
		}
	}
	return r
}

func flatten(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\r", " ")
}
