package calendar

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"physio-booking/internal/booking"
	"physio-booking/internal/schedule"
)

// Demo is an in-memory Calendar used when no Google credentials are
// configured. Nothing survives a restart.
type Demo struct {
	mu     sync.Mutex
	events []booking.RemoteEvent
}

// NewDemo returns a demo calendar seeded with one 30 minute appointment at
// 10:00 on today's date in loc.
func NewDemo(loc *time.Location, now time.Time) *Demo {
	if loc == nil {
		loc = time.UTC
	}
	start := schedule.TimeOfDay{Hour: 10}.On(now, loc)
	return &Demo{events: []booking.RemoteEvent{{
		ID:       "demoevent1",
		Title:    booking.TitlePrefix + "John Doe",
		Body:     "Name: John Doe\nEmail: john@example.com\nPhone: \nReason: Back pain",
		Start:    start,
		End:      start.Add(30 * time.Minute),
		TimeZone: loc.String(),
	}}}
}

func (d *Demo) FreeBusy(_ context.Context, from, to time.Time) ([]schedule.Interval, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var busy []schedule.Interval
	for _, ev := range d.overlapping(from, to) {
		busy = append(busy, schedule.Interval{Start: ev.Start, End: ev.End})
	}
	return busy, nil
}

func (d *Demo) ListEvents(_ context.Context, from, to time.Time) ([]booking.RemoteEvent, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.overlapping(from, to), nil
}

func (d *Demo) InsertEvent(_ context.Context, ev booking.RemoteEvent) (booking.RemoteEvent, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ev.ID = "demo-" + uuid.NewString()
	ev.Attendees = append([]string(nil), ev.Attendees...)
	ev.Reminders = append([]booking.Reminder(nil), ev.Reminders...)
	d.events = append(d.events, ev)
	return ev, nil
}

func (d *Demo) GetEvent(_ context.Context, id string) (booking.RemoteEvent, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, ev := range d.events {
		if ev.ID == id {
			return ev, nil
		}
	}
	return booking.RemoteEvent{}, booking.ErrNotFound
}

func (d *Demo) DeleteEvent(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, ev := range d.events {
		if ev.ID == id {
			d.events = append(d.events[:i], d.events[i+1:]...)
			return nil
		}
	}
	return booking.ErrNotFound
}

// overlapping returns copies of the events intersecting [from, to), sorted
// by start. Callers hold d.mu.
func (d *Demo) overlapping(from, to time.Time) []booking.RemoteEvent {
	var out []booking.RemoteEvent
	for _, ev := range d.events {
		if ev.Start.Before(to) && ev.End.After(from) {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}
