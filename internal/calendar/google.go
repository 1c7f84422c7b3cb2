package calendar

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	gcal "google.golang.org/api/calendar/v3"

	"physio-booking/internal/booking"
	"physio-booking/internal/schedule"
)

const maxResults = int64(250)

// Google is the Google Calendar v3 backend.
type Google struct {
	tokens     TokenProvider
	cfg        GoogleConfig
	calendarID string
	loc        *time.Location
	logger     *zap.Logger
}

// NewGoogle returns a Calendar reading and writing the configured Google
// calendar. loc is used for the free/busy time zone and all-day events.
func NewGoogle(tokens TokenProvider, cfg GoogleConfig, loc *time.Location, logger *zap.Logger) *Google {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	id := cfg.CalendarID
	if id == "" {
		id = PrimaryCalendar
	}
	return &Google{tokens: tokens, cfg: cfg, calendarID: id, loc: loc, logger: logger}
}

func (g *Google) service(ctx context.Context) (*gcal.Service, error) {
	opts, err := clientOptions(ctx, g.tokens, g.cfg)
	if err != nil {
		return nil, err
	}
	srv, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return srv, nil
}

func (g *Google) FreeBusy(ctx context.Context, from, to time.Time) ([]schedule.Interval, error) {
	srv, err := g.service(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := srv.Freebusy.Query(&gcal.FreeBusyRequest{
		TimeMin:  from.Format(time.RFC3339),
		TimeMax:  to.Format(time.RFC3339),
		TimeZone: g.loc.String(),
		Items:    []*gcal.FreeBusyRequestItem{{Id: g.calendarID}},
	}).Context(ctx).Do()
	if err != nil {
		g.logger.Error("free/busy query failed", zap.Error(err))
		return nil, mapError(err)
	}

	cal, ok := resp.Calendars[g.calendarID]
	if !ok {
		return nil, &booking.BackendError{
			Status:  http.StatusBadGateway,
			Message: "free/busy answer has no entry for calendar " + g.calendarID,
		}
	}
	if len(cal.Errors) > 0 {
		return nil, &booking.BackendError{Status: http.StatusBadGateway, Message: cal.Errors[0].Reason}
	}

	busy := make([]schedule.Interval, 0, len(cal.Busy))
	for _, p := range cal.Busy {
		start, err := time.Parse(time.RFC3339, p.Start)
		if err != nil {
			return nil, fmt.Errorf("parse busy start %q: %w", p.Start, err)
		}
		end, err := time.Parse(time.RFC3339, p.End)
		if err != nil {
			return nil, fmt.Errorf("parse busy end %q: %w", p.End, err)
		}
		busy = append(busy, schedule.Interval{Start: start, End: end})
	}
	return busy, nil
}

func (g *Google) ListEvents(ctx context.Context, from, to time.Time) ([]booking.RemoteEvent, error) {
	srv, err := g.service(ctx)
	if err != nil {
		return nil, err
	}

	call := srv.Events.List(g.calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(maxResults)

	var out []booking.RemoteEvent
	err = call.Pages(ctx, func(page *gcal.Events) error {
		for _, item := range page.Items {
			out = append(out, g.fromGoogle(item))
		}
		return nil
	})
	if err != nil {
		g.logger.Error("list events failed", zap.Error(err))
		return nil, mapError(err)
	}
	return out, nil
}

func (g *Google) InsertEvent(ctx context.Context, ev booking.RemoteEvent) (booking.RemoteEvent, error) {
	srv, err := g.service(ctx)
	if err != nil {
		return booking.RemoteEvent{}, err
	}

	created, err := srv.Events.Insert(g.calendarID, toGoogle(ev)).SendUpdates("all").Context(ctx).Do()
	if err != nil {
		g.logger.Error("insert event failed", zap.Error(err))
		return booking.RemoteEvent{}, mapError(err)
	}
	return g.fromGoogle(created), nil
}

func (g *Google) GetEvent(ctx context.Context, id string) (booking.RemoteEvent, error) {
	srv, err := g.service(ctx)
	if err != nil {
		return booking.RemoteEvent{}, err
	}

	item, err := srv.Events.Get(g.calendarID, id).Context(ctx).Do()
	if err != nil {
		return booking.RemoteEvent{}, mapError(err)
	}
	if item.Status == "cancelled" {
		return booking.RemoteEvent{}, booking.ErrNotFound
	}
	return g.fromGoogle(item), nil
}

func (g *Google) DeleteEvent(ctx context.Context, id string) error {
	srv, err := g.service(ctx)
	if err != nil {
		return err
	}

	if err := srv.Events.Delete(g.calendarID, id).SendUpdates("all").Context(ctx).Do(); err != nil {
		g.logger.Error("delete event failed", zap.Error(err), zap.String("event_id", id))
		return mapError(err)
	}
	return nil
}

func toGoogle(ev booking.RemoteEvent) *gcal.Event {
	e := &gcal.Event{
		Summary:     ev.Title,
		Description: ev.Body,
		Start:       &gcal.EventDateTime{DateTime: ev.Start.Format(time.RFC3339), TimeZone: ev.TimeZone},
		End:         &gcal.EventDateTime{DateTime: ev.End.Format(time.RFC3339), TimeZone: ev.TimeZone},
	}
	for _, email := range ev.Attendees {
		e.Attendees = append(e.Attendees, &gcal.EventAttendee{Email: email})
	}
	if len(ev.Reminders) > 0 {
		e.Reminders = &gcal.EventReminders{
			UseDefault:      false,
			ForceSendFields: []string{"UseDefault"},
		}
		for _, r := range ev.Reminders {
			e.Reminders.Overrides = append(e.Reminders.Overrides, &gcal.EventReminder{
				Method:  r.Method,
				Minutes: int64(r.Minutes),
			})
		}
	}
	return e
}

func (g *Google) fromGoogle(item *gcal.Event) booking.RemoteEvent {
	ev := booking.RemoteEvent{
		ID:    item.Id,
		Title: item.Summary,
		Body:  item.Description,
		Start: g.parseEventTime(item.Start),
		End:   g.parseEventTime(item.End),
	}
	if item.Start != nil {
		ev.TimeZone = item.Start.TimeZone
	}
	for _, a := range item.Attendees {
		if a != nil && a.Email != "" {
			ev.Attendees = append(ev.Attendees, a.Email)
		}
	}
	if item.Reminders != nil {
		for _, r := range item.Reminders.Overrides {
			ev.Reminders = append(ev.Reminders, booking.Reminder{Method: r.Method, Minutes: int(r.Minutes)})
		}
	}
	return ev
}

// parseEventTime reads a timed event's RFC 3339 instant or, for all-day
// events, midnight of its date in the practice zone.
func (g *Google) parseEventTime(dt *gcal.EventDateTime) time.Time {
	if dt == nil {
		return time.Time{}
	}
	if dt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, dt.DateTime); err == nil {
			return t
		}
	} else if dt.Date != "" {
		if t, err := time.ParseInLocation("2006-01-02", dt.Date, g.loc); err == nil {
			return t
		}
	}
	return time.Time{}
}
