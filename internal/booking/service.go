// Package booking turns appointment records into calendar events and back,
// and coordinates booking, lookup, cancellation and blocking against a
// Calendar and a Mailer.
package booking

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"physio-booking/internal/i18n"
	"physio-booking/internal/schedule"
)

// Calendar is the read/write contract of the calendar backend. The Google
// adapter and the in-memory demo calendar both implement it.
type Calendar interface {
	// FreeBusy returns the busy intervals between from and to.
	FreeBusy(ctx context.Context, from, to time.Time) ([]schedule.Interval, error)
	// ListEvents returns the events overlapping [from, to), ordered by start.
	ListEvents(ctx context.Context, from, to time.Time) ([]RemoteEvent, error)
	// InsertEvent writes a new event and returns it with its assigned id.
	InsertEvent(ctx context.Context, ev RemoteEvent) (RemoteEvent, error)
	// GetEvent returns ErrNotFound for an unknown id.
	GetEvent(ctx context.Context, id string) (RemoteEvent, error)
	// DeleteEvent returns ErrNotFound for an unknown id.
	DeleteEvent(ctx context.Context, id string) error
}

// Message is an HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Practice identifies the clinic in emails and invites.
type Practice struct {
	Name    string
	Email   string
	Address string
	Domain  string
}

// Fallback holds the artifacts offered when the confirmation email could
// not be sent.
type Fallback struct {
	Filename  string `json:"filename"`
	ICS       []byte `json:"-"`
	MailtoURL string `json:"mailto_url"`
}

// Notification is the outcome of the advisory email step that follows a
// calendar write. It never turns a successful write into a failure.
type Notification struct {
	Sent     bool      `json:"sent"`
	Skipped  bool      `json:"skipped,omitempty"`
	Err      error     `json:"-"`
	Fallback *Fallback `json:"fallback,omitempty"`
}

// BookingResult is returned by Book once the calendar event exists.
type BookingResult struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Record       Record       `json:"appointment"`
	Notification Notification `json:"notification"`
}

// Options configure a Service. Zero values fall back to the practice
// defaults.
type Options struct {
	Hours      schedule.WorkingHours
	Location   *time.Location
	Practice   Practice
	Translator i18n.Translator
	Logger     *zap.Logger
	Now        func() time.Time
}

// Service coordinates the appointment lifecycle. It never retries a failed
// call.
type Service struct {
	calendar Calendar
	mailer   Mailer
	hours    schedule.WorkingHours
	loc      *time.Location
	practice Practice
	tr       i18n.Translator
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires a Service on top of a calendar and a mailer. The mailer
// may be nil, in which case every booking falls back to the invite and
// mailto link.
func NewService(cal Calendar, mailer Mailer, opts Options) *Service {
	s := &Service{
		calendar: cal,
		mailer:   mailer,
		hours:    opts.Hours,
		loc:      opts.Location,
		practice: opts.Practice,
		tr:       opts.Translator,
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if s.hours == nil {
		s.hours = schedule.DefaultWorkingHours
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.tr == nil {
		s.tr = i18n.New(string(i18n.Spanish))
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Location returns the practice time zone.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Hours returns the weekly working hours.
func (s *Service) Hours() schedule.WorkingHours {
	return s.hours
}

// ListBusy returns the busy intervals of date's whole local day.
func (s *Service) ListBusy(ctx context.Context, date time.Time) ([]schedule.Interval, error) {
	from := schedule.StartOfDay(date.In(s.loc))
	to := from.AddDate(0, 0, 1)
	busy, err := s.calendar.FreeBusy(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("query free/busy: %w", err)
	}
	return busy, nil
}

// AvailableSlots returns the bookable slots of date for an appointment of
// durationMinutes, given the current instant now.
func (s *Service) AvailableSlots(ctx context.Context, date time.Time, durationMinutes int, now time.Time) ([]schedule.Slot, error) {
	if !schedule.IsAllowedDuration(durationMinutes) {
		return nil, fmt.Errorf("%w: duration %d is not offered", ErrInvalidRecord, durationMinutes)
	}
	if len(schedule.GenerateSlots(s.hours, date.In(s.loc).Weekday(), durationMinutes)) == 0 {
		return nil, nil
	}

	busy, err := s.ListBusy(ctx, date)
	if err != nil {
		return nil, err
	}
	return schedule.AvailableSlots(s.hours, s.loc, date, durationMinutes, busy, now), nil
}

// ListAppointments returns every appointment and block overlapping
// [from, to), ordered by start.
func (s *Service) ListAppointments(ctx context.Context, from, to time.Time) ([]Record, error) {
	events, err := s.calendar.ListEvents(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	records := make([]Record, 0, len(events))
	for _, ev := range events {
		records = append(records, Decode(ev))
	}
	sort.SliceStable(records, func(i, j int) bool {
		return startOf(records[i]).Before(startOf(records[j]))
	})
	return records, nil
}

// Book writes r to the calendar, then tries to email a confirmation. A
// failed email is reported in the result's Notification together with the
// fallback artifacts; it is never returned as an error.
func (s *Service) Book(ctx context.Context, r Record) (BookingResult, error) {
	res, err := s.Insert(ctx, r)
	if err != nil {
		return BookingResult{}, err
	}
	res.Notification = s.Confirm(ctx, res.Record)
	return res, nil
}

// Insert validates r and writes it to the calendar without notifying
// anyone. The returned record carries the new event id.
func (s *Service) Insert(ctx context.Context, r Record) (BookingResult, error) {
	if err := validateBooking(r); err != nil {
		return BookingResult{}, err
	}

	ev, err := Encode(r, s.loc.String())
	if err != nil {
		return BookingResult{}, err
	}
	created, err := s.calendar.InsertEvent(ctx, ev)
	if err != nil {
		return BookingResult{}, fmt.Errorf("create event: %w", err)
	}

	r.ID = created.ID
	title := created.Title
	if title == "" {
		title = ev.Title
	}
	s.logger.Info("appointment booked",
		zap.String("event_id", r.ID),
		zap.Time("start", *r.Start),
		zap.Int("duration_minutes", r.DurationMinutes))

	return BookingResult{ID: r.ID, Title: title, Record: r}, nil
}

// Confirm emails the booking confirmation for an inserted record. When the
// email fails the Notification carries the invite and mailto fallback.
func (s *Service) Confirm(ctx context.Context, r Record) Notification {
	if r.Email == "" || r.Start == nil {
		return Notification{Skipped: true}
	}
	msg := Message{
		To:      r.Email,
		Subject: s.tr.T(i18n.KeyConfirmationSubject, nil),
		HTML: s.tr.T(i18n.KeyConfirmationBody, map[string]any{
			"name":     html.EscapeString(r.Name),
			"when":     s.formatWhen(*r.Start),
			"duration": r.DurationMinutes,
			"location": html.EscapeString(s.practice.Address),
			"code":     html.EscapeString(r.ID),
			"practice": html.EscapeString(s.practice.Name),
		}),
	}
	err := s.send(ctx, msg)
	if err == nil {
		return Notification{Sent: true}
	}

	s.logger.With(zap.Error(err)).Warn("confirmation email not sent, offering invite and mailto fallback",
		zap.String("event_id", r.ID))
	return Notification{
		Err:      fmt.Errorf("%w: %v", ErrNotificationFailed, err),
		Fallback: s.fallback(r),
	}
}

// Find looks an appointment up by id. An unknown id is reported through the
// boolean, not as an error.
func (s *Service) Find(ctx context.Context, id string) (Record, bool, error) {
	if strings.TrimSpace(id) == "" {
		return Record{}, false, nil
	}
	ev, err := s.calendar.GetEvent(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("get event: %w", err)
	}
	return Decode(ev), true, nil
}

// Cancel deletes the appointment's event, then tries to email a
// cancellation notice. The email outcome never fails the cancellation.
func (s *Service) Cancel(ctx context.Context, r Record) (Notification, error) {
	if r.ID == "" {
		return Notification{}, fmt.Errorf("%w: id is required", ErrInvalidRecord)
	}
	if err := s.calendar.DeleteEvent(ctx, r.ID); err != nil {
		return Notification{}, fmt.Errorf("delete event: %w", err)
	}
	s.logger.Info("appointment cancelled", zap.String("event_id", r.ID))

	if r.Email == "" || r.Start == nil {
		return Notification{Skipped: true}, nil
	}
	msg := Message{
		To:      r.Email,
		Subject: s.tr.T(i18n.KeyCancellationSubject, nil),
		HTML: s.tr.T(i18n.KeyCancellationBody, map[string]any{
			"name":     html.EscapeString(r.Name),
			"when":     s.formatWhen(*r.Start),
			"practice": html.EscapeString(s.practice.Name),
		}),
	}
	if err := s.send(ctx, msg); err != nil {
		s.logger.With(zap.Error(err)).Warn("cancellation email not sent", zap.String("event_id", r.ID))
		return Notification{Err: fmt.Errorf("%w: %v", ErrNotificationFailed, err)}, nil
	}
	return Notification{Sent: true}, nil
}

// Block reserves [start, end) of day's date with a sentinel event that has
// no structured body. It returns the new event id.
func (s *Service) Block(ctx context.Context, day time.Time, start, end schedule.TimeOfDay) (string, error) {
	from := start.On(day, s.loc)
	to := end.On(day, s.loc)
	if !from.Before(to) {
		return "", fmt.Errorf("%w: block start %s must be before end %s", ErrInvalidRecord, start, end)
	}

	created, err := s.calendar.InsertEvent(ctx, RemoteEvent{
		Title:    BlockTitle,
		Start:    from,
		End:      to,
		TimeZone: s.loc.String(),
	})
	if err != nil {
		return "", fmt.Errorf("create block: %w", err)
	}
	s.logger.Info("time blocked", zap.String("event_id", created.ID), zap.Time("start", from), zap.Time("end", to))
	return created.ID, nil
}

// Invite returns the calendar invite of a booked record.
func (s *Service) Invite(r Record) []byte {
	return BuildICS(InviteFor(r, s.practice), s.now())
}

func (s *Service) fallback(r Record) *Fallback {
	args := map[string]any{
		"name":   r.Name,
		"email":  r.Email,
		"phone":  r.Phone,
		"reason": r.Reason,
		"date":   r.Start.In(s.loc).Format("02/01/2006"),
		"when":   s.formatWhen(*r.Start),
	}
	return &Fallback{
		Filename: InviteFilename,
		ICS:      s.Invite(r),
		MailtoURL: MailtoLink(s.practice.Email,
			s.tr.T(i18n.KeyMailtoSubject, args),
			s.tr.T(i18n.KeyMailtoBody, args)),
	}
}

func (s *Service) send(ctx context.Context, msg Message) error {
	if s.mailer == nil {
		return errors.New("no mailer configured")
	}
	return s.mailer.Send(ctx, msg)
}

func (s *Service) formatWhen(t time.Time) string {
	return t.In(s.loc).Format("02/01/2006 15:04")
}

func validateBooking(r Record) error {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidRecord)
	case strings.TrimSpace(r.Email) == "":
		return fmt.Errorf("%w: email is required", ErrInvalidRecord)
	case r.Start == nil:
		return fmt.Errorf("%w: start time is required", ErrInvalidRecord)
	case !schedule.IsAllowedDuration(r.DurationMinutes):
		return fmt.Errorf("%w: duration %d is not offered", ErrInvalidRecord, r.DurationMinutes)
	}
	return nil
}

func startOf(r Record) time.Time {
	if r.Start == nil {
		return time.Time{}
	}
	return *r.Start
}
