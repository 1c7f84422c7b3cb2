package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"physio-booking/internal/booking"
	"physio-booking/internal/schedule"
)

// writeError maps the booking error taxonomy onto HTTP statuses.
func (a *App) writeError(c *gin.Context, err error) {
	var backendErr *booking.BackendError
	switch {
	case errors.Is(err, booking.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "code": "calendar_unauthorized"})
	case errors.Is(err, booking.ErrInvalidRecord):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "appointment not found"})
	case errors.As(err, &backendErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": backendErr.Message, "status": backendErr.Status})
	case errors.Is(err, booking.ErrBackendRequestFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		a.logger().With(zap.Error(err)).Error("request failed", zap.String("path", c.FullPath()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (a *App) inviteURL(id string) string {
	return "/api/appointments/" + id + "/invite.ics"
}

// POST /api/appointments
func (a *App) CreateAppointmentHandler(c *gin.Context) {
	var req createAppointmentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	loc := a.Service.Location()
	date, err := parseDate(req.Date, loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tod, err := schedule.ParseTimeOfDay(req.Time)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid time, want HH:MM"})
		return
	}
	start := tod.On(date, loc)
	ctx := c.Request.Context()

	res, err := a.reserve(ctx, booking.Record{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Reason:          req.Reason,
		Start:           &start,
		DurationMinutes: req.Duration,
	})
	if errors.Is(err, errSlotTaken) {
		a.Metrics.ObserveBooking("conflict")
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		a.Metrics.ObserveBooking("error")
		a.writeError(c, err)
		return
	}
	a.Metrics.ObserveBooking("created")

	res.Notification = a.Service.Confirm(ctx, res.Record)
	a.Metrics.ObserveNotification("confirmation", res.Notification.Sent, res.Notification.Skipped)

	c.JSON(http.StatusCreated, gin.H{
		"id":           res.ID,
		"title":        res.Title,
		"appointment":  toAppointment(res.Record, loc),
		"notification": toNotificationView(res.Notification, a.inviteURL(res.ID)),
	})
}

var errSlotTaken = errors.New("slot not available")

// reserve re-checks that r's slot is still free and writes the event. Only
// the check and the write run under bookMu; the confirmation email does not.
func (a *App) reserve(ctx context.Context, r booking.Record) (booking.BookingResult, error) {
	a.bookMu.Lock()
	defer a.bookMu.Unlock()

	// the slot may have been taken since it was listed
	slots, err := a.Service.AvailableSlots(ctx, *r.Start, r.DurationMinutes, a.now())
	if err != nil {
		return booking.BookingResult{}, err
	}
	for _, s := range slots {
		if s.Start.Equal(*r.Start) {
			return a.Service.Insert(ctx, r)
		}
	}
	return booking.BookingResult{}, errSlotTaken
}

// GET /api/appointments/:id
func (a *App) GetAppointmentHandler(c *gin.Context) {
	rec, ok, err := a.Service.Find(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "appointment not found"})
		return
	}
	c.JSON(http.StatusOK, toAppointment(rec, a.Service.Location()))
}

// GET /api/appointments/:id/invite.ics
func (a *App) InviteHandler(c *gin.Context) {
	rec, ok, err := a.Service.Find(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	if !ok || rec.Start == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "appointment not found"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+booking.InviteFilename+`"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", a.Service.Invite(rec))
}

// DELETE /api/appointments/:id
func (a *App) CancelAppointmentHandler(c *gin.Context) {
	ctx := c.Request.Context()
	rec, ok, err := a.Service.Find(ctx, c.Param("id"))
	if err != nil {
		a.Metrics.ObserveCancellation("error")
		a.writeError(c, err)
		return
	}
	if !ok {
		a.Metrics.ObserveCancellation("not_found")
		c.JSON(http.StatusNotFound, gin.H{"error": "appointment not found"})
		return
	}

	n, err := a.Service.Cancel(ctx, rec)
	if err != nil {
		a.Metrics.ObserveCancellation("error")
		a.writeError(c, err)
		return
	}
	a.Metrics.ObserveCancellation("cancelled")
	a.Metrics.ObserveNotification("cancellation", n.Sent, n.Skipped)

	c.JSON(http.StatusOK, gin.H{
		"ok":           true,
		"notification": toNotificationView(n, ""),
	})
}

// GET /api/admin/appointments?range=today|week|month&date=YYYY-MM-DD
// GET /api/admin/appointments?from=YYYY-MM-DD&to=YYYY-MM-DD (to inclusive)
func (a *App) ListAppointmentsHandler(c *gin.Context) {
	from, to, err := a.listWindow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records, err := a.Service.ListAppointments(c.Request.Context(), from, to)
	if err != nil {
		a.writeError(c, err)
		return
	}
	loc := a.Service.Location()
	out := make([]Appointment, 0, len(records))
	for _, r := range records {
		out = append(out, toAppointment(r, loc))
	}
	c.JSON(http.StatusOK, gin.H{
		"from":         from,
		"to":           to,
		"appointments": out,
		"count":        len(out),
	})
}

func (a *App) listWindow(c *gin.Context) (time.Time, time.Time, error) {
	loc := a.Service.Location()

	if fromStr, toStr := c.Query("from"), c.Query("to"); fromStr != "" || toStr != "" {
		from, err := parseDate(fromStr, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to, err := parseDate(toStr, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = to.AddDate(0, 0, 1)
		if !from.Before(to) {
			return time.Time{}, time.Time{}, errors.New("from must not be after to")
		}
		return from, to, nil
	}

	day := schedule.StartOfDay(a.now().In(loc))
	if s := c.Query("date"); s != "" {
		d, err := parseDate(s, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		day = d
	}

	switch c.DefaultQuery("range", "today") {
	case "today":
		return day, day.AddDate(0, 0, 1), nil
	case "week":
		return day, day.AddDate(0, 0, 7), nil
	case "month":
		first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, loc)
		return first, first.AddDate(0, 1, 0), nil
	default:
		return time.Time{}, time.Time{}, errors.New("range must be today, week or month")
	}
}

// POST /api/admin/blocks
func (a *App) BlockHandler(c *gin.Context) {
	var req blockReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	day, err := parseDate(req.Date, a.Service.Location())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := schedule.ParseTimeOfDay(req.Start)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start, want HH:MM"})
		return
	}
	end, err := schedule.ParseTimeOfDay(req.End)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end, want HH:MM"})
		return
	}

	id, err := a.Service.Block(c.Request.Context(), day, start, end)
	if err != nil {
		a.Metrics.ObserveBlock("error")
		a.writeError(c, err)
		return
	}
	a.Metrics.ObserveBlock("created")
	c.JSON(http.StatusCreated, gin.H{"id": id})
}
