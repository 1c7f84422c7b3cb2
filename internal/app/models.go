package app

import (
	"time"

	"physio-booking/internal/booking"
)

const dateLayout = "2006-01-02"

type createAppointmentReq struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Date     string `json:"date" binding:"required"` // YYYY-MM-DD
	Time     string `json:"time" binding:"required"` // HH:MM
	Duration int    `json:"duration" binding:"required"`
}

type blockReq struct {
	Date  string `json:"date" binding:"required"`
	Start string `json:"start" binding:"required"`
	End   string `json:"end" binding:"required"`
}

// Appointment is the API view of a booking.Record.
type Appointment struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	Reason          string    `json:"reason,omitempty"`
	Date            string    `json:"date,omitempty"`
	Time            string    `json:"time,omitempty"`
	Start           time.Time `json:"start,omitempty"`
	End             time.Time `json:"end,omitempty"`
	DurationMinutes int       `json:"duration_minutes"`
}

func toAppointment(r booking.Record, loc *time.Location) Appointment {
	a := Appointment{
		ID:              r.ID,
		Name:            r.Name,
		Email:           r.Email,
		Phone:           r.Phone,
		Reason:          r.Reason,
		DurationMinutes: r.DurationMinutes,
	}
	if r.Start != nil {
		start := r.Start.In(loc)
		a.Start = start
		a.End = r.End().In(loc)
		a.Date = start.Format(dateLayout)
		a.Time = start.Format("15:04")
	}
	return a
}

// SlotView is one bookable start time.
type SlotView struct {
	Time  string    `json:"time"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// fallbackView carries the invite inline (ICS is base64 in JSON) and as a
// download link.
type fallbackView struct {
	Filename  string `json:"filename"`
	ICS       []byte `json:"ics_base64"`
	InviteURL string `json:"invite_url"`
	MailtoURL string `json:"mailto_url"`
}

type notificationView struct {
	Sent     bool          `json:"sent"`
	Skipped  bool          `json:"skipped,omitempty"`
	Error    string        `json:"error,omitempty"`
	Fallback *fallbackView `json:"fallback,omitempty"`
}

func toNotificationView(n booking.Notification, inviteURL string) notificationView {
	v := notificationView{Sent: n.Sent, Skipped: n.Skipped}
	if n.Err != nil {
		v.Error = n.Err.Error()
	}
	if n.Fallback != nil {
		v.Fallback = &fallbackView{
			Filename:  n.Fallback.Filename,
			ICS:       n.Fallback.ICS,
			InviteURL: inviteURL,
			MailtoURL: n.Fallback.MailtoURL,
		}
	}
	return v
}
