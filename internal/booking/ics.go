package booking

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
)

// InviteFilename is the download name of the calendar invite.
const InviteFilename = "cita-fisioterapia.ics"

const icsProductID = "-//physio-booking//Booking//EN"

// Invite describes the single VEVENT of a calendar invite.
type Invite struct {
	// EventID seeds the UID so repeated downloads update the same entry.
	EventID     string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	Domain      string
}

// UID returns the invite's globally unique id. Invites without an event id
// get a random one.
func (inv Invite) UID() string {
	domain := inv.Domain
	if domain == "" {
		domain = "localhost"
	}
	id := inv.EventID
	if id == "" {
		id = uuid.NewString()
	}
	return id + "@" + domain
}

// BuildICS renders inv as an iCalendar document stamped at now, with CRLF
// line endings and lines folded at 75 octets.
func BuildICS(inv Invite, now time.Time) []byte {
	cal := ics.NewCalendar()
	cal.SetProductId(icsProductID)

	ev := cal.AddEvent(inv.UID())
	ev.SetDtStampTime(now)
	ev.SetStartAt(inv.Start)
	ev.SetEndAt(inv.End)
	ev.SetSummary(icsText(inv.Summary))
	ev.SetDescription(icsText(inv.Description))
	ev.SetLocation(icsText(inv.Location))

	return []byte(cal.Serialize(ics.WithNewLineWindows))
}

// InviteFor builds the invite for a booked record.
func InviteFor(r Record, p Practice) Invite {
	var start time.Time
	if r.Start != nil {
		start = *r.Start
	}
	desc := fmt.Sprintf("Razón: %s\nNombre: %s\nEmail: %s\nTeléfono: %s", r.Reason, r.Name, r.Email, r.Phone)
	return Invite{
		EventID:     r.ID,
		Summary:     TitlePrefix + r.Name,
		Description: desc,
		Location:    p.Address,
		Start:       start,
		End:         r.End(),
		Domain:      p.Domain,
	}
}

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// icsText normalizes line breaks to LF and replaces invalid UTF-8 so the
// serializer only ever folds between whole characters.
func icsText(s string) string {
	return lineBreaks.Replace(strings.ToValidUTF8(s, "\uFFFD"))
}
