package booking

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(t time.Time) *time.Time { return &t }

func TestEncode(t *testing.T) {
	start := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
	r := Record{
		Name:            "Ana García",
		Email:           "ana@example.com",
		Phone:           "600123123",
		Reason:          "Dolor lumbar",
		Start:           &start,
		DurationMinutes: 60,
	}

	ev, err := Encode(r, "Europe/Madrid")
	require.NoError(t, err)

	assert.Equal(t, "Fisioterapia - Ana García", ev.Title)
	assert.Equal(t, "Name: Ana García\nEmail: ana@example.com\nPhone: 600123123\nReason: Dolor lumbar", ev.Body)
	assert.Equal(t, start, ev.Start)
	assert.Equal(t, start.Add(time.Hour), ev.End)
	assert.Equal(t, "Europe/Madrid", ev.TimeZone)
	assert.Equal(t, []string{"ana@example.com"}, ev.Attendees)
	assert.Equal(t, DefaultReminders, ev.Reminders)
}

func TestEncode_RequiresStart(t *testing.T) {
	_, err := Encode(Record{Name: "Ana"}, "UTC")
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestEncode_FlattensLineBreaks(t *testing.T) {
	r := Record{Name: "Ana", Reason: "knee\nand\r\nback", Start: ptr(time.Now()), DurationMinutes: 30}

	ev, err := Encode(r, "UTC")
	require.NoError(t, err)

	assert.Len(t, strings.Split(ev.Body, "\n"), 4)
	assert.Equal(t, "knee and back", Decode(ev).Reason)
}

func TestRoundTrip(t *testing.T) {
	records := []Record{
		{Name: "Ana", Email: "ana@example.com", Phone: "600123123", Reason: "Back pain", DurationMinutes: 30},
		{Name: "Joan Puig", Email: "joan@example.cat", Phone: "+34 93 000 00 00", Reason: "Ratio: 2: 1 split", DurationMinutes: 60},
		{Name: "Émilie", Email: "e@example.fr", Phone: "0", Reason: "Épaule", DurationMinutes: 30},
	}
	start := time.Date(2026, 10, 20, 16, 0, 0, 0, time.UTC)

	for _, r := range records {
		t.Run(r.Name, func(t *testing.T) {
			r.Start = &start
			ev, err := Encode(r, "UTC")
			require.NoError(t, err)

			got := Decode(ev)
			assert.Equal(t, r.Name, got.Name)
			assert.Equal(t, r.Email, got.Email)
			assert.Equal(t, r.Phone, got.Phone)
			assert.Equal(t, r.Reason, got.Reason)
			assert.Equal(t, r.DurationMinutes, got.DurationMinutes)
			require.NotNil(t, got.Start)
			assert.True(t, got.Start.Equal(start))
		})
	}
}

func TestEncodeDecodeEncode(t *testing.T) {
	ev := RemoteEvent{
		ID:    "evt-1",
		Title: "Fisioterapia - Ana",
		Body:  "Name: Ana\nEmail: ana@example.com\nPhone: 1\nReason: Neck",
		Start: time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 10, 19, 10, 30, 0, 0, time.UTC),
	}

	again, err := Encode(Decode(ev), "UTC")
	require.NoError(t, err)

	assert.Equal(t, ev.ID, again.ID)
	assert.Equal(t, ev.Title, again.Title)
	assert.Equal(t, ev.Body, again.Body)
	assert.Equal(t, ev.Start, again.Start)
	assert.Equal(t, ev.End, again.End)
}

func TestDecode_Degrades(t *testing.T) {
	start := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)

	tests := []struct {
		name  string
		title string
		body  string
		want  Record
	}{
		{
			name:  "empty body falls back to title",
			title: "Fisioterapia - John Doe",
			want:  Record{Name: "John Doe"},
		},
		{
			name:  "block has no prefix",
			title: BlockTitle,
			want:  Record{Name: BlockTitle},
		},
		{
			name:  "case insensitive keys",
			title: "x",
			body:  "NAME: Ana\nemail: a@b.c\nPHONE: 1\nreason: r",
			want:  Record{Name: "Ana", Email: "a@b.c", Phone: "1", Reason: "r"},
		},
		{
			name:  "unknown keys and junk lines ignored",
			title: "Fisioterapia - Ana",
			body:  "garbage\nFoo: bar\nEmail: a@b.c\n: \n\n::::",
			want:  Record{Name: "Ana", Email: "a@b.c"},
		},
		{
			name:  "value keeps later separators",
			title: "t",
			body:  "Name: Ana\nReason: a: b: c",
			want:  Record{Name: "Ana", Reason: "a: b: c"},
		},
		{
			name:  "missing space after colon is not a field",
			title: "Fisioterapia - Ana",
			body:  "Email:a@b.c",
			want:  Record{Name: "Ana"},
		},
		{
			name:  "crlf line endings",
			title: "t",
			body:  "Name: Ana\r\nEmail: a@b.c\r\n",
			want:  Record{Name: "Ana", Email: "a@b.c"},
		},
		{
			name:  "last duplicate wins",
			title: "t",
			body:  "Phone: 1\nPhone: 2",
			want:  Record{Name: "t", Phone: "2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(RemoteEvent{ID: "id", Title: tt.title, Body: tt.body, Start: start, End: end})

			tt.want.ID = "id"
			tt.want.Start = &start
			tt.want.DurationMinutes = 30
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_DurationFromTimes(t *testing.T) {
	start := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

	got := Decode(RemoteEvent{Title: BlockTitle, Start: start, End: start.Add(150 * time.Minute)})
	assert.Equal(t, 150, got.DurationMinutes)

	got = Decode(RemoteEvent{Title: BlockTitle})
	assert.Nil(t, got.Start)
	assert.Zero(t, got.DurationMinutes)
}

func FuzzDecode(f *testing.F) {
	f.Add("Fisioterapia - Ana", "Name: Ana\nEmail: a@b.c\nPhone: 1\nReason: r")
	f.Add(BlockTitle, "")
	f.Add("", ": \n:\n\r\n\x00")
	f.Add("Fisioterapia - ", "name: \nNAME: x: y")

	start := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	f.Fuzz(func(t *testing.T, title, body string) {
		r := Decode(RemoteEvent{Title: title, Body: body, Start: start, End: start.Add(30 * time.Minute)})
		if r.DurationMinutes != 30 {
			t.Fatalf("duration = %d, want 30", r.DurationMinutes)
		}
		if r.Name == "" && strings.TrimPrefix(title, TitlePrefix) != "" {
			t.Fatalf("name fallback not applied for title %q", title)
		}
	})
}
