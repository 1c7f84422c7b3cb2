package app

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"physio-booking/internal/schedule"
)

// parseDate reads YYYY-MM-DD as local midnight in loc.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return d, nil
}

// GET /api/slots?date=YYYY-MM-DD&duration=30
func (a *App) GetSlotsHandler(c *gin.Context) {
	loc := a.Service.Location()
	date, err := parseDate(c.Query("date"), loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	duration, err := strconv.Atoi(c.DefaultQuery("duration", strconv.Itoa(schedule.Durations[0])))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid duration"})
		return
	}

	slots, err := a.Service.AvailableSlots(c.Request.Context(), date, duration, a.now())
	if err != nil {
		a.writeError(c, err)
		return
	}

	views := make([]SlotView, 0, len(slots))
	for _, s := range slots {
		views = append(views, SlotView{Time: s.Time().String(), Start: s.Start, End: s.End})
	}
	c.JSON(http.StatusOK, gin.H{
		"date":     date.Format(dateLayout),
		"duration": duration,
		"slots":    views,
	})
}

// GET /api/next-open-day?from=YYYY-MM-DD
// from defaults to today.
func (a *App) NextOpenDayHandler(c *gin.Context) {
	loc := a.Service.Location()
	from := a.now().In(loc)
	if s := c.Query("from"); s != "" {
		d, err := parseDate(s, loc)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		from = d
	}

	day := schedule.NextOpenDay(a.Service.Hours(), from)
	if day.IsZero() {
		c.JSON(http.StatusNotFound, gin.H{"error": "no open day in the schedule"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": day.Format(dateLayout)})
}
