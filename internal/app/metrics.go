package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes counters for the appointment lifecycle.
type Metrics struct {
	bookings       *prometheus.CounterVec
	cancellations  *prometheus.CounterVec
	blocks         *prometheus.CounterVec
	notifications  *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "physio",
			Subsystem: "booking",
			Name:      "appointments_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "physio",
			Subsystem: "booking",
			Name:      "cancellations_total",
			Help:      "Cancellation attempts by outcome",
		}, []string{"outcome"}),
		blocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "physio",
			Subsystem: "booking",
			Name:      "blocks_total",
			Help:      "Admin time blocks by outcome",
		}, []string{"outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "physio",
			Subsystem: "booking",
			Name:      "notifications_total",
			Help:      "Email notifications by kind and outcome",
		}, []string{"kind", "outcome"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "physio",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookings, m.cancellations, m.blocks, m.notifications, m.requestLatency)
	return m
}

func (m *Metrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveCancellation(outcome string) {
	if m == nil {
		return
	}
	m.cancellations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveBlock(outcome string) {
	if m == nil {
		return
	}
	m.blocks.WithLabelValues(outcome).Inc()
}

// ObserveNotification records kind ("confirmation" or "cancellation") with
// sent, skipped or failed.
func (m *Metrics) ObserveNotification(kind string, sent, skipped bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	switch {
	case sent:
		outcome = "sent"
	case skipped:
		outcome = "skipped"
	}
	m.notifications.WithLabelValues(kind, outcome).Inc()
}

// Middleware times every routed request.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestLatency.WithLabelValues(route, c.Request.Method, statusClass(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
