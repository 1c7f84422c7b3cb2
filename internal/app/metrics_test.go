package app

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.ObserveBooking("created")
	m.ObserveCancellation("cancelled")
	m.ObserveBlock("created")
	m.ObserveNotification("confirmation", false, false)
	m.ObserveNotification("cancellation", false, true)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["physio_booking_appointments_total"])
	assert.True(t, names["physio_booking_cancellations_total"])
	assert.True(t, names["physio_booking_blocks_total"])
	assert.True(t, names["physio_booking_notifications_total"])
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveBooking("created")
	m.ObserveCancellation("cancelled")
	m.ObserveBlock("created")
	m.ObserveNotification("confirmation", true, false)
	assert.NotNil(t, m.Middleware())
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(201))
	assert.Equal(t, "3xx", statusClass(302))
	assert.Equal(t, "4xx", statusClass(409))
	assert.Equal(t, "5xx", statusClass(502))
}
