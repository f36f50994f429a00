package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultApplied   = "applied"
	resultDuplicate = "duplicate"
	resultInvalid   = "invalid"
	resultUnknown   = "unknown_device"
)

type Metrics struct {
	events    *prometheus.CounterVec
	lastEvent prometheus.Gauge
}

// NewMetrics registers the ingester metrics on reg. A nil reg leaves them
// unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "farmfuture",
			Subsystem: "telemetry",
			Name:      "events_total",
			Help:      "Device status events received, by outcome.",
		}, []string{"result"}),
		lastEvent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "farmfuture",
			Subsystem: "telemetry",
			Name:      "last_event_timestamp_seconds",
			Help:      "Unix time of the last applied device status event.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.events, m.lastEvent)
	}
	return m
}
