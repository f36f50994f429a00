package telemetry

import (
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Health reports on the broker connection and the InfluxDB writer. A nil
// Health means telemetry is disabled.
type Health struct {
	MQTT   mqtt.Client
	Influx bool
	Writer *Writer

	// Write errors younger than this make the service not ready.
	MinErrorAge time.Duration
}

type Status struct {
	Status          string  `json:"status"` // ok | degraded | down | disabled
	MQTTConnected   bool    `json:"mqtt_connected"`
	InfluxOK        bool    `json:"influx_ok"`
	LastWriteErrorS float64 `json:"last_write_error_age_sec"`
}

func (h *Health) Check() Status {
	if h == nil {
		return Status{Status: "disabled"}
	}
	st := Status{
		MQTTConnected:   h.MQTT != nil && h.MQTT.IsConnectionOpen(),
		InfluxOK:        h.Influx && h.Writer != nil,
		LastWriteErrorS: h.Writer.LastErrorAge().Seconds(),
	}
	switch {
	case st.MQTTConnected && st.InfluxOK && h.Writer.LastErrorAge() > h.minErrorAge():
		st.Status = "ok"
	case st.MQTTConnected || st.InfluxOK:
		st.Status = "degraded"
	default:
		st.Status = "down"
	}
	return st
}

// Ready is true when telemetry is disabled or fully healthy.
func (h *Health) Ready() bool {
	if h == nil {
		return true
	}
	return h.Check().Status == "ok"
}

func (h *Health) minErrorAge() time.Duration {
	if h.MinErrorAge <= 0 {
		return 30 * time.Second
	}
	return h.MinErrorAge
}
