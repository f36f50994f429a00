package telemetry

import (
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type connClient struct {
	mqtt.Client
	open bool
}

func (c connClient) IsConnectionOpen() bool { return c.open }

func TestHealthDisabled(t *testing.T) {
	var h *Health
	assert.Equal(t, "disabled", h.Check().Status)
	assert.True(t, h.Ready())
}

func TestHealthStates(t *testing.T) {
	w, fake := newTestWriter(t)

	h := &Health{MQTT: connClient{open: true}, Influx: true, Writer: w, MinErrorAge: time.Minute}
	assert.Equal(t, "ok", h.Check().Status)
	assert.True(t, h.Ready())

	h.MQTT = connClient{open: false}
	assert.Equal(t, "degraded", h.Check().Status)
	assert.False(t, h.Ready())

	h.Influx = false
	assert.Equal(t, "down", h.Check().Status)

	h = &Health{MQTT: connClient{open: true}, Influx: true, Writer: w, MinErrorAge: time.Minute}
	fake.errs <- errors.New("bucket not found")
	require.Eventually(t, func() bool { return w.LastErrorAge() < time.Minute }, time.Second, time.Millisecond)
	assert.Equal(t, "degraded", h.Check().Status)
}

func TestWriterCounts(t *testing.T) {
	w, _ := newTestWriter(t)
	w.MarkIngest("applied")
	w.MarkIngest("applied")
	assert.Equal(t, int64(2), w.Count("applied"))

	var nilWriter *Writer
	assert.Zero(t, nilWriter.Count("applied"))
	assert.Greater(t, nilWriter.LastErrorAge(), time.Hour)
}
