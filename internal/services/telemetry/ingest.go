// Package telemetry ingests device status reports from the broker into the
// catalog and InfluxDB, and reads device performance history back.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"go.uber.org/zap"

	"github.com/LeonardoBeccarini/farmfuture/internal/catalog"
	ents "github.com/LeonardoBeccarini/farmfuture/internal/model/entities"
	"github.com/LeonardoBeccarini/farmfuture/internal/model/messages"
	"github.com/LeonardoBeccarini/farmfuture/pkg/dedup"
	"github.com/LeonardoBeccarini/farmfuture/pkg/rabbitmq"
)

const (
	statusPrefix = "device/status/"

	// DeviceStatusTopic is the subscription filter for status reports,
	// published on device/status/{estate}/{device}.
	DeviceStatusTopic = statusPrefix + "#"

	Measurement = "device_status"
)

var ErrMissingDevice = errors.New("status event without device id")

type Ingester struct {
	store   *catalog.Store
	writer  *Writer
	dedup   *dedup.Deduper
	metrics *Metrics
	log     *zap.Logger
	now     func() time.Time
}

// NewIngester wires the pipeline. writer may be nil to skip InfluxDB.
func NewIngester(store *catalog.Store, writer *Writer, d *dedup.Deduper, m *Metrics, log *zap.Logger) *Ingester {
	if log == nil {
		log = zap.NewNop()
	}
	if d == nil {
		d = dedup.New(10*time.Minute, 20000)
	}
	if m == nil {
		m = NewMetrics(nil)
	}
	return &Ingester{store: store, writer: writer, dedup: d, metrics: m, log: log, now: time.Now}
}

// Run installs the handler on c and blocks until ctx is done.
func (i *Ingester) Run(ctx context.Context, c rabbitmq.IConsumer) error {
	c.SetHandler(i.Handle)
	return c.ConsumeMessage(ctx)
}

// Handle processes one status report. Broker redeliveries are dropped;
// reports for devices missing from the catalog are still recorded in
// InfluxDB.
func (i *Ingester) Handle(topic string, m mqtt.Message) error {
	payload := m.Payload()
	if !i.dedup.ShouldProcess(dedup.Key(topic, payload)) {
		i.metrics.events.WithLabelValues(resultDuplicate).Inc()
		return nil
	}

	evt, err := decodeStatus(topic, payload)
	if err != nil {
		i.metrics.events.WithLabelValues(resultInvalid).Inc()
		return err
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = i.now()
	}

	result := resultApplied
	if err := i.store.ApplyDeviceStatus(evt); err != nil {
		switch {
		case errors.Is(err, catalog.ErrUnknownDevice):
			result = resultUnknown
			i.log.Debug("status for unknown device", zap.String("device_id", evt.DeviceID))
		default:
			i.metrics.events.WithLabelValues(resultInvalid).Inc()
			return err
		}
	}
	i.metrics.events.WithLabelValues(result).Inc()
	i.metrics.lastEvent.Set(float64(evt.Timestamp.Unix()))

	if i.writer != nil {
		i.writer.Write(statusPoint(evt))
		i.writer.MarkIngest(result)
	}
	return nil
}

func decodeStatus(topic string, payload []byte) (messages.DeviceStatusEvent, error) {
	var evt messages.DeviceStatusEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return evt, fmt.Errorf("decode %s: %w", topic, err)
	}
	evt.EstateID, evt.DeviceID = pickIDs(topic, evt.EstateID, evt.DeviceID)
	if evt.DeviceID == "" {
		return evt, fmt.Errorf("%s: %w", topic, ErrMissingDevice)
	}
	if !evt.Status.Valid() {
		return evt, fmt.Errorf("%s: %w %q", topic, catalog.ErrInvalidStatus, evt.Status)
	}
	return evt, nil
}

// pickIDs prefers the payload ids and falls back to the topic
// device/status/{estate}/{device}.
func pickIDs(topic, estateID, deviceID string) (string, string) {
	if estateID != "" && deviceID != "" {
		return estateID, deviceID
	}
	parts := strings.Split(strings.TrimPrefix(topic, statusPrefix), "/")
	if !strings.HasPrefix(topic, statusPrefix) || len(parts) < 2 {
		return estateID, deviceID
	}
	if estateID == "" {
		estateID = parts[0]
	}
	if deviceID == "" {
		deviceID = parts[1]
	}
	return estateID, deviceID
}

// statusPoint records one report with a 0/1 field per status so monthly
// sums give status shares directly.
func statusPoint(evt messages.DeviceStatusEvent) *write.Point {
	tags := map[string]string{
		"device_id": evt.DeviceID,
		"status":    string(evt.Status),
	}
	if evt.EstateID != "" {
		tags["estate_id"] = evt.EstateID
	}
	fields := map[string]interface{}{}
	for _, s := range []ents.DeviceStatus{ents.DeviceOnline, ents.DeviceWarning, ents.DeviceOffline, ents.DeviceIdle} {
		v := int64(0)
		if evt.Status == s {
			v = 1
		}
		fields[string(s)] = v
	}
	if evt.BatteryLevel != nil {
		fields["battery_level"] = int64(*evt.BatteryLevel)
	}
	return influxdb2.NewPoint(Measurement, tags, fields, evt.Timestamp)
}
