package telemetry

import (
	"context"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/farmfuture/internal/catalog"
	ents "github.com/LeonardoBeccarini/farmfuture/internal/model/entities"
	"github.com/LeonardoBeccarini/farmfuture/pkg/rabbitmq"
)

type fixture struct {
	store    *catalog.Store
	fake     *fakeWriteAPI
	metrics  *Metrics
	ingester *Ingester
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	snap, err := catalog.DefaultSeed()
	require.NoError(t, err)
	store := catalog.NewStore(snap, nil)
	w, fake := newTestWriter(t)
	m := NewMetrics(prometheus.NewRegistry())
	in := NewIngester(store, w, nil, m, nil)
	in.now = func() time.Time { return time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC) }
	return fixture{store: store, fake: fake, metrics: m, ingester: in}
}

func device(t *testing.T, s *catalog.Store, id string) ents.Device {
	t.Helper()
	for _, d := range s.Snapshot().Devices {
		if d.ID == id {
			return d
		}
	}
	t.Fatalf("device %s not found", id)
	return ents.Device{}
}

func (f fixture) count(result string) float64 {
	return testutil.ToFloat64(f.metrics.events.WithLabelValues(result))
}

func TestHandleUsesTopicIDs(t *testing.T) {
	f := newFixture(t)

	err := f.ingester.Handle("device/status/EST-002/NPK-045", msg("device/status/EST-002/NPK-045", `{"state":"ONLINE","battery":"55"}`))
	require.NoError(t, err)

	d := device(t, f.store, "NPK-045")
	assert.Equal(t, ents.DeviceOnline, d.Status)
	require.NotNil(t, d.BatteryLevel)
	assert.Equal(t, 55, *d.BatteryLevel)
	assert.Equal(t, "2024-09-01T08:00:00Z", d.LastSync)

	points := f.fake.written()
	require.Len(t, points, 1)
	assert.Equal(t, Measurement, points[0].Name())
	assert.Equal(t, map[string]string{"device_id": "NPK-045", "estate_id": "EST-002", "status": "online"}, tags(points[0]))
	fs := fields(points[0])
	assert.EqualValues(t, 1, fs["online"])
	assert.EqualValues(t, 0, fs["offline"])
	assert.EqualValues(t, 55, fs["battery_level"])
	assert.Equal(t, 1.0, f.count(resultApplied))
}

func TestHandleDropsRedelivery(t *testing.T) {
	f := newFixture(t)
	m := msg("device/status/EST-001/NPK-001", `{"device_id":"NPK-001","status":"warning"}`)

	require.NoError(t, f.ingester.Handle(m.Topic(), m))
	require.NoError(t, f.ingester.Handle(m.Topic(), m))

	assert.Len(t, f.fake.written(), 1)
	assert.Equal(t, 1.0, f.count(resultApplied))
	assert.Equal(t, 1.0, f.count(resultDuplicate))
}

func TestHandleUnknownDeviceStillRecorded(t *testing.T) {
	f := newFixture(t)
	before := f.store.Snapshot()

	err := f.ingester.Handle("device/status/EST-009/NPK-999", msg("device/status/EST-009/NPK-999", `{"status":"offline"}`))
	require.NoError(t, err)

	assert.Same(t, before, f.store.Snapshot())
	assert.Len(t, f.fake.written(), 1)
	assert.Equal(t, 1.0, f.count(resultUnknown))
}

func TestHandleRejects(t *testing.T) {
	cases := []struct {
		name    string
		topic   string
		payload string
		want    error
	}{
		{"bad json", "device/status/EST-001/NPK-001", `{`, nil},
		{"unknown status", "device/status/EST-001/NPK-001", `{"status":"melted"}`, catalog.ErrInvalidStatus},
		{"no device anywhere", "device/status", `{"status":"online"}`, ErrMissingDevice},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			err := f.ingester.Handle(tc.topic, msg(tc.topic, tc.payload))
			require.Error(t, err)
			if tc.want != nil {
				assert.ErrorIs(t, err, tc.want)
			}
			assert.Empty(t, f.fake.written())
			assert.Equal(t, 1.0, f.count(resultInvalid))
		})
	}
}

func TestPickIDs(t *testing.T) {
	e, d := pickIDs("device/status/EST-001/NPK-001", "", "")
	assert.Equal(t, "EST-001", e)
	assert.Equal(t, "NPK-001", d)

	e, d = pickIDs("device/status/EST-001/NPK-001", "", "NPK-777")
	assert.Equal(t, "EST-001", e)
	assert.Equal(t, "NPK-777", d)

	e, d = pickIDs("other/EST-001/NPK-001", "", "")
	assert.Empty(t, e)
	assert.Empty(t, d)
}

type stubConsumer struct {
	handler rabbitmq.Handler
}

func (s *stubConsumer) SetHandler(h rabbitmq.Handler) { s.handler = h }

func (s *stubConsumer) ConsumeMessage(ctx context.Context) error {
	m := msg("device/status/EST-003/NPK-023", `{"status":"online"}`)
	if err := s.handler(m.Topic(), mqtt.Message(m)); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

func TestRun(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, f.ingester.Run(ctx, &stubConsumer{}))
	assert.Equal(t, ents.DeviceOnline, device(t, f.store, "NPK-023").Status)
}
