package catalog

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ents "github.com/LeonardoBeccarini/farmfuture/internal/model/entities"
	"github.com/LeonardoBeccarini/farmfuture/internal/model/messages"
	"github.com/LeonardoBeccarini/farmfuture/internal/rollup"
)

func seededStore(t *testing.T) *Store {
	t.Helper()
	snap, err := DefaultSeed()
	require.NoError(t, err)
	return NewStore(snap, nil)
}

func findDevice(devices []ents.Device, id string) *ents.Device {
	for i := range devices {
		if devices[i].ID == id {
			return &devices[i]
		}
	}
	return nil
}

func TestApplyDeviceStatusCopyOnWrite(t *testing.T) {
	s := seededStore(t)
	before := s.Snapshot()
	battery := 80
	ts := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)

	err := s.ApplyDeviceStatus(messages.DeviceStatusEvent{
		DeviceID:     "NPK-045",
		Status:       ents.DeviceOnline,
		BatteryLevel: &battery,
		Timestamp:    ts,
	})
	require.NoError(t, err)

	after := s.Snapshot()
	d := findDevice(after.Devices, "NPK-045")
	require.NotNil(t, d)
	assert.Equal(t, ents.DeviceOnline, d.Status)
	assert.Equal(t, 80, *d.BatteryLevel)
	assert.Equal(t, "2024-09-01T12:00:00Z", d.LastSync)

	farm := after.Estates[1].Farms[0]
	assert.Equal(t, ents.DeviceOnline, farm.GetDevice("NPK-045").Status)

	// the previous snapshot is untouched
	old := findDevice(before.Devices, "NPK-045")
	assert.Equal(t, ents.DeviceOffline, old.Status)
	assert.Equal(t, 12, *old.BatteryLevel)
	assert.Equal(t, ents.DeviceOffline, before.Estates[1].Farms[0].GetDevice("NPK-045").Status)
	assert.Equal(t, uint64(1), s.Version())
}

func TestApplyDeviceStatusUnmatchedEstateHint(t *testing.T) {
	s := seededStore(t)
	require.Equal(t, 3, rollup.RollupNested(s.Snapshot().Estates).OnlineDevices)

	err := s.ApplyDeviceStatus(messages.DeviceStatusEvent{
		EstateID: "green-valley",
		DeviceID: "NPK-001",
		Status:   ents.DeviceOffline,
	})
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, ents.DeviceOffline, findDevice(snap.Devices, "NPK-001").Status)
	assert.Equal(t, ents.DeviceOffline, snap.Estates[0].Farms[0].GetDevice("NPK-001").Status)
	assert.Equal(t, 2, rollup.RollupNested(snap.Estates).OnlineDevices)
}

func TestApplyDeviceStatusKeepsBatteryWhenMissing(t *testing.T) {
	s := seededStore(t)
	s.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, s.ApplyDeviceStatus(messages.DeviceStatusEvent{DeviceID: "NPK-001", Status: ents.DeviceWarning}))
	d := findDevice(s.Snapshot().Devices, "NPK-001")
	assert.Equal(t, ents.DeviceWarning, d.Status)
	assert.Equal(t, 87, *d.BatteryLevel)
	assert.Equal(t, "2024-01-01T00:00:00Z", d.LastSync)
}

func TestApplyDeviceStatusErrors(t *testing.T) {
	s := seededStore(t)
	before := s.Snapshot()

	err := s.ApplyDeviceStatus(messages.DeviceStatusEvent{DeviceID: "NOPE", Status: ents.DeviceOnline})
	assert.ErrorIs(t, err, ErrUnknownDevice)

	err = s.ApplyDeviceStatus(messages.DeviceStatusEvent{DeviceID: "NPK-001", Status: "melted"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	assert.Same(t, before, s.Snapshot())
	assert.Zero(t, s.Version())
}

func TestUpdateFailureDiscardsCopy(t *testing.T) {
	s := seededStore(t)
	before := s.Snapshot()
	boom := errors.New("boom")

	err := s.Update(func(snap *ents.Snapshot) error {
		snap.Users = nil
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Same(t, before, s.Snapshot())
	assert.Len(t, s.Snapshot().Users, 4)
}

func TestReplaceNil(t *testing.T) {
	s := NewStore(nil, nil)
	s.Replace(nil)
	require.NotNil(t, s.Snapshot())
	assert.Empty(t, s.Snapshot().Devices)
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	s := seededStore(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.ApplyDeviceStatus(messages.DeviceStatusEvent{DeviceID: "NPK-023", Status: ents.DeviceOnline})
		}()
		go func() {
			defer wg.Done()
			snap := s.Snapshot()
			_, _ = Select(snap, Devices, queryFor("npk"))
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(8), s.Version())
}
