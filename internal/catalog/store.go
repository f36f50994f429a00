package catalog

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	ents "github.com/LeonardoBeccarini/farmfuture/internal/model/entities"
	"github.com/LeonardoBeccarini/farmfuture/internal/model/messages"
)

var ErrUnknownDevice = errors.New("unknown device")

// Store holds the current snapshot. Readers get an immutable pointer and
// never block; writers are serialised and publish a fresh copy.
type Store struct {
	mu      sync.Mutex
	cur     atomic.Pointer[ents.Snapshot]
	version atomic.Uint64
	log     *zap.Logger
	now     func() time.Time
}

func NewStore(initial *ents.Snapshot, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	if initial == nil {
		initial = &ents.Snapshot{}
	}
	s := &Store{log: log, now: time.Now}
	s.cur.Store(initial)
	return s
}

// Snapshot returns the current snapshot. Callers must not modify it.
func (s *Store) Snapshot() *ents.Snapshot {
	return s.cur.Load()
}

// Version is bumped on every successful write.
func (s *Store) Version() uint64 {
	return s.version.Load()
}

// Replace swaps in snap wholesale.
func (s *Store) Replace(snap *ents.Snapshot) {
	if snap == nil {
		snap = &ents.Snapshot{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.Store(snap)
	v := s.version.Add(1)
	s.log.Debug("snapshot replaced", zap.Uint64("version", v), zap.Int("devices", len(snap.Devices)))
}

// Update applies fn to a deep copy of the current snapshot and publishes it
// unless fn fails.
func (s *Store) Update(fn func(*ents.Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.cur.Load().Clone()
	if err := fn(next); err != nil {
		return err
	}
	s.cur.Store(next)
	s.version.Add(1)
	return nil
}

// ApplyDeviceStatus records a status report for a device, both in the flat
// device list and inside the estate tree.
func (s *Store) ApplyDeviceStatus(evt messages.DeviceStatusEvent) error {
	if !evt.Status.Valid() {
		return fmt.Errorf("device %s: %w %q", evt.DeviceID, ErrInvalidStatus, evt.Status)
	}
	ts := evt.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	apply := func(d *ents.Device) {
		d.Status = evt.Status
		if evt.BatteryLevel != nil {
			b := *evt.BatteryLevel
			d.BatteryLevel = &b
		}
		d.LastSync = ts.UTC().Format(time.RFC3339)
	}

	return s.Update(func(snap *ents.Snapshot) error {
		found := false
		for i := range snap.Devices {
			if snap.Devices[i].ID == evt.DeviceID {
				apply(&snap.Devices[i])
				found = true
			}
		}
		// Device ids are unique, so an estate hint that matches nothing falls
		// back to the whole tree.
		if applyTree(snap, evt, apply, true) || applyTree(snap, evt, apply, false) {
			found = true
		}
		if !found {
			return fmt.Errorf("%w %q", ErrUnknownDevice, evt.DeviceID)
		}
		return nil
	})
}

func applyTree(snap *ents.Snapshot, evt messages.DeviceStatusEvent, apply func(*ents.Device), scoped bool) bool {
	hit := false
	for ei := range snap.Estates {
		e := &snap.Estates[ei]
		if scoped && evt.EstateID != "" && e.ID != evt.EstateID && e.Name != evt.EstateID {
			continue
		}
		for fi := range e.Farms {
			if d := e.Farms[fi].GetDevice(evt.DeviceID); d != nil {
				apply(d)
				hit = true
			}
		}
	}
	return hit
}
