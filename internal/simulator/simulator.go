// Package simulator publishes synthetic device status reports for the
// devices of a snapshot, for demos and for exercising the ingest path
// without field hardware.
package simulator

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	ents "github.com/LeonardoBeccarini/farmfuture/internal/model/entities"
	"github.com/LeonardoBeccarini/farmfuture/internal/model/messages"
	"github.com/LeonardoBeccarini/farmfuture/pkg/rabbitmq"
)

// Tunables, per step.
const (
	maxDrain         = 2    // battery points lost per step while reporting
	lowBattery       = 15   // at or below this a device reports warning
	dropoutChance    = 0.03 // online device loses signal
	reconnectChance  = 0.3  // offline device comes back (battery swapped)
	wakeChance       = 0.1  // idle device starts reporting
	unassignedEstate = "unassigned"
)

type device struct {
	estateID string
	id       string
	status   ents.DeviceStatus
	battery  *int
}

type Simulator struct {
	pub      rabbitmq.IPublisher
	interval time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	rng     *rand.Rand
	devices []*device
}

// New builds one simulated device per device of snap. Devices found in the
// estate tree publish under their estate id; the rest under "unassigned".
func New(snap *ents.Snapshot, pub rabbitmq.IPublisher, interval time.Duration, seed int64, log *zap.Logger) *Simulator {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	s := &Simulator{pub: pub, interval: interval, log: log, rng: rand.New(rand.NewSource(seed))}

	seen := map[string]bool{}
	for _, e := range snap.Estates {
		for _, f := range e.Farms {
			for _, d := range f.Devices {
				if !seen[d.ID] {
					seen[d.ID] = true
					s.devices = append(s.devices, newDevice(e.ID, d))
				}
			}
		}
	}
	for _, d := range snap.Devices {
		if !seen[d.ID] {
			seen[d.ID] = true
			s.devices = append(s.devices, newDevice(unassignedEstate, d))
		}
	}
	return s
}

func newDevice(estateID string, d ents.Device) *device {
	out := &device{estateID: estateID, id: d.ID, status: d.Status}
	if b, ok := d.Battery(); ok {
		out.battery = &b
	}
	return out
}

// Step advances every device once and returns the reports to publish.
func (s *Simulator) Step(now time.Time) []messages.DeviceStatusEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]messages.DeviceStatusEvent, 0, len(s.devices))
	for _, d := range s.devices {
		s.advance(d)
		evt := messages.DeviceStatusEvent{
			EstateID:  d.estateID,
			DeviceID:  d.id,
			Status:    d.status,
			Timestamp: now.UTC(),
		}
		if d.battery != nil {
			b := *d.battery
			evt.BatteryLevel = &b
		}
		out = append(out, evt)
	}
	return out
}

func (s *Simulator) advance(d *device) {
	switch d.status {
	case ents.DeviceIdle:
		if s.rng.Float64() < wakeChance {
			d.status = ents.DeviceOnline
		}
		return
	case ents.DeviceOffline:
		if s.rng.Float64() < reconnectChance {
			d.status = ents.DeviceOnline
			if d.battery != nil {
				*d.battery = 100
			}
		}
		return
	}

	if s.rng.Float64() < dropoutChance {
		d.status = ents.DeviceOffline
		return
	}
	if d.battery == nil {
		d.status = ents.DeviceOnline
		return
	}
	*d.battery -= s.rng.Intn(maxDrain + 1)
	switch {
	case *d.battery <= 0:
		*d.battery = 0
		d.status = ents.DeviceOffline
	case *d.battery <= lowBattery:
		d.status = ents.DeviceWarning
	default:
		d.status = ents.DeviceOnline
	}
}

// Topic is where a report for the device is published.
func Topic(evt messages.DeviceStatusEvent) string {
	return "device/status/" + evt.EstateID + "/" + evt.DeviceID
}

// Run publishes one round immediately and then every interval until ctx is
// done. Publish failures are logged and the round continues.
func (s *Simulator) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		sent := 0
		for _, evt := range s.Step(time.Now()) {
			if err := s.pub.PublishJSON(Topic(evt), evt); err != nil {
				s.log.Warn("publish failed", zap.String("device_id", evt.DeviceID), zap.Error(err))
				continue
			}
			sent++
		}
		s.log.Debug("simulated round", zap.Int("sent", sent))
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
