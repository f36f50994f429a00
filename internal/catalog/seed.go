package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	ents "github.com/LeonardoBeccarini/farmfuture/internal/model/entities"
)

//go:embed seed/default.yaml
var defaultSeed []byte

var (
	ErrDuplicateID   = errors.New("duplicate id")
	ErrMissingID     = errors.New("missing id")
	ErrInvalidStatus = errors.New("invalid device status")
)

// DefaultSeed returns the embedded demo snapshot.
func DefaultSeed() (*ents.Snapshot, error) {
	return ParseSeed(defaultSeed)
}

// LoadSeed reads a YAML snapshot from path.
func LoadSeed(path string) (*ents.Snapshot, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	s, err := ParseSeed(b)
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", path, err)
	}
	return s, nil
}

// ParseSeed decodes and validates a YAML snapshot. Unknown keys are errors.
func ParseSeed(b []byte) (*ents.Snapshot, error) {
	var s ents.Snapshot
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := Validate(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that ids are present and unique within each collection
// and that device statuses are known.
func Validate(s *ents.Snapshot) error {
	estates := newIDSet("estates")
	farms := newIDSet("farms")
	for _, e := range s.Estates {
		if err := estates.add(e.ID); err != nil {
			return err
		}
		for _, f := range e.Farms {
			if err := farms.add(f.ID); err != nil {
				return err
			}
			inFarm := newIDSet("farm " + f.ID + " devices")
			for _, d := range f.Devices {
				if err := inFarm.add(d.ID); err != nil {
					return err
				}
				if !d.Status.Valid() {
					return fmt.Errorf("device %s: %w %q", d.ID, ErrInvalidStatus, d.Status)
				}
			}
		}
	}

	devices := newIDSet("devices")
	for _, d := range s.Devices {
		if err := devices.add(d.ID); err != nil {
			return err
		}
		if !d.Status.Valid() {
			return fmt.Errorf("device %s: %w %q", d.ID, ErrInvalidStatus, d.Status)
		}
	}

	checks := []struct {
		set *idSet
		ids []string
	}{
		{newIDSet("users"), ids(s.Users, func(u ents.UserAccount) string { return u.ID })},
		{newIDSet("tickets"), ids(s.Tickets, func(t ents.SupportTicket) string { return t.ID })},
		{newIDSet("technicians"), ids(s.Technicians, func(t ents.Technician) string { return t.ID })},
		{newIDSet("inventory"), ids(s.Inventory, func(i ents.InventoryItem) string { return i.ID })},
		{newIDSet("reports"), ids(s.Reports, func(r ents.Report) string { return r.ID })},
	}
	for _, c := range checks {
		for _, id := range c.ids {
			if err := c.set.add(id); err != nil {
				return err
			}
		}
	}
	return nil
}

type idSet struct {
	name string
	seen map[string]struct{}
}

func newIDSet(name string) *idSet {
	return &idSet{name: name, seen: map[string]struct{}{}}
}

func (s *idSet) add(id string) error {
	if id == "" {
		return fmt.Errorf("%s: %w", s.name, ErrMissingID)
	}
	if _, dup := s.seen[id]; dup {
		return fmt.Errorf("%s: %w %q", s.name, ErrDuplicateID, id)
	}
	s.seen[id] = struct{}{}
	return nil
}

func ids[T any](records []T, id func(T) string) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = id(r)
	}
	return out
}
