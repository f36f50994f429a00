package entities

// DeviceStatus is the connectivity state reported for a device.
type DeviceStatus string

const (
	DeviceOnline  DeviceStatus = "online"
	DeviceWarning DeviceStatus = "warning"
	DeviceOffline DeviceStatus = "offline"
	DeviceIdle    DeviceStatus = "idle"
)

// Valid reports whether s is one of the known device states.
func (s DeviceStatus) Valid() bool {
	switch s {
	case DeviceOnline, DeviceWarning, DeviceOffline, DeviceIdle:
		return true
	}
	return false
}

type Location struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Device is a field sensor (NPK sensor, weather station, ...).
// Estate, Farm and User are display references, not ids.
type Device struct {
	ID           string       `json:"id" yaml:"id"`
	Name         string       `json:"name" yaml:"name"`
	Type         string       `json:"type,omitempty" yaml:"type,omitempty"` // e.g. "NPK Sensor", "Weather Station"
	Status       DeviceStatus `json:"status" yaml:"status"`
	BatteryLevel *int         `json:"battery_level,omitempty" yaml:"battery_level,omitempty"` // 0..100, nil when not reported
	LastSync     string       `json:"last_sync,omitempty" yaml:"last_sync,omitempty"`
	Location     Location     `json:"location" yaml:"location"`
	Estate       string       `json:"estate,omitempty" yaml:"estate,omitempty"`
	Farm         string       `json:"farm,omitempty" yaml:"farm,omitempty"`
	User         string       `json:"user,omitempty" yaml:"user,omitempty"`
}

// Battery returns the battery level and whether it was reported.
func (d Device) Battery() (int, bool) {
	if d.BatteryLevel == nil {
		return 0, false
	}
	return *d.BatteryLevel, true
}

func (d Device) clone() Device {
	if d.BatteryLevel != nil {
		b := *d.BatteryLevel
		d.BatteryLevel = &b
	}
	return d
}
