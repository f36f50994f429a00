package messages

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/LeonardoBeccarini/farmfuture/internal/model/entities"
)

// DeviceStatusEvent is published by a device gateway whenever a device
// reports in or changes state.
type DeviceStatusEvent struct {
	EstateID     string                `json:"estate_id,omitempty"`
	DeviceID     string                `json:"device_id"`
	Status       entities.DeviceStatus `json:"status"`
	BatteryLevel *int                  `json:"battery_level,omitempty"`
	Timestamp    time.Time             `json:"timestamp"`
}

// UnmarshalJSON accepts the field names and loosely typed values emitted
// by older gateway firmware: "id"/"device", "battery" as number or string,
// "time" instead of "timestamp".
func (e *DeviceStatusEvent) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*e = DeviceStatusEvent{}

	e.EstateID = firstString(m, "estate_id", "estate")
	e.DeviceID = firstString(m, "device_id", "id", "device")
	e.Status = entities.DeviceStatus(strings.ToLower(firstString(m, "status", "state")))

	for _, k := range []string{"battery_level", "battery"} {
		if f, ok := number(m[k]); ok {
			lvl := clampPct(f)
			e.BatteryLevel = &lvl
			break
		}
	}

	for _, k := range []string{"timestamp", "time"} {
		if s, ok := m[k].(string); ok && s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				e.Timestamp = t
				break
			}
		}
	}
	return nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// number accepts a JSON number or a numeric string. NaN is not a number.
func number(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// clampPct bounds f to 0..100 before rounding so huge values never overflow int.
func clampPct(f float64) int {
	return int(math.Round(math.Max(0, math.Min(100, f))))
}
