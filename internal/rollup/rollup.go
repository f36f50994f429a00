// Package rollup derives the numbers shown on KPI cards and badges from
// entity collections. Every function is pure and total: missing optional
// values are skipped and empty input yields zero values.
package rollup

import (
	"math"

	ents "github.com/LeonardoBeccarini/farmfuture/internal/model/entities"
)

// Percentage returns round(num/den*100), or 0 when den is not positive.
func Percentage(num, den int) int {
	if den <= 0 {
		return 0
	}
	return int(math.Round(float64(num) / float64(den) * 100))
}

// CountWhere counts the records satisfying pred.
func CountWhere[T any](records []T, pred func(T) bool) int {
	n := 0
	for _, r := range records {
		if pred(r) {
			n++
		}
	}
	return n
}

// CountByStatus counts records whose field equals value.
func CountByStatus[T any, S ~string](records []T, field func(T) S, value S) int {
	return CountWhere(records, func(r T) bool { return field(r) == value })
}

// SumInts adds up field over records, skipping records where it is absent.
func SumInts[T any](records []T, field func(T) (int, bool)) int {
	sum := 0
	for _, r := range records {
		if v, ok := field(r); ok {
			sum += v
		}
	}
	return sum
}

// Totals is the Estate -> Farm -> Device rollup.
type Totals struct {
	TotalFarms    int `json:"total_farms"`
	TotalDevices  int `json:"total_devices"`
	OnlineDevices int `json:"online_devices"`
}

// RollupNested sums farms and devices across estates. Each device is
// counted once, under the farm that owns it.
func RollupNested(estates []ents.Estate) Totals {
	var t Totals
	for _, e := range estates {
		t.TotalFarms += len(e.Farms)
		for _, f := range e.Farms {
			t.TotalDevices += len(f.Devices)
			t.OnlineDevices += countOnline(f.Devices)
		}
	}
	return t
}

// DeviceHealthRatio is the percentage of devices that are online.
func DeviceHealthRatio(devices []ents.Device) int {
	return Percentage(countOnline(devices), len(devices))
}

// FarmHealth is the device health percentage of a single farm.
func FarmHealth(f ents.Farm) int {
	return DeviceHealthRatio(f.Devices)
}

func countOnline(devices []ents.Device) int {
	return CountByStatus(devices, deviceStatus, ents.DeviceOnline)
}

func deviceStatus(d ents.Device) ents.DeviceStatus { return d.Status }

// LowStock returns the items at or below their threshold. Items without a
// stock level or threshold are left out.
func LowStock(items []ents.InventoryItem) []ents.InventoryItem {
	out := make([]ents.InventoryItem, 0)
	for _, it := range items {
		if it.InStock == nil || it.Threshold == nil {
			continue
		}
		if *it.InStock <= *it.Threshold {
			out = append(out, it)
		}
	}
	return out
}

// BatteryAverage is the rounded mean battery level over the devices that
// report one, together with how many did.
func BatteryAverage(devices []ents.Device) (avg int, counted int) {
	sum := SumInts(devices, ents.Device.Battery)
	counted = CountWhere(devices, func(d ents.Device) bool { return d.BatteryLevel != nil })
	if counted == 0 {
		return 0, 0
	}
	return int(math.Round(float64(sum) / float64(counted))), counted
}

// LowBattery returns devices reporting a battery level at or below limit.
func LowBattery(devices []ents.Device, limit int) []ents.Device {
	out := make([]ents.Device, 0)
	for _, d := range devices {
		if b, ok := d.Battery(); ok && b <= limit {
			out = append(out, d)
		}
	}
	return out
}
