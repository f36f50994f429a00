package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/LeonardoBeccarini/farmfuture/internal/rollup"
)

var ErrNoHistory = errors.New("device history not configured")

const (
	DefaultMonths = 6
	MaxMonths     = 24
)

// PerformancePoint is one month of the device performance chart.
type PerformancePoint struct {
	Month   string `json:"month"` // 2006-01
	Online  int    `json:"online"`
	Warning int    `json:"warning"`
	Offline int    `json:"offline"`
	Reports int    `json:"reports"`
}

type History struct {
	query   api.QueryAPI
	bucket  string
	timeout time.Duration
}

func NewHistory(q api.QueryAPI, bucket string, timeout time.Duration) *History {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &History{query: q, bucket: bucket, timeout: timeout}
}

// DevicePerformance returns the share of online, warning and offline
// reports per month, oldest first. months is clamped to 1..MaxMonths.
func (h *History) DevicePerformance(ctx context.Context, months int) ([]PerformancePoint, error) {
	if h == nil || h.query == nil {
		return nil, ErrNoHistory
	}
	months = clampMonths(months)

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	res, err := h.query.Query(ctx, buildFlux(h.bucket, months))
	if err != nil {
		return nil, fmt.Errorf("influx query: %w", err)
	}
	defer res.Close()

	var rows []sample
	for res.Next() {
		rec := res.Record()
		rows = append(rows, sample{Time: rec.Time(), Field: rec.Field(), Value: toInt(rec.Value())})
	}
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("influx iterate: %w", err)
	}
	return aggregatePerformance(rows), nil
}

func clampMonths(m int) int {
	switch {
	case m <= 0:
		return DefaultMonths
	case m > MaxMonths:
		return MaxMonths
	}
	return m
}

func buildFlux(bucket string, months int) string {
	return fmt.Sprintf(`
from(bucket: %q)
  |> range(start: -%dmo)
  |> filter(fn: (r) => r._measurement == %q)
  |> filter(fn: (r) => r._field == "online" or r._field == "warning" or r._field == "offline" or r._field == "idle")
  |> aggregateWindow(every: 1mo, fn: sum, createEmpty: false, timeSrc: "_start")
  |> keep(columns: ["_time","_field","_value"])
`, bucket, months, Measurement)
}

type sample struct {
	Time  time.Time
	Field string
	Value int64
}

// aggregatePerformance sums per-series windows into one row per month.
// Idle reports count towards the total but have no column of their own.
func aggregatePerformance(rows []sample) []PerformancePoint {
	type counts struct{ online, warning, offline, total int64 }
	byMonth := map[string]*counts{}
	for _, r := range rows {
		switch r.Field {
		case "online", "warning", "offline", "idle":
		default:
			continue
		}
		key := r.Time.UTC().Format("2006-01")
		c := byMonth[key]
		if c == nil {
			c = &counts{}
			byMonth[key] = c
		}
		switch r.Field {
		case "online":
			c.online += r.Value
		case "warning":
			c.warning += r.Value
		case "offline":
			c.offline += r.Value
		}
		c.total += r.Value
	}

	months := make([]string, 0, len(byMonth))
	for k := range byMonth {
		months = append(months, k)
	}
	sort.Strings(months)

	out := make([]PerformancePoint, 0, len(months))
	for _, m := range months {
		c := byMonth[m]
		total := int(c.total)
		out = append(out, PerformancePoint{
			Month:   m,
			Online:  rollup.Percentage(int(c.online), total),
			Warning: rollup.Percentage(int(c.warning), total),
			Offline: rollup.Percentage(int(c.offline), total),
			Reports: total,
		})
	}
	return out
}

func toInt(v interface{}) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case uint64:
		return int64(x)
	case float64:
		return int64(x)
	case int:
		return int64(x)
	}
	return 0
}
