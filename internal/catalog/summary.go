package catalog

import (
	"errors"
	"fmt"
	"strings"

	ents "github.com/LeonardoBeccarini/farmfuture/internal/model/entities"
	"github.com/LeonardoBeccarini/farmfuture/internal/rollup"
	"github.com/LeonardoBeccarini/farmfuture/pkg/query"
)

// Dashboard is the pseudo-entity of the landing page KPIs.
const Dashboard = "dashboard"

var ErrNoSummary = errors.New("no summary for entity")

// FarmRow is one farm card of the estates page.
type FarmRow struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Status    ents.FarmStatus `json:"status"`
	Devices   int             `json:"devices"`
	Online    int             `json:"online"`
	HealthPct int             `json:"health_pct"`
}

// EstatesRollup is the estates page header plus one badge row per card.
type EstatesRollup struct {
	rollup.Estates
	Cards []rollup.Estate `json:"estates"`
}

// Summarize computes the rollup of one collection. When filtered is set the
// collection is narrowed by c first; otherwise c is ignored.
func Summarize(snap *ents.Snapshot, entity string, c query.Criteria, filtered bool) (any, error) {
	if snap == nil {
		snap = &ents.Snapshot{}
	}
	entity = strings.ToLower(strings.TrimSpace(entity))
	if entity == Dashboard {
		return rollup.DashboardKPIs(snap), nil
	}
	if !filtered {
		c = query.Criteria{}
	}
	sel, err := Select(snap, entity, c)
	if err != nil {
		return nil, err
	}

	switch items := sel.Items.(type) {
	case []ents.Device:
		return rollup.DeviceSummary(items), nil
	case []ents.Estate:
		out := EstatesRollup{
			Estates: rollup.EstatesOverview(items, snap.Users),
			Cards:   make([]rollup.Estate, 0, len(items)),
		}
		for _, e := range items {
			out.Cards = append(out.Cards, rollup.EstateSummary(e))
		}
		return out, nil
	case []ents.Farm:
		rows := make([]FarmRow, 0, len(items))
		for _, f := range items {
			rows = append(rows, FarmRow{
				ID:      f.ID,
				Name:    f.Name,
				Status:  f.Status,
				Devices: len(f.Devices),
				Online: rollup.CountByStatus(f.Devices, func(d ents.Device) ents.DeviceStatus {
					return d.Status
				}, ents.DeviceOnline),
				HealthPct: rollup.FarmHealth(f),
			})
		}
		return rows, nil
	case []ents.UserAccount:
		return rollup.UserSummary(items), nil
	case []ents.SupportTicket:
		return rollup.TicketSummary(items), nil
	case []ents.Technician:
		return rollup.TechnicianSummary(items), nil
	case []ents.InventoryItem:
		return rollup.InventorySummary(items), nil
	}
	return nil, fmt.Errorf("%w %q", ErrNoSummary, entity)
}
