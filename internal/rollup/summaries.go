package rollup

import (
	ents "github.com/LeonardoBeccarini/farmfuture/internal/model/entities"
)

// StatusBreakdown splits a device population into percentages.
type StatusBreakdown struct {
	Online  int `json:"online_pct"`
	Warning int `json:"warning_pct"`
	Offline int `json:"offline_pct"`
	Idle    int `json:"idle_pct"`
}

func Breakdown(devices []ents.Device) StatusBreakdown {
	n := len(devices)
	return StatusBreakdown{
		Online:  Percentage(CountByStatus(devices, deviceStatus, ents.DeviceOnline), n),
		Warning: Percentage(CountByStatus(devices, deviceStatus, ents.DeviceWarning), n),
		Offline: Percentage(CountByStatus(devices, deviceStatus, ents.DeviceOffline), n),
		Idle:    Percentage(CountByStatus(devices, deviceStatus, ents.DeviceIdle), n),
	}
}

// Dashboard is the landing page KPI row.
type Dashboard struct {
	TotalUsers       int             `json:"total_users"`
	ActiveEstates    int             `json:"active_estates"`
	ConnectedDevices int             `json:"connected_devices"`
	OfflineDevices   int             `json:"offline_devices"`
	Status           StatusBreakdown `json:"status"`
	OpenTickets      int             `json:"open_tickets"`
}

// DashboardKPIs derives the landing page numbers from the snapshot. Users
// are counted from the user collection, devices from the device list.
func DashboardKPIs(s *ents.Snapshot) Dashboard {
	if s == nil {
		return Dashboard{}
	}
	return Dashboard{
		TotalUsers:       len(s.Users),
		ActiveEstates:    CountByStatus(s.Estates, func(e ents.Estate) ents.EstateStatus { return e.Status }, ents.EstateActive),
		ConnectedDevices: len(s.Devices),
		OfflineDevices:   CountByStatus(s.Devices, deviceStatus, ents.DeviceOffline),
		Status:           Breakdown(s.Devices),
		OpenTickets:      CountWhere(s.Tickets, ents.SupportTicket.IsOpen),
	}
}

// Estates is the estates page overview row.
type Estates struct {
	TotalEstates    int `json:"total_estates"`
	ActiveEstates   int `json:"active_estates"`
	UtilizationPct  int `json:"utilization_pct"`
	TotalFarms      int `json:"total_farms"`
	TotalDevices    int `json:"total_devices"`
	OnlineDevices   int `json:"online_devices"`
	DeviceHealthPct int `json:"device_health_pct"`
	TotalUsers      int `json:"total_users"`
}

func EstatesOverview(estates []ents.Estate, users []ents.UserAccount) Estates {
	t := RollupNested(estates)
	active := CountByStatus(estates, func(e ents.Estate) ents.EstateStatus { return e.Status }, ents.EstateActive)
	return Estates{
		TotalEstates:    len(estates),
		ActiveEstates:   active,
		UtilizationPct:  Percentage(active, len(estates)),
		TotalFarms:      t.TotalFarms,
		TotalDevices:    t.TotalDevices,
		OnlineDevices:   t.OnlineDevices,
		DeviceHealthPct: Percentage(t.OnlineDevices, t.TotalDevices),
		TotalUsers:      len(users),
	}
}

// Estate is the badge row of one estate card.
type Estate struct {
	ID              string `json:"id"`
	Farms           int    `json:"farms"`
	ActiveFarms     int    `json:"active_farms"`
	TotalDevices    int    `json:"total_devices"`
	OnlineDevices   int    `json:"online_devices"`
	DeviceHealthPct int    `json:"device_health_pct"`
}

func EstateSummary(e ents.Estate) Estate {
	t := RollupNested([]ents.Estate{e})
	return Estate{
		ID:              e.ID,
		Farms:           t.TotalFarms,
		ActiveFarms:     CountByStatus(e.Farms, func(f ents.Farm) ents.FarmStatus { return f.Status }, ents.FarmActive),
		TotalDevices:    t.TotalDevices,
		OnlineDevices:   t.OnlineDevices,
		DeviceHealthPct: Percentage(t.OnlineDevices, t.TotalDevices),
	}
}

// Devices is the device page summary.
type Devices struct {
	Total           int             `json:"total"`
	Online          int             `json:"online"`
	HealthPct       int             `json:"health_pct"`
	Status          StatusBreakdown `json:"status"`
	BatteryAvg      int             `json:"battery_avg"`
	BatteryReported int             `json:"battery_reported"`
	LowBattery      []ents.Device   `json:"low_battery"`
}

// LowBatteryLevel is the battery percentage at which a device is flagged.
const LowBatteryLevel = 20

func DeviceSummary(devices []ents.Device) Devices {
	avg, counted := BatteryAverage(devices)
	return Devices{
		Total:           len(devices),
		Online:          countOnline(devices),
		HealthPct:       DeviceHealthRatio(devices),
		Status:          Breakdown(devices),
		BatteryAvg:      avg,
		BatteryReported: counted,
		LowBattery:      LowBattery(devices, LowBatteryLevel),
	}
}

// Tickets is the support page summary. Tabs holds a count per lifecycle
// status; SLA a count per SLA standing.
type Tickets struct {
	Total      int                       `json:"total"`
	Open       int                       `json:"open"`
	Tabs       map[ents.TicketStatus]int `json:"tabs"`
	SLA        map[ents.SLAStatus]int    `json:"sla"`
	Unassigned int                       `json:"unassigned"`
}

func TicketSummary(tickets []ents.SupportTicket) Tickets {
	out := Tickets{
		Total: len(tickets),
		Open:  CountWhere(tickets, ents.SupportTicket.IsOpen),
		Tabs:  make(map[ents.TicketStatus]int, len(ents.TicketStatuses)),
		SLA:   make(map[ents.SLAStatus]int, len(ents.SLAStatuses)),
		Unassigned: CountWhere(tickets, func(t ents.SupportTicket) bool {
			return t.IsOpen() && t.Technician == ""
		}),
	}
	for _, s := range ents.TicketStatuses {
		out.Tabs[s] = CountByStatus(tickets, func(t ents.SupportTicket) ents.TicketStatus { return t.Status }, s)
	}
	for _, s := range ents.SLAStatuses {
		out.SLA[s] = CountByStatus(tickets, func(t ents.SupportTicket) ents.SLAStatus { return t.SLAStatus }, s)
	}
	return out
}

type Users struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Premium int `json:"premium"`
	// ActivePct replaces the hard-coded active rate of the old page.
	ActivePct int `json:"active_pct"`
}

func UserSummary(users []ents.UserAccount) Users {
	active := CountByStatus(users, func(u ents.UserAccount) ents.UserStatus { return u.Status }, ents.UserActive)
	return Users{
		Total:     len(users),
		Active:    active,
		Premium:   CountWhere(users, ents.UserAccount.IsPremium),
		ActivePct: Percentage(active, len(users)),
	}
}

type Technicians struct {
	Total             int `json:"total"`
	Active            int `json:"active"`
	OpenTickets       int `json:"open_tickets"`
	CompletedThisWeek int `json:"completed_this_week"`
}

func TechnicianSummary(techs []ents.Technician) Technicians {
	return Technicians{
		Total:  len(techs),
		Active: CountByStatus(techs, func(t ents.Technician) ents.TechnicianStatus { return t.Status }, ents.TechnicianActive),
		OpenTickets: SumInts(techs, func(t ents.Technician) (int, bool) {
			return t.OpenTickets, true
		}),
		CompletedThisWeek: SumInts(techs, func(t ents.Technician) (int, bool) {
			return t.CompletedThisWeek, true
		}),
	}
}

type Inventory struct {
	Items         int                  `json:"items"`
	TotalInStock  int                  `json:"total_in_stock"`
	TotalAssigned int                  `json:"total_assigned"`
	LowStock      []ents.InventoryItem `json:"low_stock"`
}

func InventorySummary(items []ents.InventoryItem) Inventory {
	return Inventory{
		Items:         len(items),
		TotalInStock:  SumInts(items, func(i ents.InventoryItem) (int, bool) { return deref(i.InStock) }),
		TotalAssigned: SumInts(items, func(i ents.InventoryItem) (int, bool) { return deref(i.Assigned) }),
		LowStock:      LowStock(items),
	}
}

func deref(p *int) (int, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}
