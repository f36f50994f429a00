package catalog

import (
	ents "github.com/LeonardoBeccarini/farmfuture/internal/model/entities"
	"github.com/LeonardoBeccarini/farmfuture/pkg/query"
)

func str[T any, S ~string](get func(T) S) query.Field[T] {
	return query.String(func(rec T) string { return string(get(rec)) })
}

func opt[T any, S ~string](get func(T) S) query.Field[T] {
	return query.NonEmpty(func(rec T) string { return string(get(rec)) })
}

var DeviceSchema = query.Schema[ents.Device]{
	Searchable: []query.Field[ents.Device]{
		str(func(d ents.Device) string { return d.ID }),
		str(func(d ents.Device) string { return d.Name }),
		opt(func(d ents.Device) string { return d.Estate }),
		opt(func(d ents.Device) string { return d.Farm }),
		opt(func(d ents.Device) string { return d.User }),
	},
	Facets: map[string]query.Facet[ents.Device]{
		"status": {Field: str(func(d ents.Device) ents.DeviceStatus { return d.Status })},
		"type":   {Field: opt(func(d ents.Device) string { return d.Type })},
		"estate": {Field: opt(func(d ents.Device) string { return d.Estate })},
		"farm":   {Field: opt(func(d ents.Device) string { return d.Farm })},
	},
}

var EstateSchema = query.Schema[ents.Estate]{
	Searchable: []query.Field[ents.Estate]{
		str(func(e ents.Estate) string { return e.Name }),
		opt(func(e ents.Estate) string { return e.Owner }),
		opt(func(e ents.Estate) string { return e.Location }),
	},
	Facets: map[string]query.Facet[ents.Estate]{
		"status": {Field: str(func(e ents.Estate) ents.EstateStatus { return e.Status })},
	},
}

var FarmSchema = query.Schema[ents.Farm]{
	Searchable: []query.Field[ents.Farm]{
		str(func(f ents.Farm) string { return f.ID }),
		str(func(f ents.Farm) string { return f.Name }),
		opt(func(f ents.Farm) string { return f.SoilType }),
	},
	Facets: map[string]query.Facet[ents.Farm]{
		"status": {Field: str(func(f ents.Farm) ents.FarmStatus { return f.Status })},
	},
}

var UserSchema = query.Schema[ents.UserAccount]{
	Searchable: []query.Field[ents.UserAccount]{
		str(func(u ents.UserAccount) string { return u.Name }),
		opt(func(u ents.UserAccount) string { return u.Email }),
		opt(func(u ents.UserAccount) string { return u.Estate }),
	},
	Facets: map[string]query.Facet[ents.UserAccount]{
		"status": {Field: str(func(u ents.UserAccount) ents.UserStatus { return u.Status })},
		"plan":   {Field: str(func(u ents.UserAccount) ents.Plan { return u.Plan })},
	},
}

// The tickets view has both a status dropdown and status tabs; both
// constrain the same field.
var TicketSchema = query.Schema[ents.SupportTicket]{
	Searchable: []query.Field[ents.SupportTicket]{
		str(func(t ents.SupportTicket) string { return t.Title }),
		str(func(t ents.SupportTicket) string { return t.ID }),
		opt(func(t ents.SupportTicket) string { return t.User }),
	},
	Facets: map[string]query.Facet[ents.SupportTicket]{
		"status":     {Field: str(func(t ents.SupportTicket) ents.TicketStatus { return t.Status })},
		"tab":        {Field: str(func(t ents.SupportTicket) ents.TicketStatus { return t.Status })},
		"priority":   {Field: str(func(t ents.SupportTicket) ents.Priority { return t.Priority })},
		"sla_status": {Field: opt(func(t ents.SupportTicket) ents.SLAStatus { return t.SLAStatus })},
		"category":   {Field: opt(func(t ents.SupportTicket) string { return t.Category })},
	},
}

var TechnicianSchema = query.Schema[ents.Technician]{
	Searchable: []query.Field[ents.Technician]{
		str(func(t ents.Technician) string { return t.ID }),
		str(func(t ents.Technician) string { return t.Name }),
		opt(func(t ents.Technician) string { return t.Location }),
	},
	Facets: map[string]query.Facet[ents.Technician]{
		"status": {Field: str(func(t ents.Technician) ents.TechnicianStatus { return t.Status })},
	},
}

var InventorySchema = query.Schema[ents.InventoryItem]{
	Searchable: []query.Field[ents.InventoryItem]{
		str(func(i ents.InventoryItem) string { return i.ID }),
		str(func(i ents.InventoryItem) string { return i.Name }),
	},
	Facets: map[string]query.Facet[ents.InventoryItem]{
		"type": {Field: str(func(i ents.InventoryItem) ents.InventoryType { return i.Type })},
	},
}

// Report types are matched loosely: "device" selects "Device Analytics".
var ReportSchema = query.Schema[ents.Report]{
	Searchable: []query.Field[ents.Report]{
		str(func(r ents.Report) string { return r.Name }),
		str(func(r ents.Report) string { return r.Type }),
	},
	Facets: map[string]query.Facet[ents.Report]{
		"type":   {Field: opt(func(r ents.Report) string { return r.Type }), Mode: query.Contains},
		"status": {Field: opt(func(r ents.Report) string { return r.Status })},
	},
}
