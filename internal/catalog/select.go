package catalog

import (
	"errors"
	"fmt"
	"strings"

	ents "github.com/LeonardoBeccarini/farmfuture/internal/model/entities"
	"github.com/LeonardoBeccarini/farmfuture/pkg/query"
)

const (
	Devices     = "devices"
	Estates     = "estates"
	Farms       = "farms"
	Users       = "users"
	Tickets     = "tickets"
	Technicians = "technicians"
	Inventory   = "inventory"
	Reports     = "reports"
)

// Entities lists every selectable collection.
var Entities = []string{Devices, Estates, Farms, Users, Tickets, Technicians, Inventory, Reports}

var ErrUnknownEntity = errors.New("unknown entity")

// Selection is the result of filtering one collection. Items holds the
// typed slice (e.g. []entities.Device) and is never nil.
type Selection struct {
	Entity string `json:"entity"`
	Total  int    `json:"total"`
	Count  int    `json:"count"`
	Items  any    `json:"items"`
}

// Select filters the named collection of snap.
func Select(snap *ents.Snapshot, entity string, c query.Criteria) (Selection, error) {
	if snap == nil {
		snap = &ents.Snapshot{}
	}
	entity = strings.ToLower(strings.TrimSpace(entity))
	switch entity {
	case Devices:
		return selection(entity, snap.Devices, DeviceSchema, c), nil
	case Estates:
		return selection(entity, snap.Estates, EstateSchema, c), nil
	case Farms:
		return selection(entity, snap.Farms(), FarmSchema, c), nil
	case Users:
		return selection(entity, snap.Users, UserSchema, c), nil
	case Tickets:
		return selection(entity, snap.Tickets, TicketSchema, c), nil
	case Technicians:
		return selection(entity, snap.Technicians, TechnicianSchema, c), nil
	case Inventory:
		return selection(entity, snap.Inventory, InventorySchema, c), nil
	case Reports:
		return selection(entity, snap.Reports, ReportSchema, c), nil
	}
	return Selection{}, fmt.Errorf("%w %q", ErrUnknownEntity, entity)
}

func selection[T any](entity string, records []T, schema query.Schema[T], c query.Criteria) Selection {
	items := query.Filter(records, schema, c)
	return Selection{Entity: entity, Total: len(records), Count: len(items), Items: items}
}
