package catalog

import (
	"fmt"
	"strings"

	ents "github.com/LeonardoBeccarini/farmfuture/internal/model/entities"
)

// Table flattens a selection into a header and rows for spreadsheet export.
// Missing numbers are left as empty cells.
func Table(sel Selection) ([]string, [][]any, error) {
	switch items := sel.Items.(type) {
	case []ents.Device:
		return rows(items, []string{"ID", "Name", "Type", "Status", "Battery", "Last Sync", "Estate", "Farm", "User", "Lat", "Lng"},
			func(d ents.Device) []any {
				return []any{d.ID, d.Name, d.Type, string(d.Status), cell(d.BatteryLevel), d.LastSync, d.Estate, d.Farm, d.User, d.Location.Lat, d.Location.Lng}
			})
	case []ents.Estate:
		return rows(items, []string{"ID", "Name", "Owner", "Location", "Total Area (ha)", "Established", "Status", "Farms"},
			func(e ents.Estate) []any {
				return []any{e.ID, e.Name, e.Owner, e.Location, e.TotalArea, e.EstablishedDate, string(e.Status), len(e.Farms)}
			})
	case []ents.Farm:
		return rows(items, []string{"ID", "Name", "Size (ha)", "Soil", "Crops", "Status", "Devices"},
			func(f ents.Farm) []any {
				return []any{f.ID, f.Name, f.SizeHa, f.SoilType, strings.Join(f.CropTypes, ", "), string(f.Status), len(f.Devices)}
			})
	case []ents.UserAccount:
		return rows(items, []string{"ID", "Name", "Email", "Phone", "Estate", "Farms", "Devices", "Status", "Plan", "Joined", "Last Active", "Subscription", "Expires"},
			func(u ents.UserAccount) []any {
				return []any{u.ID, u.Name, u.Email, u.Phone, u.Estate, u.FarmsCount, u.DevicesCount, string(u.Status), string(u.Plan), u.JoinDate, u.LastActive, u.Subscription.Status, u.Subscription.ExpiryDate}
			})
	case []ents.SupportTicket:
		return rows(items, []string{"ID", "Title", "User", "Device", "Estate", "Status", "Priority", "Technician", "SLA", "Category", "Created", "Updated"},
			func(t ents.SupportTicket) []any {
				return []any{t.ID, t.Title, t.User, t.Device, t.Estate, string(t.Status), string(t.Priority), t.Technician, string(t.SLAStatus), t.Category, t.Created, t.Updated}
			})
	case []ents.Technician:
		return rows(items, []string{"ID", "Name", "Status", "Open Tickets", "Completed This Week", "Location"},
			func(t ents.Technician) []any {
				return []any{t.ID, t.Name, string(t.Status), t.OpenTickets, t.CompletedThisWeek, t.Location}
			})
	case []ents.InventoryItem:
		return rows(items, []string{"ID", "Name", "Type", "In Stock", "Assigned", "Threshold", "Recent Transactions"},
			func(i ents.InventoryItem) []any {
				return []any{i.ID, i.Name, string(i.Type), cell(i.InStock), cell(i.Assigned), cell(i.Threshold), i.RecentTransactions}
			})
	case []ents.Report:
		return rows(items, []string{"ID", "Name", "Type", "Generated By", "Generated At", "Status", "Size"},
			func(r ents.Report) []any {
				return []any{r.ID, r.Name, r.Type, r.GeneratedBy, r.GeneratedAt, r.Status, r.Size}
			})
	}
	return nil, nil, fmt.Errorf("%w %q", ErrUnknownEntity, sel.Entity)
}

func rows[T any](items []T, header []string, row func(T) []any) ([]string, [][]any, error) {
	out := make([][]any, 0, len(items))
	for _, it := range items {
		out = append(out, row(it))
	}
	return header, out, nil
}

func cell(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
