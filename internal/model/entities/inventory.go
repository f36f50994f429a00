package entities

type InventoryType string

const (
	InventoryDevice InventoryType = "device"
	InventoryAddon  InventoryType = "addon"
)

// InventoryItem tracks stock of a sellable device or add-on.
// Quantities are nil when the warehouse did not report them.
type InventoryItem struct {
	ID                 string        `json:"id" yaml:"id"`
	Name               string        `json:"name" yaml:"name"`
	Type               InventoryType `json:"type" yaml:"type"`
	InStock            *int          `json:"in_stock,omitempty" yaml:"in_stock,omitempty"`
	Assigned           *int          `json:"assigned,omitempty" yaml:"assigned,omitempty"`
	Threshold          *int          `json:"threshold,omitempty" yaml:"threshold,omitempty"` // low stock when InStock <= Threshold
	RecentTransactions int           `json:"recent_transactions,omitempty" yaml:"recent_transactions,omitempty"`
}

func (i InventoryItem) clone() InventoryItem {
	i.InStock = cloneInt(i.InStock)
	i.Assigned = cloneInt(i.Assigned)
	i.Threshold = cloneInt(i.Threshold)
	return i
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
