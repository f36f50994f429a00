package entities

// Snapshot is one consistent view of every collection the dashboard reads.
// Values handed out by the catalog are shared and must be treated as
// read-only; use Clone before changing anything.
type Snapshot struct {
	Estates     []Estate        `json:"estates" yaml:"estates"`
	Devices     []Device        `json:"devices" yaml:"devices"`
	Users       []UserAccount   `json:"users" yaml:"users"`
	Tickets     []SupportTicket `json:"tickets" yaml:"tickets"`
	Technicians []Technician    `json:"technicians" yaml:"technicians"`
	Inventory   []InventoryItem `json:"inventory" yaml:"inventory"`
	Reports     []Report        `json:"reports" yaml:"reports"`
}

// Farms flattens the estate tree, keeping estate then farm order.
func (s *Snapshot) Farms() []Farm {
	if s == nil {
		return []Farm{}
	}
	out := make([]Farm, 0)
	for _, e := range s.Estates {
		out = append(out, e.Farms...)
	}
	return out
}

// Clone returns a deep copy of s.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return &Snapshot{}
	}
	out := &Snapshot{
		Users:       append([]UserAccount(nil), s.Users...),
		Tickets:     append([]SupportTicket(nil), s.Tickets...),
		Technicians: append([]Technician(nil), s.Technicians...),
		Reports:     append([]Report(nil), s.Reports...),
	}
	if s.Estates != nil {
		out.Estates = make([]Estate, len(s.Estates))
		for i, e := range s.Estates {
			out.Estates[i] = e.clone()
		}
	}
	if s.Devices != nil {
		out.Devices = make([]Device, len(s.Devices))
		for i, d := range s.Devices {
			out.Devices[i] = d.clone()
		}
	}
	if s.Inventory != nil {
		out.Inventory = make([]InventoryItem, len(s.Inventory))
		for i, it := range s.Inventory {
			out.Inventory[i] = it.clone()
		}
	}
	return out
}
