package entities

type TicketStatus string

const (
	TicketNew        TicketStatus = "new"
	TicketAssigned   TicketStatus = "assigned"
	TicketInProgress TicketStatus = "in_progress"
	TicketCompleted  TicketStatus = "completed"
	TicketClosed     TicketStatus = "closed"
)

// TicketStatuses lists the lifecycle in order.
var TicketStatuses = []TicketStatus{TicketNew, TicketAssigned, TicketInProgress, TicketCompleted, TicketClosed}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

type SLAStatus string

const (
	SLAOnTime  SLAStatus = "on_time"
	SLAAtRisk  SLAStatus = "at_risk"
	SLAOverdue SLAStatus = "overdue"
)

var SLAStatuses = []SLAStatus{SLAOnTime, SLAAtRisk, SLAOverdue}

type SupportTicket struct {
	ID          string       `json:"id" yaml:"id"`
	Title       string       `json:"title" yaml:"title"`
	User        string       `json:"user" yaml:"user"`
	Device      string       `json:"device" yaml:"device"`
	Estate      string       `json:"estate" yaml:"estate"`
	Status      TicketStatus `json:"status" yaml:"status"`
	Priority    Priority     `json:"priority" yaml:"priority"`
	Technician  string       `json:"technician,omitempty" yaml:"technician,omitempty"` // empty while unassigned
	SLAStatus   SLAStatus    `json:"sla_status" yaml:"sla_status"`
	Category    string       `json:"category,omitempty" yaml:"category,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Created     string       `json:"created" yaml:"created"`
	Updated     string       `json:"updated,omitempty" yaml:"updated,omitempty"`
}

// IsOpen is true until the ticket is completed or closed.
func (t SupportTicket) IsOpen() bool {
	return t.Status != TicketCompleted && t.Status != TicketClosed
}

type TechnicianStatus string

const (
	TechnicianActive  TechnicianStatus = "active"
	TechnicianBreak   TechnicianStatus = "break"
	TechnicianOffline TechnicianStatus = "offline"
)

type Technician struct {
	ID                string           `json:"id" yaml:"id"`
	Name              string           `json:"name" yaml:"name"`
	Status            TechnicianStatus `json:"status" yaml:"status"`
	OpenTickets       int              `json:"open_tickets" yaml:"open_tickets"`
	CompletedThisWeek int              `json:"completed_this_week" yaml:"completed_this_week"`
	Location          string           `json:"location,omitempty" yaml:"location,omitempty"`
}
