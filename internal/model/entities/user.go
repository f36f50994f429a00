package entities

type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserInactive  UserStatus = "inactive"
	UserSuspended UserStatus = "suspended"
)

type Plan string

const (
	PlanBasic      Plan = "basic"
	PlanPremium    Plan = "premium"
	PlanEnterprise Plan = "enterprise"
)

type Subscription struct {
	Status     string `json:"status" yaml:"status"` // active | expired | trial
	ExpiryDate string `json:"expiry_date" yaml:"expiry_date"`
}

// UserAccount is a customer account. FarmsCount and DevicesCount are
// stored counters, not derived from the estate tree.
type UserAccount struct {
	ID           string       `json:"id" yaml:"id"`
	Name         string       `json:"name" yaml:"name"`
	Email        string       `json:"email" yaml:"email"`
	Phone        string       `json:"phone,omitempty" yaml:"phone,omitempty"`
	Estate       string       `json:"estate,omitempty" yaml:"estate,omitempty"`
	FarmsCount   int          `json:"farms_count" yaml:"farms_count"`
	DevicesCount int          `json:"devices_count" yaml:"devices_count"`
	Status       UserStatus   `json:"status" yaml:"status"`
	Plan         Plan         `json:"plan" yaml:"plan"`
	JoinDate     string       `json:"join_date,omitempty" yaml:"join_date,omitempty"`
	LastActive   string       `json:"last_active,omitempty" yaml:"last_active,omitempty"`
	Subscription Subscription `json:"subscription" yaml:"subscription"`
}

// IsPremium is true for the paid tiers above basic.
func (u UserAccount) IsPremium() bool {
	return u.Plan == PlanPremium || u.Plan == PlanEnterprise
}
