package entities

type EstateStatus string

const (
	EstateActive   EstateStatus = "active"
	EstateInactive EstateStatus = "inactive"
)

// Estate groups farms under one owner. Owner is a display name and is not
// resolved against the user accounts.
type Estate struct {
	ID              string       `json:"id" yaml:"id"`
	Name            string       `json:"name" yaml:"name"`
	Owner           string       `json:"owner" yaml:"owner"`
	Location        string       `json:"location" yaml:"location"`
	TotalArea       float64      `json:"total_area" yaml:"total_area"` // hectares
	EstablishedDate string       `json:"established_date,omitempty" yaml:"established_date,omitempty"`
	Status          EstateStatus `json:"status" yaml:"status"`
	ContactEmail    string       `json:"contact_email,omitempty" yaml:"contact_email,omitempty"`
	PhoneNumber     string       `json:"phone_number,omitempty" yaml:"phone_number,omitempty"`
	Farms           []Farm       `json:"farms" yaml:"farms"`
}

func (e Estate) clone() Estate {
	if e.Farms != nil {
		farms := make([]Farm, len(e.Farms))
		for i, f := range e.Farms {
			farms[i] = f.clone()
		}
		e.Farms = farms
	}
	return e
}
