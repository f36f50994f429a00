package entities

// Report is a generated analytics document listed on the reports page.
type Report struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"` // e.g. "Device Analytics"
	GeneratedBy string `json:"generated_by" yaml:"generated_by"`
	GeneratedAt string `json:"generated_at" yaml:"generated_at"`
	Status      string `json:"status" yaml:"status"` // completed | processing | failed
	Size        string `json:"size,omitempty" yaml:"size,omitempty"`
}
