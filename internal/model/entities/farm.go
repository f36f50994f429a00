package entities

type FarmStatus string

const (
	FarmActive      FarmStatus = "active"
	FarmInactive    FarmStatus = "inactive"
	FarmMaintenance FarmStatus = "maintenance"
)

// Farm represents a tract of land inside an estate and owns the devices
// installed on it.
type Farm struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	SizeHa      float64    `json:"size" yaml:"size"` // hectares
	SoilType    string     `json:"soil_type,omitempty" yaml:"soil_type,omitempty"`
	CropTypes   []string   `json:"crop_types,omitempty" yaml:"crop_types,omitempty"`
	Coordinates Location   `json:"coordinates" yaml:"coordinates"`
	Status      FarmStatus `json:"status" yaml:"status"`
	Devices     []Device   `json:"devices" yaml:"devices"`
}

func (f *Farm) GetDevice(deviceID string) *Device {
	for i := range f.Devices {
		if f.Devices[i].ID == deviceID {
			return &f.Devices[i]
		}
	}
	return nil
}

func (f Farm) clone() Farm {
	f.CropTypes = append([]string(nil), f.CropTypes...)
	if f.Devices != nil {
		devices := make([]Device, len(f.Devices))
		for i, d := range f.Devices {
			devices[i] = d.clone()
		}
		f.Devices = devices
	}
	return f
}
