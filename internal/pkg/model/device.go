package model

// Device is one physical device and the sub-features it exposes.
type Device struct {
	ID       string         `yaml:"device_id"`
	Name     string         `yaml:"friendly_name"`
	Host     string         `yaml:"host"`
	Model    string         `yaml:"model,omitempty"`
	Entities []EntityConfig `yaml:"entities"`
}

// EntityConfig is the configuration record of a single sub-feature.
// ID holds a string-encoded integer that is unique within Device.Entities.
// IRHead and IRKey1 are nil when the record does not set them.
type EntityConfig struct {
	ID           string   `yaml:"id"`
	Platform     Platform `yaml:"platform"`
	FriendlyName string   `yaml:"friendly_name"`
	DeviceClass  string   `yaml:"device_class,omitempty"`
	IRHead       *string  `yaml:"ir_head,omitempty"`
	IRKey1       *string  `yaml:"ir_key1,omitempty"`
}

// Capabilities describes which optional host signals an entity supports.
type Capabilities struct {
	AvailabilitySignal bool
	StateRestore       bool
}
