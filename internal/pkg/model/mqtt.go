package model

type RegisterDevice struct {
	Name         string   `json:"name"`
	Identifiers  []string `json:"identifiers"`
	Model        string   `json:"model,omitempty"`
	Manufacturer string   `json:"manufacturer"`
}

type RegisterMessage struct {
	Tilda             string         `json:"~"`
	Name              string         `json:"name"`
	ID                string         `json:"unique_id"`
	ObjectID          string         `json:"object_id"`
	CommandTopic      string         `json:"command_topic"`
	PayloadPress      string         `json:"payload_press"`
	DeviceClass       string         `json:"device_class,omitempty"`
	AvailabilityTopic string         `json:"availability_topic,omitempty"`
	Device            RegisterDevice `json:"device"`
}
