package model

type Platform string

func (p Platform) String() string {
	return string(p)
}

const (
	PlatformButton Platform = "button"
	PlatformSwitch Platform = "switch"
	PlatformSensor Platform = "sensor"
)
