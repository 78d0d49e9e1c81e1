package tuya

// SetDPRequest writes datapoint values on a device.
type SetDPRequest struct {
	DeviceID string         `json:"devId"`
	Time     int64          `json:"t"`
	DPS      map[string]any `json:"dps"`
}
