package button

const (
	ControlMode = "send_ir"
	// PressDP is the datapoint every press is written to, whatever the button id.
	PressDP = 201
)

// Command is the payload written to PressDP for a single press. An unset
// head or key1 is sent as null.
type Command struct {
	Control string  `json:"control"`
	Head    *string `json:"head"`
	Key1    *string `json:"key1"`
	Type    int     `json:"type"`
	Delay   int     `json:"delay"`
}

func NewCommand(head, key1 *string) Command {
	return Command{
		Control: ControlMode,
		Head:    head,
		Key1:    key1,
	}
}
