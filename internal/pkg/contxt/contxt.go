package contxt

import (
	"context"
	"time"
)

// NewContext bounds work started from callbacks that have no caller context,
// such as MQTT message handlers.
func NewContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), timeout)
}
