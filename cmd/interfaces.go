package cmd

import (
	"context"

	"github.com/anicoll/localtuya-ir/internal/pkg/model"
	"github.com/anicoll/localtuya-ir/internal/pkg/mqtt"
)

// Transport is the connection to one device that cmd.run keeps alive.
type Transport interface {
	Connect(ctx context.Context) error
	SetDP(ctx context.Context, value string, dp int) error
	Disconnected() <-chan error
	Close() error
}

// TransportFactory returns the transport for a configured device.
type TransportFactory func(device model.Device) Transport

// Registry exposes buttons to Home Assistant.
type Registry interface {
	RegisterButton(device model.Device, e mqtt.Entity) error
	SubscribePress(device model.Device, e mqtt.Entity) error
}
