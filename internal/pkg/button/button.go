package button

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/anicoll/localtuya-ir/internal/pkg/dps"
	"github.com/anicoll/localtuya-ir/internal/pkg/model"
)

type device interface {
	SetDP(ctx context.Context, value string, dp int) error
}

type allocator interface {
	Resolve(candidate string) (dps.ID, error)
	Entity(id dps.ID) (model.EntityConfig, bool)
}

// Button is a momentary IR button of a device.
type Button struct {
	device   device
	deviceID string
	id       dps.ID
	cfg      model.EntityConfig
	logger   *zap.Logger
}

// New builds the button configured under id, allocating a final id first
// when id is a placeholder.
func New(dev device, deviceID string, alloc allocator, id string) (*Button, error) {
	resolved, err := alloc.Resolve(id)
	if err != nil {
		return nil, err
	}
	cfg, ok := alloc.Entity(resolved)
	if !ok {
		return nil, fmt.Errorf("%w: no entity with id %s", dps.ErrConfiguration, resolved)
	}

	b := &Button{
		device:   dev,
		deviceID: deviceID,
		id:       resolved,
		cfg:      cfg,
		logger:   zap.L().With(zap.String("device_id", deviceID), zap.String("entity_id", resolved.String())),
	}
	b.logger.Debug("initialised ir button", zap.String("name", b.Name()))
	return b, nil
}

// Press sends the button's IR code. Transport errors are returned unchanged.
func (b *Button) Press(ctx context.Context) error {
	data, err := json.Marshal(NewCommand(b.cfg.IRHead, b.cfg.IRKey1))
	if err != nil {
		return err
	}
	b.logger.Debug("pressing button", zap.Int("dp", PressDP))
	return b.device.SetDP(ctx, string(data), PressDP)
}

// Available is always true; the device connection state is not tracked.
func (b *Button) Available() bool {
	return true
}

func (b *Button) Capabilities() model.Capabilities {
	return model.Capabilities{
		AvailabilitySignal: false,
		StateRestore:       false,
	}
}

// RestoreState does nothing, a button has no state to restore.
func (b *Button) RestoreState(_ context.Context) error {
	return nil
}

// StatusUpdated ignores device status, a button has no state.
func (b *Button) StatusUpdated() {}

func (b *Button) ID() dps.ID {
	return b.id
}

func (b *Button) DeviceID() string {
	return b.deviceID
}

func (b *Button) UniqueID() string {
	return fmt.Sprintf("local_%s_%s", b.deviceID, b.id)
}

func (b *Button) Name() string {
	if b.cfg.FriendlyName == "" {
		return b.UniqueID()
	}
	return b.cfg.FriendlyName
}

func (b *Button) DeviceClass() string {
	return b.cfg.DeviceClass
}
