package cmd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/anicoll/localtuya-ir/internal/pkg/config"
	"github.com/anicoll/localtuya-ir/internal/pkg/dps"
	"github.com/anicoll/localtuya-ir/internal/pkg/model"
	"github.com/anicoll/localtuya-ir/internal/pkg/mqtt"
)

func testConfig() *config.Config {
	return &config.Config{
		BridgeCfg: config.BridgeConfig{ReconnectDelay: 10 * time.Millisecond},
		Devices: []model.Device{
			{
				ID:   "bf1234",
				Host: "192.168.1.50",
				Entities: []model.EntityConfig{
					{ID: "1", Platform: model.PlatformButton, FriendlyName: "Power", IRHead: lo.ToPtr("AB12"), IRKey1: lo.ToPtr("CD34")},
					{ID: "2", Platform: model.PlatformButton, FriendlyName: "Mute", IRHead: lo.ToPtr("AB12"), IRKey1: lo.ToPtr("EF56")},
					{ID: "1001", Platform: model.PlatformButton, FriendlyName: "Input"},
					{ID: "3", Platform: model.PlatformSensor, FriendlyName: "Temperature"},
				},
			},
		},
	}
}

func uniqueIDs(entities []mqtt.Entity) []string {
	return lo.Map(entities, func(e mqtt.Entity, _ int) string { return e.UniqueID() })
}

func TestRun_ContextCancellation(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	transport := NewMockTransport()
	registry := &MockRegistry{}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, cfg, registry, func(model.Device) Transport { return transport }, zaptest.NewLogger(t))
	}()

	require.Eventually(t, func() bool { return len(registry.Subscribed()) == 3 }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return after cancellation")
	}

	assert.Equal(t, []string{"local_bf1234_1002", "local_bf1234_1003", "local_bf1234_1001"}, uniqueIDs(registry.Registered()))
	assert.Equal(t, uniqueIDs(registry.Registered()), uniqueIDs(registry.Subscribed()))
	assert.Equal(t, []string{"1002", "1003", "1001", "3"}, lo.Map(cfg.Devices[0].Entities, func(e model.EntityConfig, _ int) string { return e.ID }))
	assert.Equal(t, 1, transport.Connects())
	assert.True(t, transport.Closed())
}

func TestRun_ConfigurationError(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Devices[0].Entities[1].ID = "mute"
	transport := NewMockTransport()
	registry := &MockRegistry{}

	err := run(context.Background(), cfg, registry, func(model.Device) Transport { return transport }, zaptest.NewLogger(t))

	assert.ErrorIs(t, err, dps.ErrConfiguration)
	assert.Zero(t, transport.Connects(), "no device is connected with a broken configuration")
	assert.Empty(t, registry.Registered())
}

func TestRun_ConnectError(t *testing.T) {
	t.Parallel()
	connectErr := errors.New("connection refused")
	transport := NewMockTransport()
	transport.ConnectFunc = func(context.Context) error { return connectErr }
	registry := &MockRegistry{}

	err := run(context.Background(), testConfig(), registry, func(model.Device) Transport { return transport }, zaptest.NewLogger(t))

	assert.ErrorIs(t, err, connectErr)
	assert.Empty(t, registry.Registered())
}

func TestRun_LaterDeviceErrorStopsEarlierDevices(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Devices = append(cfg.Devices, model.Device{
		ID:       "bf5678",
		Host:     "192.168.1.51",
		Entities: []model.EntityConfig{{ID: "1", Platform: model.PlatformButton}},
	})

	first := NewMockTransport()
	second := NewMockTransport()
	connectErr := errors.New("connection refused")
	second.ConnectFunc = func(context.Context) error {
		// leave the first device mid reconnect when setup fails
		first.disconnected <- errors.New("eof")
		require.Eventually(t, func() bool { return first.Connects() == 2 }, 2*time.Second, 5*time.Millisecond)
		return connectErr
	}
	transports := map[string]*MockTransport{"bf1234": first, "bf5678": second}

	err := run(context.Background(), cfg, &MockRegistry{}, func(d model.Device) Transport { return transports[d.ID] }, zaptest.NewLogger(t))

	assert.ErrorIs(t, err, connectErr)
	assert.True(t, first.Closed())
	first.disconnected <- errors.New("eof")
	assert.Never(t, func() bool { return first.Connects() > 2 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestRun_RegisterError(t *testing.T) {
	t.Parallel()
	registerErr := errors.New("broker gone")
	transport := NewMockTransport()
	registry := &MockRegistry{
		RegisterButtonFunc: func(model.Device, mqtt.Entity) error { return registerErr },
	}

	err := run(context.Background(), testConfig(), registry, func(model.Device) Transport { return transport }, zaptest.NewLogger(t))

	assert.ErrorIs(t, err, registerErr)
	assert.True(t, transport.Closed())
}

func TestRun_ReconnectsAfterDisconnect(t *testing.T) {
	t.Parallel()
	transport := NewMockTransport()
	registry := &MockRegistry{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, testConfig(), registry, func(model.Device) Transport { return transport }, zaptest.NewLogger(t))
	}()

	require.Eventually(t, func() bool { return transport.Connects() == 1 }, 2*time.Second, 5*time.Millisecond)
	transport.disconnected <- errors.New("eof")
	require.Eventually(t, func() bool { return transport.Connects() == 2 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
}

func TestSetupButtons_PressUsesTransport(t *testing.T) {
	t.Parallel()
	var got []int
	transport := NewMockTransport()
	transport.SetDPFunc = func(_ context.Context, _ string, dp int) error {
		got = append(got, dp)
		return nil
	}

	buttons, entities, err := setupButtons(transport, testConfig().Devices[0])
	require.NoError(t, err)
	require.Len(t, buttons, 3)
	require.Len(t, entities, 4)

	for _, b := range buttons {
		require.NoError(t, b.Press(context.Background()))
	}
	assert.Equal(t, []int{201, 201, 201}, got)
}

func TestSetupButtons_NoButtons(t *testing.T) {
	t.Parallel()
	device := model.Device{ID: "x", Entities: []model.EntityConfig{{ID: "1", Platform: model.PlatformSensor}}}

	buttons, entities, err := setupButtons(NewMockTransport(), device)
	require.NoError(t, err)
	assert.Empty(t, buttons)
	assert.Equal(t, device.Entities, entities)
}
