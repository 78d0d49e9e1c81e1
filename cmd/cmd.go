package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anicoll/localtuya-ir/internal/pkg/button"
	"github.com/anicoll/localtuya-ir/internal/pkg/config"
	"github.com/anicoll/localtuya-ir/internal/pkg/dps"
	"github.com/anicoll/localtuya-ir/internal/pkg/model"
	"github.com/anicoll/localtuya-ir/internal/pkg/mqtt"
	"github.com/anicoll/localtuya-ir/internal/pkg/tuya"
)

func ButtonCommand(ctx *cli.Context) error {
	cfg, err := config.New()
	if err != nil {
		return err
	}
	if ctx.IsSet("log-level") {
		cfg.LogLevel = ctx.String("log-level")
	}
	if ctx.IsSet("devices-file") {
		cfg.DevicesFile = ctx.String("devices-file")
	}
	if ctx.IsSet("mqtt-host") {
		cfg.MqttCfg.Host = ctx.String("mqtt-host")
	}
	if ctx.IsSet("mqtt-user") {
		cfg.MqttCfg.Username = ctx.String("mqtt-user")
	}
	if ctx.IsSet("mqtt-pass") {
		cfg.MqttCfg.Password = ctx.String("mqtt-pass")
	}
	if ctx.IsSet("bridge-ssl") {
		cfg.BridgeCfg.Ssl = ctx.Bool("bridge-ssl")
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync() // flushes buffer, if any.
	}()
	zap.ReplaceGlobals(logger)

	cfg.Devices, err = config.LoadDevices(cfg.DevicesFile)
	if err != nil {
		return err
	}

	opts, err := mqtt.ClientOptions(cfg.MqttCfg)
	if err != nil {
		return err
	}
	registry := mqtt.NewFromOptions(opts, cfg.MqttCfg.DiscoveryPrefix)
	if err := registry.Connect(); err != nil {
		return err
	}

	newTransport := func(device model.Device) Transport {
		return tuya.New(device, &cfg.BridgeCfg)
	}
	return run(ctx.Context, cfg, registry, newTransport, logger)
}

func newLogger(level string) (*zap.Logger, error) {
	var err error
	logCfg := zap.NewProductionConfig()
	logCfg.Level, err = zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	logCfg.OutputPaths = []string{"stdout"}
	logCfg.ErrorOutputPaths = []string{"stdout"}
	logCfg.Sampling = nil
	return logCfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
}

// run builds the buttons of every device, connects the devices and exposes
// the buttons until ctx is done or a device cannot be connected.
func run(ctx context.Context, cfg *config.Config, registry Registry, newTransport TransportFactory, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	eg, ctx := errgroup.WithContext(ctx)

	transports := make([]Transport, 0, len(cfg.Devices))
	defer func() {
		for _, t := range transports {
			_ = t.Close()
		}
	}()
	// abort stops the devices already maintained before run returns.
	abort := func(err error) error {
		cancel()
		_ = eg.Wait()
		return err
	}

	for i, device := range cfg.Devices {
		transport := newTransport(device)
		buttons, entities, err := setupButtons(transport, device)
		if err != nil {
			return abort(err)
		}
		cfg.Devices[i].Entities = entities
		device.Entities = entities

		if err := transport.Connect(ctx); err != nil {
			return abort(err)
		}
		transports = append(transports, transport)

		for _, b := range buttons {
			if err := registry.RegisterButton(device, b); err != nil {
				return abort(err)
			}
			if err := registry.SubscribePress(device, b); err != nil {
				return abort(err)
			}
		}
		logger.Info("device ready", zap.String("device_id", device.ID), zap.Int("buttons", len(buttons)))

		eg.Go(func() error {
			return maintain(ctx, transport, device, cfg.BridgeCfg.ReconnectDelay, logger)
		})
	}

	eg.Go(func() error {
		<-ctx.Done()
		logger.Info("context done")
		return ctx.Err()
	})

	return eg.Wait()
}

// setupButtons constructs the buttons of device one after another so each
// placeholder allocation sees the ids allocated before it. It returns the
// entity records with the allocated ids committed.
func setupButtons(transport Transport, device model.Device) ([]*button.Button, []model.EntityConfig, error) {
	alloc := dps.NewAllocator(device.Entities)
	ids := lo.FilterMap(device.Entities, func(e model.EntityConfig, _ int) (string, bool) {
		return e.ID, e.Platform == model.PlatformButton
	})

	buttons := make([]*button.Button, 0, len(ids))
	for _, id := range ids {
		b, err := button.New(transport, device.ID, alloc, id)
		if err != nil {
			return nil, nil, fmt.Errorf("device %s: %w", device.ID, err)
		}
		buttons = append(buttons, b)
	}
	return buttons, alloc.Snapshot(), nil
}

// maintain reconnects transport whenever its session drops.
func maintain(ctx context.Context, transport Transport, device model.Device, delay time.Duration, logger *zap.Logger) error {
	logger = logger.With(zap.String("device_id", device.ID))
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-transport.Disconnected():
			logger.Error("device disconnected", zap.Error(err))
		}

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			if err := transport.Connect(ctx); err != nil {
				logger.Warn("reconnect failed", zap.Error(err))
				continue
			}
			logger.Info("device reconnected")
			break
		}
	}
}
