package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/anicoll/localtuya-ir/internal/pkg/dps"
	"github.com/anicoll/localtuya-ir/internal/pkg/model"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	LogLevel    string       `env:"LOG_LEVEL" envDefault:"INFO"`
	DevicesFile string       `env:"DEVICES_FILE" envDefault:"devices.yaml"`
	MqttCfg     MqttConfig   `envPrefix:"MQTT_"`
	BridgeCfg   BridgeConfig `envPrefix:"BRIDGE_"`
	Devices     []model.Device
}

type MqttConfig struct {
	Host            string `env:"HOST"`
	Username        string `env:"USER"`
	Password        string `env:"PASS"`
	ClientID        string `env:"CLIENT_ID" envDefault:"localtuya-ir"`
	DiscoveryPrefix string `env:"DISCOVERY_PREFIX" envDefault:"homeassistant"`
}

// BridgeConfig configures the websocket session to each device's local bridge.
type BridgeConfig struct {
	Ssl            bool          `env:"SSL"`
	PingInterval   time.Duration `env:"PING_INTERVAL" envDefault:"4s"`
	ReconnectDelay time.Duration `env:"RECONNECT_DELAY" envDefault:"5s"`
}

// New reads the configuration from the environment.
func New() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

type devicesFile struct {
	Devices []model.Device `yaml:"devices"`
}

// LoadDevices decodes and validates the devices file at path.
func LoadDevices(path string) ([]model.Device, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f devicesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	if err := Validate(f.Devices); err != nil {
		return nil, err
	}
	return f.Devices, nil
}

// Validate checks device level fields. Entity ids are checked when the
// entities are constructed.
func Validate(devices []model.Device) error {
	var errs []error
	seen := make(map[string]struct{}, len(devices))
	for i, d := range devices {
		if d.ID == "" {
			errs = append(errs, fmt.Errorf("%w: device %d has no device_id", ErrInvalidConfig, i))
			continue
		}
		if _, exists := seen[d.ID]; exists {
			errs = append(errs, fmt.Errorf("%w: duplicate device_id %q", ErrInvalidConfig, d.ID))
		}
		seen[d.ID] = struct{}{}
		if d.Host == "" {
			errs = append(errs, fmt.Errorf("%w: device %q has no host", ErrInvalidConfig, d.ID))
		}
		for _, e := range lo.FindDuplicatesBy(d.Entities, entityKey) {
			errs = append(errs, fmt.Errorf("%w: device %q has more than one entity with id %q", ErrInvalidConfig, d.ID, e.ID))
		}
	}
	return errors.Join(errs...)
}

// entityKey compares numeric ids by value so "7" and " 7" collide.
func entityKey(e model.EntityConfig) string {
	if id, err := dps.ParseID(e.ID); err == nil {
		return id.String()
	}
	return e.ID
}
