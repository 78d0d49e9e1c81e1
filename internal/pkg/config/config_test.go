package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anicoll/localtuya-ir/internal/pkg/model"
)

func TestNew_Defaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "devices.yaml", cfg.DevicesFile)
	assert.Equal(t, "homeassistant", cfg.MqttCfg.DiscoveryPrefix)
	assert.Equal(t, "localtuya-ir", cfg.MqttCfg.ClientID)
	assert.Equal(t, 4*time.Second, cfg.BridgeCfg.PingInterval)
	assert.Equal(t, 5*time.Second, cfg.BridgeCfg.ReconnectDelay)
}

func TestNew_FromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("MQTT_HOST", "tcp://broker:1883")
	t.Setenv("MQTT_USER", "user")
	t.Setenv("MQTT_PASS", "pass")
	t.Setenv("BRIDGE_SSL", "true")
	t.Setenv("BRIDGE_PING_INTERVAL", "10s")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, "tcp://broker:1883", cfg.MqttCfg.Host)
	assert.Equal(t, "user", cfg.MqttCfg.Username)
	assert.Equal(t, "pass", cfg.MqttCfg.Password)
	assert.True(t, cfg.BridgeCfg.Ssl)
	assert.Equal(t, 10*time.Second, cfg.BridgeCfg.PingInterval)
}

const devicesYAML = `
devices:
  - device_id: bf1234
    friendly_name: Living Room IR
    host: 192.168.1.50:6668
    entities:
      - id: "1"
        platform: button
        friendly_name: TV Power
        device_class: restart
        ir_head: AB12
        ir_key1: CD34
      - id: "1001"
        platform: button
        friendly_name: TV Mute
        ir_head: AB12
        ir_key1: EF56
      - id: "3"
        platform: sensor
        friendly_name: Temperature
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "devices.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDevices(t *testing.T) {
	devices, err := LoadDevices(writeFile(t, devicesYAML))
	require.NoError(t, err)
	require.Len(t, devices, 1)

	d := devices[0]
	assert.Equal(t, "bf1234", d.ID)
	assert.Equal(t, "Living Room IR", d.Name)
	assert.Equal(t, "192.168.1.50:6668", d.Host)
	require.Len(t, d.Entities, 3)
	assert.Equal(t, model.EntityConfig{
		ID:           "1",
		Platform:     model.PlatformButton,
		FriendlyName: "TV Power",
		DeviceClass:  "restart",
		IRHead:       lo.ToPtr("AB12"),
		IRKey1:       lo.ToPtr("CD34"),
	}, d.Entities[0])
	assert.Equal(t, model.PlatformSensor, d.Entities[2].Platform)
}

func TestLoadDevices_Errors(t *testing.T) {
	_, err := LoadDevices(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadDevices(writeFile(t, "devices: [unterminated"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	tests := map[string]struct {
		devices []model.Device
		wantErr bool
	}{
		"valid": {
			devices: []model.Device{{ID: "a", Host: "h1"}, {ID: "b", Host: "h2"}},
		},
		"empty": {},
		"missing id": {
			devices: []model.Device{{Host: "h1"}},
			wantErr: true,
		},
		"missing host": {
			devices: []model.Device{{ID: "a"}},
			wantErr: true,
		},
		"duplicate id": {
			devices: []model.Device{{ID: "a", Host: "h1"}, {ID: "a", Host: "h2"}},
			wantErr: true,
		},
		"duplicate entity id": {
			devices: []model.Device{{ID: "a", Host: "h1", Entities: []model.EntityConfig{
				{ID: "1001", IRKey1: lo.ToPtr("POWER")},
				{ID: "1001", IRKey1: lo.ToPtr("MUTE")},
			}}},
			wantErr: true,
		},
		"duplicate entity id by value": {
			devices: []model.Device{{ID: "a", Host: "h1", Entities: []model.EntityConfig{{ID: "7"}, {ID: " 7"}}}},
			wantErr: true,
		},
		"same entity id on different devices": {
			devices: []model.Device{
				{ID: "a", Host: "h1", Entities: []model.EntityConfig{{ID: "1001"}}},
				{ID: "b", Host: "h2", Entities: []model.EntityConfig{{ID: "1001"}}},
			},
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := Validate(tt.devices)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}
