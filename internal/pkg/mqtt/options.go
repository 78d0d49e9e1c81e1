package mqtt

import (
	"fmt"
	"net/url"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/anicoll/localtuya-ir/internal/pkg/config"
)

const maxReconnectInterval = time.Minute * 5

// ClientOptions builds the paho options for cfg. Host must be a broker URL
// such as tcp://127.0.0.1:1883.
func ClientOptions(cfg config.MqttConfig) (*paho_mqtt.ClientOptions, error) {
	u, err := url.Parse(cfg.Host)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("mqtt host %q must be in the form tcp://127.0.0.1:1883", cfg.Host)
	}
	opts := paho_mqtt.NewClientOptions().
		AddBroker(cfg.Host).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(maxReconnectInterval)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	return opts, nil
}
