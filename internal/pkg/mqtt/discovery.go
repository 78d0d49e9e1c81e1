package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/anicoll/localtuya-ir/internal/pkg/contxt"
	"github.com/anicoll/localtuya-ir/internal/pkg/model"
)

const (
	manufacturer = "Tuya"
	payloadPress = "PRESS"
	baseTopic    = "localtuya"
)

// Entity is a pressable entity exposed to Home Assistant.
type Entity interface {
	UniqueID() string
	Name() string
	DeviceClass() string
	Capabilities() model.Capabilities
	Available() bool
	Press(ctx context.Context) error
}

func slugify(s string) string {
	return strings.Replace(slug.Make(s), "-", "_", -1)
}

func nodeID(device model.Device) string {
	return slugify(device.ID)
}

func objectID(e Entity) string {
	return slugify(e.UniqueID())
}

func baseTopicFor(device model.Device, e Entity) string {
	return fmt.Sprintf("%s/%s/%s", baseTopic, nodeID(device), objectID(e))
}

func commandTopic(device model.Device, e Entity) string {
	return baseTopicFor(device, e) + "/press"
}

func availabilityTopic(device model.Device, e Entity) string {
	return baseTopicFor(device, e) + "/availability"
}

// RegisterButton publishes the retained discovery config of e. Registering
// the same entity again is a no-op.
func (s *service) RegisterButton(device model.Device, e Entity) error {
	s.mu.Lock()
	_, exists := s.registered[e.UniqueID()]
	s.mu.Unlock()
	if exists {
		return nil
	}

	if err := s.publishDiscovery(device, e); err != nil {
		return err
	}

	s.mu.Lock()
	s.registered[e.UniqueID()] = binding{device: device, entity: e}
	s.mu.Unlock()
	s.logger.Info("registered button", zap.String("unique_id", e.UniqueID()), zap.String("topic", configTopic(s.prefix, device, e)))
	return nil
}

func configTopic(prefix string, device model.Device, e Entity) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", prefix, model.PlatformButton, nodeID(device), objectID(e))
}

func (s *service) publishDiscovery(device model.Device, e Entity) error {
	payload, err := json.Marshal(registerMsg(device, e))
	if err != nil {
		return err
	}
	if err := wait(s.client.Publish(configTopic(s.prefix, device, e), 1, true, payload), publishTimeout); err != nil {
		return err
	}

	if e.Capabilities().AvailabilitySignal {
		state := "offline"
		if e.Available() {
			state = "online"
		}
		if err := wait(s.client.Publish(availabilityTopic(device, e), 1, true, state), publishTimeout); err != nil {
			return err
		}
	}
	return nil
}

// SubscribePress presses e every time Home Assistant publishes to its command topic.
func (s *service) SubscribePress(device model.Device, e Entity) error {
	if err := s.subscribe(device, e); err != nil {
		return err
	}
	s.mu.Lock()
	s.subscriptions[e.UniqueID()] = binding{device: device, entity: e}
	s.mu.Unlock()
	return nil
}

func (s *service) subscribe(device model.Device, e Entity) error {
	return wait(s.client.Subscribe(commandTopic(device, e), 1, func(_ paho_mqtt.Client, msg paho_mqtt.Message) {
		s.handlePress(e, msg)
	}), publishTimeout)
}

func (s *service) handlePress(e Entity, msg paho_mqtt.Message) {
	logger := s.logger.With(zap.String("unique_id", e.UniqueID()), zap.String("topic", msg.Topic()))
	if string(msg.Payload()) != payloadPress {
		logger.Warn("ignoring unexpected payload", zap.ByteString("payload", msg.Payload()))
		return
	}
	ctx, cancel := contxt.NewContext(pressTimeout)
	defer cancel()
	if err := e.Press(ctx); err != nil {
		logger.Error("failed to press button", zap.Error(err))
		return
	}
	logger.Debug("button pressed")
}

func registerMsg(device model.Device, e Entity) model.RegisterMessage {
	name := device.Name
	if name == "" {
		name = device.ID
	}
	msg := model.RegisterMessage{
		Tilda:        baseTopicFor(device, e),
		Name:         e.Name(),
		ID:           e.UniqueID(),
		ObjectID:     objectID(e),
		CommandTopic: "~/press",
		PayloadPress: payloadPress,
		DeviceClass:  e.DeviceClass(),
		Device: model.RegisterDevice{
			Name:         name,
			Identifiers:  []string{"localtuya_" + device.ID},
			Model:        device.Model,
			Manufacturer: manufacturer,
		},
	}
	if e.Capabilities().AvailabilitySignal {
		msg.AvailabilityTopic = "~/availability"
	}
	return msg
}
