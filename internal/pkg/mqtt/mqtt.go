package mqtt

import (
	"errors"
	"sync"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/anicoll/localtuya-ir/internal/pkg/model"
)

const (
	connectTimeout = time.Second * 5
	publishTimeout = time.Second * 5
	pressTimeout   = time.Second * 10
)

var ErrTimeout = errors.New("mqtt operation timed out")

type client interface {
	Connect() paho_mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) paho_mqtt.Token
	Subscribe(topic string, qos byte, callback paho_mqtt.MessageHandler) paho_mqtt.Token
}

// binding is an entity of a device known to the broker, kept so it can be
// replayed after a reconnect.
type binding struct {
	device model.Device
	entity Entity
}

type service struct {
	client        client
	prefix        string
	logger        *zap.Logger
	mu            sync.Mutex
	registered    map[string]binding
	subscriptions map[string]binding
}

func New(client client, discoveryPrefix string) *service {
	return &service{
		client:        client,
		prefix:        discoveryPrefix,
		logger:        zap.L(),
		registered:    make(map[string]binding),
		subscriptions: make(map[string]binding),
	}
}

// NewFromOptions creates the paho client for opts with OnConnect installed as
// its connect handler.
func NewFromOptions(opts *paho_mqtt.ClientOptions, discoveryPrefix string) *service {
	s := New(nil, discoveryPrefix)
	opts.SetOnConnectHandler(s.OnConnect)
	s.client = paho_mqtt.NewClient(opts)
	return s
}

func (s *service) Connect() error {
	return wait(s.client.Connect(), connectTimeout)
}

// OnConnect republishes discovery and restores the press subscriptions of
// every known button. The broker drops both when a clean session reconnects.
func (s *service) OnConnect(_ paho_mqtt.Client) {
	s.mu.Lock()
	registered := lo.Values(s.registered)
	subscriptions := lo.Values(s.subscriptions)
	s.mu.Unlock()
	if len(registered) == 0 && len(subscriptions) == 0 {
		return
	}

	s.logger.Info("restoring buttons after connect", zap.Int("registered", len(registered)), zap.Int("subscriptions", len(subscriptions)))
	for _, b := range registered {
		if err := s.publishDiscovery(b.device, b.entity); err != nil {
			s.logger.Error("failed to republish button", zap.String("unique_id", b.entity.UniqueID()), zap.Error(err))
		}
	}
	for _, b := range subscriptions {
		if err := s.subscribe(b.device, b.entity); err != nil {
			s.logger.Error("failed to resubscribe button", zap.String("unique_id", b.entity.UniqueID()), zap.Error(err))
		}
	}
}

func wait(token paho_mqtt.Token, timeout time.Duration) error {
	if !token.WaitTimeout(timeout) {
		return ErrTimeout
	}
	return token.Error()
}
