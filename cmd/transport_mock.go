package cmd

import (
	"context"
	"sync"

	"github.com/anicoll/localtuya-ir/internal/pkg/model"
	"github.com/anicoll/localtuya-ir/internal/pkg/mqtt"
)

// MockTransport is a mock implementation of the Transport interface.
type MockTransport struct {
	ConnectFunc func(ctx context.Context) error
	SetDPFunc   func(ctx context.Context, value string, dp int) error

	mu           sync.Mutex
	connects     int
	closed       bool
	disconnected chan error
}

func NewMockTransport() *MockTransport {
	return &MockTransport{disconnected: make(chan error, 1)}
}

func (m *MockTransport) Connect(ctx context.Context) error {
	m.mu.Lock()
	m.connects++
	m.mu.Unlock()
	if m.ConnectFunc != nil {
		return m.ConnectFunc(ctx)
	}
	return nil
}

func (m *MockTransport) SetDP(ctx context.Context, value string, dp int) error {
	if m.SetDPFunc != nil {
		return m.SetDPFunc(ctx, value, dp)
	}
	return nil
}

func (m *MockTransport) Disconnected() <-chan error {
	return m.disconnected
}

func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MockTransport) Connects() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connects
}

func (m *MockTransport) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// MockRegistry is a mock implementation of the Registry interface that
// records every entity it is given.
type MockRegistry struct {
	RegisterButtonFunc func(device model.Device, e mqtt.Entity) error

	mu         sync.Mutex
	registered []mqtt.Entity
	subscribed []mqtt.Entity
}

func (m *MockRegistry) RegisterButton(device model.Device, e mqtt.Entity) error {
	if m.RegisterButtonFunc != nil {
		if err := m.RegisterButtonFunc(device, e); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registered = append(m.registered, e)
	return nil
}

func (m *MockRegistry) SubscribePress(_ model.Device, e mqtt.Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribed = append(m.subscribed, e)
	return nil
}

func (m *MockRegistry) Registered() []mqtt.Entity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mqtt.Entity(nil), m.registered...)
}

func (m *MockRegistry) Subscribed() []mqtt.Entity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mqtt.Entity(nil), m.subscribed...)
}
