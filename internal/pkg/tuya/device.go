package tuya

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/anicoll/localtuya-ir/internal/pkg/config"
	"github.com/anicoll/localtuya-ir/internal/pkg/model"
	ws "github.com/anicoll/localtuya-ir/pkg/sockets"
)

var (
	ErrNotConnected = errors.New("device not connected")
	ErrTransport    = errors.New("transport error")
)

// Device is the websocket session to the local bridge of one device.
// It only writes datapoints; replies are logged and otherwise ignored.
type Device struct {
	cfg          *config.BridgeConfig
	id           string
	host         string
	mu           sync.Mutex
	conn         ws.Connection
	disconnected chan error
	logger       *zap.Logger
}

func New(device model.Device, cfg *config.BridgeConfig) *Device {
	return &Device{
		cfg:          cfg,
		id:           device.ID,
		host:         device.Host,
		disconnected: make(chan error, 1),
		logger:       zap.L().With(zap.String("device_id", device.ID)),
	}
}

func (d *Device) url() url.URL {
	if d.cfg.Ssl {
		return url.URL{Scheme: "wss", Host: d.host, Path: "/ws/device/" + d.id}
	}
	return url.URL{Scheme: "ws", Host: d.host, Path: "/ws/device/" + d.id}
}

// Connect dials the bridge, replacing any previous session.
func (d *Device) Connect(ctx context.Context) error {
	u := d.url()
	opts := []func(*ws.Conn){
		ws.OnMessage(d.onMessage),
		ws.OnError(d.onError),
		ws.WithPingInterval(d.cfg.PingInterval),
		ws.WithPingMsg([]byte("ping")),
	}
	if d.cfg.Ssl {
		opts = append(opts, ws.InsecureSkipVerify())
	}
	conn := ws.New(opts...)

	d.logger.Debug("connecting to", zap.String("url", u.String()))
	if err := conn.Dial(ctx, u.String()); err != nil {
		d.logger.Error("failed to connect to", zap.String("url", u.String()), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}

	d.mu.Lock()
	old := d.conn
	d.conn = conn
	d.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	d.logger.Info("connected to device bridge", zap.String("url", u.String()))
	return nil
}

func (d *Device) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conn != nil && d.conn.IsConnected()
}

// Disconnected delivers the error that ended the current session.
func (d *Device) Disconnected() <-chan error {
	return d.disconnected
}

// SetDP writes value to datapoint dp. It sends exactly once and does not wait
// for a reply.
func (d *Device) SetDP(ctx context.Context, value string, dp int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	conn := d.conn
	d.mu.Unlock()
	if conn == nil || !conn.IsConnected() {
		return ErrNotConnected
	}

	data, err := json.Marshal(SetDPRequest{
		DeviceID: d.id,
		Time:     time.Now().Unix(),
		DPS:      map[string]any{strconv.Itoa(dp): value},
	})
	if err != nil {
		return err
	}
	if err := conn.Send(ws.Msg{Body: data}); err != nil {
		if errors.Is(err, ws.ErrClosed) {
			return ErrNotConnected
		}
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	d.logger.Debug("sent msg", zap.Int("dp", dp))
	return nil
}

func (d *Device) Close() error {
	d.mu.Lock()
	conn := d.conn
	d.conn = nil
	d.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

func (d *Device) onMessage(data []byte, _ ws.Connection) {
	d.logger.Debug("received message", zap.ByteString("payload", data))
}

func (d *Device) onError(err error) {
	d.logger.Warn("device bridge connection lost", zap.Error(err))
	select {
	case d.disconnected <- fmt.Errorf("%w: %w", ErrTransport, err):
	default:
	}
}
