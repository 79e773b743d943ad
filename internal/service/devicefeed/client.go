package devicefeed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"ShotTrace/internal/domain/models"
	drepo "ShotTrace/internal/domain/repository"
	applogger "ShotTrace/pkg/logger"

	"github.com/gorilla/websocket"
)

// Config describes the device gateway websocket.
type Config struct {
	URL            string
	Token          string
	Devices        []string // empty subscribes to every device
	ReconnectDelay time.Duration
	PingInterval   time.Duration
}

// Client implements a DeviceStream backed by the device gateway websocket.
type Client struct {
	cfg    Config
	dialer *websocket.Dialer
	logger *applogger.Logger

	mu        sync.Mutex // guards conn writes and connected
	conn      *websocket.Conn
	connected bool
}

// New creates a new device gateway stream.
func New(cfg Config) drepo.DeviceStream {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	return &Client{cfg: cfg, dialer: websocket.DefaultDialer}
}

func (c *Client) SetLogger(l *applogger.Logger) { c.logger = l }

// Connect dials the gateway. The token travels as a bearer header.
func (c *Client) Connect(ctx context.Context) error {
	h := http.Header{}
	if c.cfg.Token != "" {
		h.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, h)
	if err != nil {
		return fmt.Errorf("devicefeed connect: %w", err)
	}
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()
	if c.logger != nil {
		c.logger.Info("devicefeed connected", applogger.String("url", c.cfg.URL))
	}
	return nil
}

type subscribeFrame struct {
	Type    string   `json:"type"`
	Devices []string `json:"devices"`
}

// Subscribe asks the gateway to forward frames for the configured devices.
func (c *Client) Subscribe(ctx context.Context) error {
	devices := c.cfg.Devices
	if len(devices) == 0 {
		devices = []string{"*"}
	}
	if err := c.write(websocket.TextMessage, subscribeFrame{Type: "subscribe", Devices: devices}); err != nil {
		return fmt.Errorf("devicefeed subscribe: %w", err)
	}
	if c.logger != nil {
		c.logger.Info("devicefeed subscribed", applogger.Strings("devices", devices))
	}
	return nil
}

// Read streams decoded frames until the connection fails or ctx ends.
func (c *Client) Read(ctx context.Context) (<-chan *models.DeviceMessage, <-chan error) {
	msgs := make(chan *models.DeviceMessage, 1024)
	errs := make(chan error, 1)

	go func() {
		ticker := time.NewTicker(c.cfg.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := c.write(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	go func() {
		defer close(msgs)
		defer close(errs)
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			errs <- fmt.Errorf("devicefeed conn nil")
			return
		}
		for {
			if ctx.Err() != nil {
				return
			}
			_, b, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					errs <- fmt.Errorf("devicefeed read: %w", err)
				}
				return
			}
			frames, err := DecodeFrames(b)
			if err != nil {
				if c.logger != nil {
					c.logger.Debug("devicefeed skip frame", applogger.Error(err))
				}
				continue
			}
			now := time.Now().UTC()
			for _, m := range frames {
				m.ReceivedAt = now
				select {
				case msgs <- m:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return msgs, errs
}

// DecodeFrames accepts a single frame object or an array of frames.
// Gateway control frames (ack, pong) decode to nothing.
func DecodeFrames(b []byte) ([]*models.DeviceMessage, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, fmt.Errorf("empty frame")
	}
	var out []*models.DeviceMessage
	if b[0] == '[' {
		if err := json.Unmarshal(b, &out); err != nil {
			return nil, fmt.Errorf("decode frame batch: %w", err)
		}
	} else {
		var m models.DeviceMessage
		if err := json.Unmarshal(b, &m); err != nil {
			return nil, fmt.Errorf("decode frame: %w", err)
		}
		out = []*models.DeviceMessage{&m}
	}
	kept := out[:0]
	for _, m := range out {
		if m == nil {
			continue
		}
		switch m.Type {
		case models.DeviceSample, models.DeviceShot, models.DeviceStability, models.DeviceRoundEnd:
			kept = append(kept, m)
		}
	}
	return kept, nil
}

// Reconnect closes, waits the configured delay and dials again.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	select {
	case <-time.After(c.cfg.ReconnectDelay):
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Client) write(kind int, v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || !c.connected {
		return fmt.Errorf("devicefeed not connected")
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if kind == websocket.PingMessage {
		return c.conn.WriteMessage(websocket.PingMessage, nil)
	}
	return c.conn.WriteJSON(v)
}
