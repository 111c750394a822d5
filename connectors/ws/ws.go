// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package ws implements a connector that reads JSON frames from a
// WebSocket endpoint and reconnects after the socket closes.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/absmach/scadabind/connectors"
	"github.com/absmach/scadabind/pkg/errors"
	"github.com/gorilla/websocket"
)

const (
	defaultHandshakeTimeout = 30 * time.Second
	closeGracePeriod        = time.Second
)

// Config holds the WebSocket source parameters.
type Config struct {
	URL      string
	DataPath string
	Headers  map[string]string
	// ReconnectDelay defaults to connectors.DefaultReconnectDelay.
	ReconnectDelay time.Duration
	// DisableReconnect turns off reconnecting after a close or an error.
	DisableReconnect bool
	// RetryCount bounds consecutive reconnect attempts. Zero is unlimited.
	RetryCount       int
	HandshakeTimeout time.Duration
}

var (
	_ connectors.Connector = (*connector)(nil)
	_ connectors.Sender    = (*connector)(nil)
)

type connector struct {
	connectors.Base

	cfg         Config
	dialer      *websocket.Dialer
	reconnector *connectors.Reconnector

	mu      sync.Mutex
	writeMu sync.Mutex
	conn    *websocket.Conn
	gen     uint64
	enabled bool
	cancel  context.CancelFunc
	ctx     context.Context
}

// New returns a WebSocket connector.
func New(cfg Config) connectors.Connector {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = defaultHandshakeTimeout
	}
	return &connector{
		cfg: cfg,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		reconnector: connectors.NewReconnector(cfg.ReconnectDelay, cfg.RetryCount),
	}
}

func (c *connector) Connect(ctx context.Context) error {
	if strings.TrimSpace(c.cfg.URL) == "" {
		return connectors.ErrMissingURL
	}

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.enabled = true
	c.mu.Unlock()
	c.reconnector.Start()

	return c.dial(ctx)
}

func (c *connector) Disconnect() error {
	c.mu.Lock()
	c.enabled = false
	c.gen++
	conn := c.conn
	c.conn = nil
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()

	c.reconnector.Stop()
	if conn != nil {
		c.close(conn)
	}
	c.SetState(connectors.Disconnected)
	return nil
}

func (c *connector) Send(ctx context.Context, payload any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return connectors.ErrNotConnected
	}

	var data []byte
	switch p := payload.(type) {
	case string:
		data = []byte(p)
	default:
		var err error
		if data, err = json.Marshal(payload); err != nil {
			return errors.Wrap(errors.ErrMalformedEntity, err)
		}
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
		defer conn.SetWriteDeadline(time.Time{})
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return errors.Wrap(connectors.ErrTransport, err)
	}
	return nil
}

// dial replaces any live socket with a fresh one.
func (c *connector) dial(ctx context.Context) error {
	c.mu.Lock()
	old := c.conn
	c.conn = nil
	c.gen++
	c.mu.Unlock()
	if old != nil {
		c.close(old)
	}

	c.SetState(connectors.Connecting)
	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, c.header())
	if err != nil {
		if !c.isEnabled() {
			c.SetState(connectors.Disconnected)
			return connectors.ErrDisabled
		}
		err = errors.Wrap(connectors.ErrConnect, err)
		c.Fail(err)
		c.retry()
		return err
	}

	c.mu.Lock()
	if !c.enabled {
		c.mu.Unlock()
		conn.Close()
		return connectors.ErrDisabled
	}
	c.gen++
	gen := c.gen
	c.conn = conn
	c.mu.Unlock()

	c.reconnector.Succeeded()
	c.SetState(connectors.Connected)
	go c.read(conn, gen)
	return nil
}

func (c *connector) read(conn *websocket.Conn, gen uint64) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			current := c.gen == gen && c.enabled
			if current {
				c.conn = nil
			}
			c.mu.Unlock()
			conn.Close()
			if !current {
				return
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.Fail(errors.Wrap(connectors.ErrTransport, err))
			}
			c.retry()
			return
		}

		payload, ok, err := connectors.Decode(data, c.cfg.DataPath)
		if err != nil {
			c.Fail(err)
			continue
		}
		if ok {
			c.Publish(payload)
		}
	}
}

func (c *connector) retry() {
	c.mu.Lock()
	enabled, ctx := c.enabled, c.ctx
	c.mu.Unlock()

	if !enabled || c.cfg.DisableReconnect {
		c.SetState(connectors.Disconnected)
		return
	}
	scheduled := c.reconnector.Schedule(func() {
		dctx, cancel := context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
		defer cancel()
		_ = c.dial(dctx)
	})
	if scheduled {
		c.SetState(connectors.Reconnecting)
		return
	}
	c.SetState(connectors.Disconnected)
}

func (c *connector) isEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

func (c *connector) close(conn *websocket.Conn) {
	c.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
	c.writeMu.Unlock()
	conn.Close()
}

func (c *connector) header() http.Header {
	if len(c.cfg.Headers) == 0 {
		return nil
	}
	h := http.Header{}
	for k, v := range c.cfg.Headers {
		h.Set(k, v)
	}
	return h
}
