// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package sse implements a connector that consumes a Server-Sent Events
// stream. The client library's own retry loop is disabled so reconnects
// follow the same single-timer policy as the WebSocket connector.
package sse

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/absmach/scadabind/connectors"
	"github.com/absmach/scadabind/pkg/errors"
	"github.com/r3labs/sse/v2"
	"gopkg.in/cenkalti/backoff.v1"
)

const messageEvent = "message"

// Config holds the SSE source parameters.
type Config struct {
	URL      string
	DataPath string
	// EventType is an extra named event to accept besides "message".
	EventType      string
	Headers        map[string]string
	ReconnectDelay time.Duration
	// DisableReconnect turns off reconnecting after the stream ends.
	DisableReconnect bool
	RetryCount       int
}

var _ connectors.Connector = (*connector)(nil)

type connector struct {
	connectors.Base

	cfg         Config
	httpClient  *http.Client
	reconnector *connectors.Reconnector

	mu      sync.Mutex
	gen     uint64
	enabled bool
	cancel  context.CancelFunc
}

// New returns an SSE connector. A nil httpClient uses a default client
// without timeout, as streams are long-lived.
func New(cfg Config, httpClient *http.Client) connectors.Connector {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &connector{
		cfg:         cfg,
		httpClient:  httpClient,
		reconnector: connectors.NewReconnector(cfg.ReconnectDelay, cfg.RetryCount),
	}
}

func (c *connector) Connect(ctx context.Context) error {
	if strings.TrimSpace(c.cfg.URL) == "" {
		return connectors.ErrMissingURL
	}

	c.mu.Lock()
	c.enabled = true
	c.mu.Unlock()
	c.reconnector.Start()

	return c.open(ctx)
}

func (c *connector) Disconnect() error {
	c.mu.Lock()
	c.enabled = false
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()

	c.reconnector.Stop()
	c.SetState(connectors.Disconnected)
	return nil
}

// open starts a fresh stream and waits until the server accepted it or
// the first attempt failed.
func (c *connector) open(ctx context.Context) error {
	c.mu.Lock()
	if !c.enabled {
		c.mu.Unlock()
		return connectors.ErrDisabled
	}
	streamCtx, cancel := context.WithCancel(context.Background())
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	gen := c.gen
	c.cancel = cancel
	c.mu.Unlock()

	c.SetState(connectors.Connecting)

	opened := make(chan error, 1)
	var accepted atomic.Bool
	client := sse.NewClient(c.cfg.URL)
	client.Connection = c.httpClient
	client.ReconnectStrategy = &backoff.StopBackOff{}
	client.Headers = c.cfg.Headers
	client.ResponseValidator = func(_ *sse.Client, resp *http.Response) error {
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return errors.Wrap(connectors.ErrHTTPStatus, fmt.Errorf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
		}
		if c.current(gen) {
			c.reconnector.Succeeded()
			c.SetState(connectors.Connected)
		}
		accepted.Store(true)
		opened <- nil
		return nil
	}

	go func() {
		err := client.SubscribeRawWithContext(streamCtx, c.handle)
		if err == nil {
			err = connectors.ErrStreamClosed
		}
		if accepted.Load() {
			c.ended(gen, errors.Wrap(connectors.ErrTransport, err))
			return
		}
		opened <- err
		c.ended(gen, errors.Wrap(connectors.ErrConnect, err))
	}()

	select {
	case err := <-opened:
		if err != nil {
			return errors.Wrap(connectors.ErrConnect, err)
		}
		return nil
	case <-ctx.Done():
		cancel()
		return errors.Wrap(connectors.ErrConnect, ctx.Err())
	}
}

func (c *connector) handle(ev *sse.Event) {
	if ev == nil || len(ev.Data) == 0 {
		return
	}
	name := string(ev.Event)
	if name != "" && name != messageEvent && name != c.cfg.EventType {
		return
	}

	payload, ok, err := connectors.Decode(ev.Data, c.cfg.DataPath)
	if err != nil {
		c.Fail(err)
		return
	}
	if ok {
		c.Publish(payload)
	}
}

// ended reacts to the end of the stream started as generation gen.
func (c *connector) ended(gen uint64, err error) {
	if !c.current(gen) {
		return
	}
	c.Fail(err)

	if c.cfg.DisableReconnect {
		c.SetState(connectors.Disconnected)
		return
	}
	scheduled := c.reconnector.Schedule(func() {
		_ = c.open(context.Background())
	})
	if scheduled {
		c.SetState(connectors.Reconnecting)
		return
	}
	c.SetState(connectors.Disconnected)
}

func (c *connector) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled && c.gen == gen
}
