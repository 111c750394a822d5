// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package httppoll implements a connector that polls an HTTP endpoint at
// a fixed interval.
package httppoll

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/absmach/scadabind/connectors"
	"github.com/absmach/scadabind/pkg/errors"
	"github.com/absmach/scadabind/pkg/ticker"
)

const (
	// DefaultInterval is the polling period used when none is configured.
	DefaultInterval = 5 * time.Second
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 30 * time.Second

	contentType = "application/json"
)

// ErrMethod indicates an HTTP method the connector does not issue.
var ErrMethod = errors.New("unsupported http method")

// Config holds the HTTP polling source parameters.
type Config struct {
	URL    string
	Method string
	// Headers override the default Content-Type header.
	Headers map[string]string
	// Body is sent for POST and PUT. Strings are sent verbatim, anything
	// else is encoded as JSON.
	Body     any
	Interval time.Duration
	Timeout  time.Duration
	DataPath string
}

var (
	_ connectors.Connector     = (*connector)(nil)
	_ connectors.HeaderUpdater = (*connector)(nil)
)

type connector struct {
	connectors.Base

	cfg       Config
	client    *http.Client
	newTicker ticker.Factory

	mu      sync.Mutex
	headers map[string]string
	cancel  context.CancelFunc
	done    chan struct{}
}

// New returns an HTTP polling connector. A nil client uses
// http.DefaultClient and a nil factory uses ticker.NewTicker.
func New(cfg Config, client *http.Client, tf ticker.Factory) connectors.Connector {
	if cfg.Method == "" {
		cfg.Method = http.MethodGet
	}
	cfg.Method = strings.ToUpper(cfg.Method)
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if client == nil {
		client = http.DefaultClient
	}
	if tf == nil {
		tf = ticker.NewTicker
	}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	return &connector{
		cfg:       cfg,
		client:    client,
		newTicker: tf,
		headers:   headers,
	}
}

// Connect performs the first poll and starts the polling loop. A failed
// first poll is reported through the error handlers only, since later
// ticks may still succeed.
func (c *connector) Connect(ctx context.Context) error {
	if strings.TrimSpace(c.cfg.URL) == "" {
		return connectors.ErrMissingURL
	}
	switch c.cfg.Method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		return errors.Wrap(ErrMethod, errors.New(c.cfg.Method))
	}

	c.stop()

	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.mu.Lock()
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	c.SetState(connectors.Connecting)
	c.poll(loopCtx)
	if err := ctx.Err(); err != nil {
		c.stop()
		return errors.Wrap(connectors.ErrConnect, err)
	}

	go c.loop(loopCtx, done)
	return nil
}

func (c *connector) Disconnect() error {
	c.stop()
	c.SetState(connectors.Disconnected)
	return nil
}

// UpdateHeaders merges headers into those sent by the following polls.
func (c *connector) UpdateHeaders(headers map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range headers {
		c.headers[k] = v
	}
}

func (c *connector) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	t := c.newTicker(c.cfg.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.Tick():
			c.poll(ctx)
		}
	}
}

func (c *connector) stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// poll runs one request and reports its outcome through the handlers.
func (c *connector) poll(ctx context.Context) {
	payload, err := c.fetch(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		c.SetState(connectors.Disconnected)
		c.Fail(err)
		return
	}

	switch p := payload.(type) {
	case nil:
	case []any:
		for _, item := range p {
			if item != nil {
				c.Publish(item)
			}
		}
	default:
		c.Publish(p)
	}
	c.SetState(connectors.Connected)
}

func (c *connector) fetch(ctx context.Context) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := c.body()
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, c.cfg.Method, c.cfg.URL, body)
	if err != nil {
		return nil, errors.Wrap(connectors.ErrTransport, err)
	}
	req.Header.Set("Content-Type", contentType)
	c.mu.Lock()
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	c.mu.Unlock()

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(connectors.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, errors.Wrap(connectors.ErrHTTPStatus, fmt.Errorf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(connectors.ErrTransport, err)
	}
	payload, ok, err := connectors.Decode(data, c.cfg.DataPath)
	if err != nil || !ok {
		return nil, err
	}
	return payload, nil
}

func (c *connector) body() (io.Reader, error) {
	if c.cfg.Body == nil || (c.cfg.Method != http.MethodPost && c.cfg.Method != http.MethodPut) {
		return nil, nil
	}
	if s, ok := c.cfg.Body.(string); ok {
		return strings.NewReader(s), nil
	}
	b, err := json.Marshal(c.cfg.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrMalformedEntity, err)
	}
	return bytes.NewReader(b), nil
}
