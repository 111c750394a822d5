// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package mocks contains a scripted Connector for tests of code that
// drives connectors.
package mocks

import (
	"context"
	"sync"

	"github.com/absmach/scadabind/connectors"
)

var (
	_ connectors.Connector     = (*Connector)(nil)
	_ connectors.Sender        = (*Connector)(nil)
	_ connectors.HeaderUpdater = (*Connector)(nil)
)

// Connector records calls and lets tests push data, errors and state
// changes as if they came from a transport.
type Connector struct {
	connectors.Base

	mu          sync.Mutex
	ConnectErr  error
	SendErr     error
	Connects    int
	Disconnects int
	Sent        []any
	Headers     map[string]string
}

// New returns a disconnected mock connector.
func New() *Connector {
	return &Connector{Headers: map[string]string{}}
}

func (c *Connector) Connect(ctx context.Context) error {
	c.mu.Lock()
	c.Connects++
	err := c.ConnectErr
	c.mu.Unlock()

	if err != nil {
		c.SetState(connectors.Disconnected)
		c.Fail(err)
		return err
	}
	c.SetState(connectors.Connected)
	return nil
}

func (c *Connector) Disconnect() error {
	c.mu.Lock()
	c.Disconnects++
	c.mu.Unlock()
	c.SetState(connectors.Disconnected)
	return nil
}

func (c *Connector) Send(ctx context.Context, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return c.SendErr
	}
	c.Sent = append(c.Sent, payload)
	return nil
}

func (c *Connector) UpdateHeaders(headers map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range headers {
		c.Headers[k] = v
	}
}

// Emit delivers payload to the data handlers.
func (c *Connector) Emit(payload any) {
	c.Publish(payload)
}

// Counts returns the number of Connect and Disconnect calls.
func (c *Connector) Counts() (connects, disconnects int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Connects, c.Disconnects
}

// Header returns the current value of a header set by UpdateHeaders.
func (c *Connector) Header(key string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Headers[key]
}

// SentPayloads returns a copy of the payloads passed to Send.
func (c *Connector) SentPayloads() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any{}, c.Sent...)
}
