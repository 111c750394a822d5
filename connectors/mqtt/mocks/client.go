// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package mocks contains an in-memory paho client for connector tests.
package mocks

import (
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

var _ mqtt.Client = (*Client)(nil)

// Client is a scripted paho client. Connect completes immediately with
// ConnectErr unless Block is set, in which case the token never completes.
// SubscribeErr and SubscribeBlock script the subscription the same way.
type Client struct {
	mu sync.Mutex

	Opts           *mqtt.ClientOptions
	ConnectErr     error
	Block          bool
	SubscribeErr   error
	SubscribeBlock bool

	connected   bool
	handler     mqtt.MessageHandler
	Topic       string
	Published   []Published
	Disconnects int
}

// Published is one recorded Publish call.
type Published struct {
	Topic   string
	QoS     byte
	Payload []byte
}

// Factory returns a ClientFactory-compatible func that stores opts on c.
func (c *Client) Factory() func(opts *mqtt.ClientOptions) mqtt.Client {
	return func(opts *mqtt.ClientOptions) mqtt.Client {
		c.mu.Lock()
		c.Opts = opts
		c.mu.Unlock()
		return c
	}
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Client) IsConnectionOpen() bool {
	return c.IsConnected()
}

func (c *Client) Connect() mqtt.Token {
	if c.Block {
		return newToken(nil, false)
	}
	if c.ConnectErr != nil {
		return newToken(c.ConnectErr, true)
	}
	c.mu.Lock()
	c.connected = true
	onConnect := c.Opts.OnConnect
	c.mu.Unlock()
	if onConnect != nil {
		onConnect(c)
	}
	return newToken(nil, true)
}

func (c *Client) Disconnect(quiesce uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	c.Disconnects++
}

func (c *Client) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, _ := payload.([]byte)
	c.Published = append(c.Published, Published{Topic: topic, QoS: qos, Payload: data})
	return newToken(nil, true)
}

func (c *Client) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Topic = topic
	if c.SubscribeBlock {
		return newToken(nil, false)
	}
	if c.SubscribeErr != nil {
		return newToken(c.SubscribeErr, true)
	}
	c.handler = callback
	return newToken(nil, true)
}

func (c *Client) SubscribeMultiple(filters map[string]byte, callback mqtt.MessageHandler) mqtt.Token {
	return newToken(nil, true)
}

func (c *Client) Unsubscribe(topics ...string) mqtt.Token {
	return newToken(nil, true)
}

func (c *Client) AddRoute(topic string, callback mqtt.MessageHandler) {}

func (c *Client) OptionsReader() mqtt.ClientOptionsReader {
	return mqtt.ClientOptionsReader{}
}

// Deliver hands payload to the subscribed message handler.
func (c *Client) Deliver(payload []byte) {
	c.mu.Lock()
	h, topic := c.handler, c.Topic
	c.mu.Unlock()
	if h != nil {
		h(c, &message{topic: topic, payload: payload})
	}
}

// Lose simulates a dropped connection.
func (c *Client) Lose(err error) {
	c.mu.Lock()
	c.connected = false
	lost := c.Opts.OnConnectionLost
	c.mu.Unlock()
	if lost != nil {
		lost(c, err)
	}
}

type token struct {
	err  error
	done chan struct{}
}

func newToken(err error, complete bool) *token {
	t := &token{err: err, done: make(chan struct{})}
	if complete {
		close(t.done)
	}
	return t
}

func (t *token) Wait() bool {
	<-t.done
	return true
}

func (t *token) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *token) Done() <-chan struct{} {
	return t.done
}

func (t *token) Error() error {
	return t.err
}

type message struct {
	topic   string
	payload []byte
}

func (m *message) Duplicate() bool   { return false }
func (m *message) Qos() byte         { return 0 }
func (m *message) Retained() bool    { return false }
func (m *message) Topic() string     { return m.topic }
func (m *message) MessageID() uint16 { return 0 }
func (m *message) Payload() []byte   { return m.payload }
func (m *message) Ack()              {}
