// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package mqtt implements a connector that subscribes to one MQTT topic.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/absmach/scadabind"
	"github.com/absmach/scadabind/connectors"
	"github.com/absmach/scadabind/pkg/errors"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	// DefaultConnectTimeout bounds the connect phase.
	DefaultConnectTimeout = 15 * time.Second

	keepAlive      = 60 * time.Second
	publishTimeout = 10 * time.Second
	clientIDPrefix = "scada_"
	clientIDLength = 6
)

// ErrSubscribe indicates a subscription that failed or was not acknowledged
// in time.
var ErrSubscribe = errors.New("failed to subscribe")

// Config holds the MQTT source parameters.
type Config struct {
	Broker     string
	Topic      string
	WriteTopic string
	ClientID   string
	Username   string
	Password   string
	DataPath   string
	QoS        byte
	Transport  Transport
	// AutoReconnect lets the client library reconnect on its own.
	AutoReconnect  bool
	ConnectTimeout time.Duration
}

// ClientFactory builds the underlying paho client.
type ClientFactory func(opts *mqtt.ClientOptions) mqtt.Client

var (
	_ connectors.Connector = (*connector)(nil)
	_ connectors.Sender    = (*connector)(nil)
)

type connector struct {
	connectors.Base

	cfg       Config
	idp       scadabind.IDProvider
	newClient ClientFactory

	mu     sync.Mutex
	client mqtt.Client
}

// New returns an MQTT connector. A nil factory uses paho's NewClient.
func New(cfg Config, idp scadabind.IDProvider, factory ClientFactory) connectors.Connector {
	if factory == nil {
		factory = mqtt.NewClient
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.Transport == "" {
		cfg.Transport = TransportWS
	}
	return &connector{
		cfg:       cfg,
		idp:       idp,
		newClient: factory,
	}
}

func (c *connector) Connect(ctx context.Context) error {
	broker, err := ResolveBrokerURL(c.cfg.Broker, c.cfg.Transport)
	if err != nil {
		return err
	}
	if strings.TrimSpace(c.cfg.Topic) == "" {
		return connectors.ErrMissingTopic
	}

	c.teardown()
	c.SetState(connectors.Connecting)

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(c.clientID()).
		SetCleanSession(true).
		SetKeepAlive(keepAlive).
		SetConnectTimeout(c.cfg.ConnectTimeout).
		SetAutoReconnect(c.cfg.AutoReconnect).
		SetConnectRetry(false).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(c.onConnectionLost).
		SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
			c.SetState(connectors.Reconnecting)
		})
	if strings.TrimSpace(c.cfg.Username) != "" {
		opts.SetUsername(c.cfg.Username)
		opts.SetPassword(c.cfg.Password)
	}

	client := c.newClient(opts)
	c.mu.Lock()
	c.client = client
	c.mu.Unlock()

	token := client.Connect()
	timer := time.NewTimer(c.cfg.ConnectTimeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		err = token.Error()
	case <-timer.C:
		err = connectors.ErrConnectTimeout
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		c.teardown()
		c.SetState(connectors.Disconnected)
		err = errors.Wrap(connectors.ErrConnect, err)
		c.Fail(err)
		return err
	}
	return nil
}

func (c *connector) Disconnect() error {
	c.teardown()
	c.SetState(connectors.Disconnected)
	return nil
}

func (c *connector) Send(ctx context.Context, payload any) error {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()
	if client == nil || !client.IsConnected() {
		return connectors.ErrNotConnected
	}

	data, err := encode(payload)
	if err != nil {
		return err
	}
	topic := c.cfg.WriteTopic
	if topic == "" {
		topic = c.cfg.Topic
	}

	token := client.Publish(topic, c.cfg.QoS, false, data)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return errors.Wrap(connectors.ErrTransport, err)
		}
		return nil
	case <-time.After(publishTimeout):
		return errors.Wrap(connectors.ErrTransport, errors.New("publish timed out"))
	case <-ctx.Done():
		return ctx.Err()
	}
}

// onConnect runs on every successful connection, including library
// reconnects, so the subscription is renewed each time. The connector is
// Connected only once the subscription is acknowledged.
func (c *connector) onConnect(client mqtt.Client) {
	token := client.Subscribe(c.cfg.Topic, c.cfg.QoS, c.handleMessage)
	var err error
	switch {
	case !token.WaitTimeout(c.cfg.ConnectTimeout):
		err = errors.Wrap(ErrSubscribe, connectors.ErrConnectTimeout)
	case token.Error() != nil:
		err = errors.Wrap(ErrSubscribe, token.Error())
	}
	if err != nil {
		c.SetState(connectors.Disconnected)
		c.Fail(err)
		return
	}
	c.SetState(connectors.Connected)
}

func (c *connector) onConnectionLost(_ mqtt.Client, err error) {
	if c.cfg.AutoReconnect {
		c.SetState(connectors.Reconnecting)
	} else {
		c.SetState(connectors.Disconnected)
	}
	c.Fail(errors.Wrap(connectors.ErrTransport, err))
}

func (c *connector) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	payload, ok, err := connectors.Decode(msg.Payload(), c.cfg.DataPath)
	if err != nil {
		c.Fail(err)
		return
	}
	if ok {
		c.Publish(payload)
	}
}

func (c *connector) teardown() {
	c.mu.Lock()
	client := c.client
	c.client = nil
	c.mu.Unlock()

	if client != nil {
		client.Disconnect(0)
	}
}

func (c *connector) clientID() string {
	if c.cfg.ClientID != "" {
		return c.cfg.ClientID
	}
	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	if c.idp != nil {
		if id, err := c.idp.ID(); err == nil {
			suffix = strings.ReplaceAll(id, "-", "")
		}
	}
	if len(suffix) > clientIDLength {
		suffix = suffix[len(suffix)-clientIDLength:]
	}
	return clientIDPrefix + suffix
}

func encode(payload any) ([]byte, error) {
	switch p := payload.(type) {
	case string:
		return []byte(p), nil
	case []byte:
		return p, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(errors.ErrMalformedEntity, err)
	}
	return data, nil
}
