// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package mqtt_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/absmach/scadabind/connectors"
	"github.com/absmach/scadabind/connectors/mqtt"
	"github.com/absmach/scadabind/connectors/mqtt/mocks"
	"github.com/absmach/scadabind/pkg/errors"
	"github.com/absmach/scadabind/pkg/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveBrokerURL(t *testing.T) {
	cases := []struct {
		desc      string
		broker    string
		transport mqtt.Transport
		url       string
		err       error
	}{
		{"mqtt scheme to websocket", "mqtt://broker.local", mqtt.TransportWS, "ws://broker.local:8083/mqtt", nil},
		{"mqtt scheme with port to websocket", "mqtt://broker.local:1883", mqtt.TransportWS, "ws://broker.local:8083/mqtt", nil},
		{"mqtts scheme to secure websocket", "mqtts://broker.local", mqtt.TransportWS, "wss://broker.local:8084/mqtt", nil},
		{"bare host", "10.0.0.5", mqtt.TransportWS, "ws://10.0.0.5:8083/mqtt", nil},
		{"websocket kept", "ws://broker.local:9001/ws", mqtt.TransportWS, "ws://broker.local:9001/ws", nil},
		{"secure websocket kept", "wss://broker.local/mqtt", mqtt.TransportWS, "wss://broker.local/mqtt", nil},
		{"mqtt scheme to tcp", "mqtt://broker.local", mqtt.TransportTCP, "tcp://broker.local:1883", nil},
		{"mqtt scheme with port to tcp", "mqtt://broker.local:2883", mqtt.TransportTCP, "tcp://broker.local:2883", nil},
		{"mqtts scheme to ssl", "mqtts://broker.local", mqtt.TransportTCP, "ssl://broker.local:8883", nil},
		{"empty broker", "  ", mqtt.TransportWS, "", connectors.ErrMissingURL},
	}

	for _, tc := range cases {
		url, err := mqtt.ResolveBrokerURL(tc.broker, tc.transport)
		assert.True(t, errors.Contains(err, tc.err), fmt.Sprintf("%s: expected error %v got %v", tc.desc, tc.err, err))
		assert.Equal(t, tc.url, url, fmt.Sprintf("%s: expected %s got %s", tc.desc, tc.url, url))
	}

	_, err := mqtt.ResolveBrokerURL("http://broker.local", mqtt.TransportWS)
	assert.NotNil(t, err, "unsupported scheme must fail")
}

func TestConnectValidation(t *testing.T) {
	cases := []struct {
		desc string
		cfg  mqtt.Config
		err  error
	}{
		{"missing broker", mqtt.Config{Topic: "t"}, connectors.ErrMissingURL},
		{"missing topic", mqtt.Config{Broker: "mqtt://b"}, connectors.ErrMissingTopic},
	}

	for _, tc := range cases {
		client := &mocks.Client{}
		c := mqtt.New(tc.cfg, uuid.NewMock(), client.Factory())
		err := c.Connect(context.Background())
		assert.True(t, errors.Contains(err, tc.err), fmt.Sprintf("%s: expected %v got %v", tc.desc, tc.err, err))
		assert.Nil(t, client.Opts, fmt.Sprintf("%s: client must not be created", tc.desc))
		assert.Equal(t, connectors.Disconnected, c.State())
	}
}

func TestConnectAndReceive(t *testing.T) {
	client := &mocks.Client{}
	c := mqtt.New(mqtt.Config{
		Broker:   "mqtt://broker.local",
		Topic:    "plant/line1",
		DataPath: "a.b.c",
		Username: "operator",
		Password: "secret",
	}, uuid.NewMock(), client.Factory())

	var states []connectors.State
	var payloads []any
	var errs []error
	c.OnStatusChange(func(s connectors.State) { states = append(states, s) })
	c.OnData(func(p any) { payloads = append(payloads, p) })
	c.OnError(func(err error) { errs = append(errs, err) })

	require.Nil(t, c.Connect(context.Background()))

	require.NotNil(t, client.Opts)
	assert.Equal(t, "ws://broker.local:8083/mqtt", client.Opts.Servers[0].String())
	assert.Equal(t, "scada_000001", client.Opts.ClientID)
	assert.Equal(t, "operator", client.Opts.Username)
	assert.True(t, client.Opts.CleanSession)
	assert.False(t, client.Opts.AutoReconnect, "library reconnect must be off by default")
	assert.Equal(t, "plant/line1", client.Topic)
	assert.Equal(t, connectors.Connected, c.State())

	client.Deliver([]byte(`{"a":{"b":{"c":42}}}`))
	client.Deliver([]byte(`{"a":{}}`))
	client.Deliver([]byte(`not json`))

	assert.Equal(t, []any{42.0}, payloads, "only the extracted value must be forwarded")
	require.Len(t, errs, 1)
	assert.True(t, errors.Contains(errs[0], connectors.ErrDecode))
	assert.Equal(t, []connectors.State{connectors.Connecting, connectors.Connected}, states)

	client.Lose(errors.New("EOF"))
	assert.Equal(t, connectors.Disconnected, c.State())
	require.Len(t, errs, 2)
	assert.True(t, errors.Contains(errs[1], connectors.ErrTransport))

	require.Nil(t, c.Disconnect())
	assert.Equal(t, 1, client.Disconnects)
}

func TestConnectFailure(t *testing.T) {
	client := &mocks.Client{ConnectErr: errors.New("not authorized")}
	c := mqtt.New(mqtt.Config{Broker: "b", Topic: "t"}, nil, client.Factory())

	var errs []error
	c.OnError(func(err error) { errs = append(errs, err) })

	err := c.Connect(context.Background())
	assert.True(t, errors.Contains(err, connectors.ErrConnect), fmt.Sprintf("expected %s got %s", connectors.ErrConnect, err))
	assert.Equal(t, connectors.Disconnected, c.State())
	assert.Len(t, errs, 1)
	assert.Equal(t, 1, client.Disconnects, "failed client must be closed")
}

func TestConnectTimeout(t *testing.T) {
	client := &mocks.Client{Block: true}
	c := mqtt.New(mqtt.Config{Broker: "b", Topic: "t", ConnectTimeout: 30 * time.Millisecond}, nil, client.Factory())

	start := time.Now()
	err := c.Connect(context.Background())
	assert.True(t, errors.Contains(err, connectors.ErrConnectTimeout), fmt.Sprintf("expected %s got %s", connectors.ErrConnectTimeout, err))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Equal(t, 1, client.Disconnects, "timed out client must be force closed")
	assert.Equal(t, connectors.Disconnected, c.State())
}

func TestSubscribeFailure(t *testing.T) {
	errDenied := errors.New("not authorized")

	cases := []struct {
		desc   string
		client *mocks.Client
		err    error
	}{
		{
			desc:   "subscription rejected",
			client: &mocks.Client{SubscribeErr: errDenied},
			err:    errDenied,
		},
		{
			desc:   "subscription not acknowledged in time",
			client: &mocks.Client{SubscribeBlock: true},
			err:    connectors.ErrConnectTimeout,
		},
	}

	for _, tc := range cases {
		c := mqtt.New(mqtt.Config{Broker: "b", Topic: "plant/#", ConnectTimeout: 30 * time.Millisecond}, nil, tc.client.Factory())

		var states []connectors.State
		var errs []error
		c.OnStatusChange(func(s connectors.State) { states = append(states, s) })
		c.OnError(func(err error) { errs = append(errs, err) })

		require.Nil(t, c.Connect(context.Background()), tc.desc)
		assert.Equal(t, connectors.Disconnected, c.State(), fmt.Sprintf("%s: connector must not report connected", tc.desc))
		assert.NotContains(t, states, connectors.Connected, tc.desc)
		require.Len(t, errs, 1, tc.desc)
		assert.True(t, errors.Contains(errs[0], mqtt.ErrSubscribe), fmt.Sprintf("%s: expected %s got %s", tc.desc, mqtt.ErrSubscribe, errs[0]))
		assert.True(t, errors.Contains(errs[0], tc.err), fmt.Sprintf("%s: expected %v got %s", tc.desc, tc.err, errs[0]))

		tc.client.Deliver([]byte(`{"v":1}`))
		require.Nil(t, c.Disconnect(), tc.desc)
	}
}

func TestAutoReconnect(t *testing.T) {
	client := &mocks.Client{}
	c := mqtt.New(mqtt.Config{Broker: "b", Topic: "t", AutoReconnect: true}, nil, client.Factory())
	require.Nil(t, c.Connect(context.Background()))
	assert.True(t, client.Opts.AutoReconnect)

	client.Lose(errors.New("EOF"))
	assert.Equal(t, connectors.Reconnecting, c.State())
}

func TestSend(t *testing.T) {
	client := &mocks.Client{}
	c := mqtt.New(mqtt.Config{Broker: "b", Topic: "plant/data", WriteTopic: "plant/cmd"}, nil, client.Factory())
	sender := c.(connectors.Sender)

	err := sender.Send(context.Background(), map[string]any{"valve": true})
	assert.Equal(t, connectors.ErrNotConnected, err)

	require.Nil(t, c.Connect(context.Background()))
	require.Nil(t, sender.Send(context.Background(), map[string]any{"valve": true}))
	require.Nil(t, sender.Send(context.Background(), "raw"))

	require.Len(t, client.Published, 2)
	assert.Equal(t, "plant/cmd", client.Published[0].Topic)
	assert.JSONEq(t, `{"valve":true}`, string(client.Published[0].Payload))
	assert.Equal(t, "raw", string(client.Published[1].Payload))
}
