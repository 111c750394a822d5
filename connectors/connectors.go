// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package connectors defines the contract shared by the transport
// connectors (MQTT, WebSocket, SSE and HTTP polling) and the building
// blocks they are assembled from.
package connectors

import (
	"context"

	"github.com/absmach/scadabind/pkg/errors"
)

var (
	// ErrDisabled indicates a connect attempt on a disabled source.
	ErrDisabled = errors.New("connector is disabled")

	// ErrMissingURL indicates that no endpoint URL was configured.
	ErrMissingURL = errors.New("missing url")

	// ErrMissingTopic indicates an MQTT source without a topic.
	ErrMissingTopic = errors.New("missing topic")

	// ErrConnect indicates that the transport could not be established.
	ErrConnect = errors.New("failed to connect")

	// ErrConnectTimeout indicates that the connect phase did not finish in time.
	ErrConnectTimeout = errors.New("connect timed out")

	// ErrNotConnected indicates an operation that needs a live connection.
	ErrNotConnected = errors.New("not connected")

	// ErrDecode indicates a payload that is not valid JSON.
	ErrDecode = errors.New("failed to decode payload")

	// ErrTransport indicates a runtime socket, stream or client failure.
	ErrTransport = errors.New("transport error")

	// ErrHTTPStatus indicates a non-2xx HTTP response.
	ErrHTTPStatus = errors.New("unexpected http status")

	// ErrStreamClosed indicates that a remote peer ended the stream.
	ErrStreamClosed = errors.New("stream closed by peer")
)

// DataHandler receives each decoded payload.
type DataHandler func(payload any)

// ErrorHandler receives every connector failure. The cause can be
// inspected with errors.Contains against the sentinels of this package.
type ErrorHandler func(err error)

// StatusHandler receives connection state transitions.
type StatusHandler func(state State)

// Connector wraps one external transport.
type Connector interface {
	// Connect establishes the transport. It returns once, either when the
	// connection is up or when the first attempt failed. Configuration
	// errors are returned without touching the network.
	Connect(ctx context.Context) error

	// Disconnect tears down the transport and any pending reconnect.
	// No reconnect fires after Disconnect returns.
	Disconnect() error

	// OnData registers a payload handler and returns its unsubscribe func.
	OnData(h DataHandler) func()

	// OnError registers an error handler and returns its unsubscribe func.
	OnError(h ErrorHandler) func()

	// OnStatusChange registers a state handler and returns its unsubscribe func.
	OnStatusChange(h StatusHandler) func()

	// State returns the current connection state.
	State() State
}

// Sender is implemented by connectors that can write back to the source.
type Sender interface {
	Send(ctx context.Context, payload any) error
}

// HeaderUpdater is implemented by connectors whose requests carry headers
// that can be replaced while connected.
type HeaderUpdater interface {
	UpdateHeaders(headers map[string]string)
}
