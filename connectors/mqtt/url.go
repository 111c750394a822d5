// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package mqtt

import (
	"net"
	"net/url"
	"strings"

	"github.com/absmach/scadabind/connectors"
	"github.com/absmach/scadabind/pkg/errors"
)

// Transport selects how the broker is reached.
type Transport string

const (
	// TransportWS reaches the broker over MQTT-over-WebSocket, the only
	// option available to browser dashboards sharing the same brokers.
	TransportWS Transport = "ws"
	// TransportTCP reaches the broker over plain or TLS TCP.
	TransportTCP Transport = "tcp"
)

const (
	wsPort     = "8083"
	wssPort    = "8084"
	tcpPort    = "1883"
	sslPort    = "8883"
	wsEndpoint = "/mqtt"
)

var errInvalidBroker = errors.New("invalid broker url")

// ResolveBrokerURL turns a configured broker address into a URL the client
// can dial. With TransportWS, mqtt:// and bare hosts map to ws://host:8083/mqtt
// and mqtts:// maps to wss://host:8084/mqtt, while ws:// and wss:// URLs are
// used as given. With TransportTCP, mqtt:// maps to tcp://host:1883 and
// mqtts:// to ssl://host:8883.
func ResolveBrokerURL(broker string, transport Transport) (string, error) {
	broker = strings.TrimSpace(broker)
	if broker == "" {
		return "", connectors.ErrMissingURL
	}

	scheme, rest := "", broker
	if i := strings.Index(broker, "://"); i >= 0 {
		scheme, rest = strings.ToLower(broker[:i]), broker[i+3:]
	}
	host := hostname(rest)
	if host == "" {
		return "", errors.Wrap(errInvalidBroker, errors.New(broker))
	}

	if transport == TransportTCP {
		switch scheme {
		case "mqtt", "tcp", "":
			return "tcp://" + net.JoinHostPort(host, portOr(rest, tcpPort)), nil
		case "mqtts", "ssl", "tls":
			return "ssl://" + net.JoinHostPort(host, portOr(rest, sslPort)), nil
		case "ws", "wss":
			return broker, nil
		}
		return "", errors.Wrap(errInvalidBroker, errors.New(broker))
	}

	switch scheme {
	case "ws", "wss":
		return broker, nil
	case "mqtt", "tcp", "":
		return "ws://" + net.JoinHostPort(host, wsPort) + wsEndpoint, nil
	case "mqtts", "ssl", "tls":
		return "wss://" + net.JoinHostPort(host, wssPort) + wsEndpoint, nil
	}
	return "", errors.Wrap(errInvalidBroker, errors.New(broker))
}

// hostname strips port, path and credentials from an authority.
func hostname(rest string) string {
	u, err := url.Parse("//" + rest)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func portOr(rest, fallback string) string {
	u, err := url.Parse("//" + rest)
	if err != nil || u.Port() == "" {
		return fallback
	}
	return u.Port()
}
