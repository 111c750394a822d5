// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package sources

import (
	"net/http"

	"github.com/absmach/scadabind"
	"github.com/absmach/scadabind/connectors"
	"github.com/absmach/scadabind/connectors/httppoll"
	"github.com/absmach/scadabind/connectors/mqtt"
	"github.com/absmach/scadabind/connectors/sse"
	"github.com/absmach/scadabind/connectors/ws"
	"github.com/absmach/scadabind/pkg/errors"
)

// ConnectorFactory builds the connector of a data source. The global
// HTTP headers are passed separately and are overridden by the headers of
// the source itself.
type ConnectorFactory func(ds DataSource, globalHeaders map[string]string) (connectors.Connector, error)

// NewConnectorFactory returns the factory for the built-in transports.
// idp generates MQTT client ids and client is shared by HTTP-based
// transports.
func NewConnectorFactory(idp scadabind.IDProvider, client *http.Client) ConnectorFactory {
	return func(ds DataSource, globalHeaders map[string]string) (connectors.Connector, error) {
		cfg := ds.Config
		t, _ := ParseType(string(ds.Type))
		switch t {
		case MQTT:
			return mqtt.New(mqtt.Config{
				Broker:        cfg.Broker,
				Topic:         cfg.Topic,
				WriteTopic:    cfg.WriteTopic,
				ClientID:      cfg.ClientID,
				Username:      cfg.Username,
				Password:      cfg.Password,
				DataPath:      cfg.DataPath,
				Transport:     mqtt.Transport(cfg.Transport),
				AutoReconnect: cfg.AutoReconnect,
			}, idp, nil), nil
		case WebSocket:
			return ws.New(ws.Config{
				URL:              cfg.Endpoint(t),
				DataPath:         cfg.DataPath,
				Headers:          cfg.Headers,
				ReconnectDelay:   millis(cfg.ReconnectDelay),
				DisableReconnect: cfg.DisableReconnect,
				RetryCount:       cfg.RetryCount,
			}), nil
		case SSE:
			return sse.New(sse.Config{
				URL:              cfg.Endpoint(t),
				DataPath:         cfg.DataPath,
				EventType:        cfg.EventType,
				Headers:          cfg.Headers,
				ReconnectDelay:   millis(cfg.ReconnectDelay),
				DisableReconnect: cfg.DisableReconnect,
				RetryCount:       cfg.RetryCount,
			}, nil), nil
		case HTTP:
			return httppoll.New(httppoll.Config{
				URL:      cfg.Endpoint(t),
				Method:   cfg.Method,
				Headers:  mergeHeaders(globalHeaders, cfg.Headers),
				Body:     cfg.Body,
				Interval: millis(cfg.PollInterval),
				Timeout:  millis(cfg.Timeout),
				DataPath: cfg.DataPath,
			}, client, nil), nil
		default:
			return nil, errors.Wrap(ErrUnknownType, errors.New(string(ds.Type)))
		}
	}
}

func mergeHeaders(layers ...map[string]string) map[string]string {
	merged := map[string]string{}
	for _, l := range layers {
		for k, v := range l {
			merged[k] = v
		}
	}
	return merged
}
