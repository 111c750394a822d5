// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package sources

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/absmach/scadabind"
	"github.com/absmach/scadabind/connectors"
	"github.com/absmach/scadabind/normalizer"
	"github.com/absmach/scadabind/pkg/errors"
)

// Type names the transport behind a data source.
type Type string

const (
	MQTT      Type = "MQTT"
	WebSocket Type = "WebSocket"
	HTTP      Type = "HTTP"
	SSE       Type = "SSE"
)

var types = []Type{MQTT, WebSocket, HTTP, SSE}

// ParseType returns the canonical Type whose name matches s regardless of
// case.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	for _, t := range types {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return Type(s), errors.Wrap(ErrUnknownType, errors.New(s))
}

// UnmarshalJSON accepts type names in any case. Unknown names are kept as
// they are so that Validate can report them.
func (t *Type) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, _ := ParseType(s)
	*t = parsed
	return nil
}

var (
	// ErrUnknownType indicates a data source of an unsupported transport type.
	ErrUnknownType = errors.New("unknown data source type")

	// ErrUnknownParser indicates a parser preset that does not exist.
	ErrUnknownParser = errors.New("unknown parser preset")

	// ErrSendUnsupported indicates a write to a transport that is read-only.
	ErrSendUnsupported = errors.New("data source does not support sending")
)

// Config holds the transport parameters of a data source. Only the fields
// relevant to the source type are read. Durations are in milliseconds.
type Config struct {
	// MQTT
	Broker        string `json:"broker,omitempty" toml:"broker"`
	Topic         string `json:"topic,omitempty" toml:"topic"`
	WriteTopic    string `json:"writeTopic,omitempty" toml:"write_topic"`
	ClientID      string `json:"clientId,omitempty" toml:"client_id"`
	Username      string `json:"username,omitempty" toml:"username"`
	Password      string `json:"password,omitempty" toml:"password"`
	Transport     string `json:"transport,omitempty" toml:"transport"`
	AutoReconnect bool   `json:"autoReconnect,omitempty" toml:"auto_reconnect"`

	// WebSocket, HTTP and SSE. WSURL and SSEURL take precedence over URL
	// for their transport.
	URL    string `json:"url,omitempty" toml:"url"`
	WSURL  string `json:"wsUrl,omitempty" toml:"ws_url"`
	SSEURL string `json:"sseUrl,omitempty" toml:"sse_url"`

	// HTTP
	Method       string            `json:"method,omitempty" toml:"method"`
	PollInterval int               `json:"pollInterval,omitempty" toml:"poll_interval"`
	Headers      map[string]string `json:"headers,omitempty" toml:"headers"`
	Body         any               `json:"body,omitempty" toml:"body"`
	Timeout      int               `json:"timeout,omitempty" toml:"timeout"`

	// SSE
	EventType string `json:"eventType,omitempty" toml:"event_type"`

	DataPath         string `json:"dataPath,omitempty" toml:"data_path"`
	RetryCount       int    `json:"retryCount,omitempty" toml:"retry_count"`
	ReconnectDelay   int    `json:"reconnectDelay,omitempty" toml:"reconnect_delay"`
	DisableReconnect bool   `json:"disableReconnect,omitempty" toml:"disable_reconnect"`

	// Parser names a normalizer preset. CustomParser takes precedence.
	Parser       string                  `json:"parser,omitempty" toml:"parser"`
	CustomParser *normalizer.PathMapping `json:"customParser,omitempty" toml:"custom_parser"`
}

// Endpoint returns the URL the source type connects to.
func (c Config) Endpoint(t Type) string {
	switch {
	case t == WebSocket && c.WSURL != "":
		return c.WSURL
	case t == SSE && c.SSEURL != "":
		return c.SSEURL
	default:
		return c.URL
	}
}

// Status is the live connection status of a data source.
type Status struct {
	State      connectors.State `json:"state"`
	Connected  bool             `json:"connected"`
	LastUpdate string           `json:"lastUpdate,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// DataSource is a configured upstream endpoint together with the devices
// last normalized from its payloads.
type DataSource struct {
	ID      string             `json:"id" toml:"id"`
	Name    string             `json:"name" toml:"name"`
	Type    Type               `json:"type" toml:"type"`
	Enabled bool               `json:"enabled" toml:"enabled"`
	Config  Config             `json:"config" toml:"config"`
	Status  Status             `json:"status" toml:"-"`
	Devices []scadabind.Device `json:"devices" toml:"-"`
}

// Validate checks the type and, for enabled sources, the parameters the
// transport cannot start without.
func (ds DataSource) Validate() error {
	t, err := ParseType(string(ds.Type))
	if err != nil {
		return errors.Wrap(errors.ErrMalformedEntity, err)
	}
	if ds.Config.Parser != "" && ds.Config.CustomParser == nil {
		if _, err := normalizer.Preset(ds.Config.Parser); err != nil {
			return errors.Wrap(errors.ErrMalformedEntity, errors.Wrap(ErrUnknownParser, errors.New(ds.Config.Parser)))
		}
	}
	if !ds.Enabled {
		return nil
	}

	switch t {
	case MQTT:
		if strings.TrimSpace(ds.Config.Broker) == "" {
			return errors.Wrap(errors.ErrMalformedEntity, connectors.ErrMissingURL)
		}
		if strings.TrimSpace(ds.Config.Topic) == "" {
			return errors.Wrap(errors.ErrMalformedEntity, connectors.ErrMissingTopic)
		}
	default:
		if strings.TrimSpace(ds.Config.Endpoint(t)) == "" {
			return errors.Wrap(errors.ErrMalformedEntity, connectors.ErrMissingURL)
		}
	}
	return nil
}

// Update is a partial data source update. Nil fields are left unchanged.
type Update struct {
	Name    *string `json:"name,omitempty"`
	Enabled *bool   `json:"enabled,omitempty"`
	Config  *Config `json:"config,omitempty"`
}

// DeviceRef is a device together with the data source it came from.
type DeviceRef struct {
	DataSourceID   string           `json:"dataSourceId"`
	DataSourceName string           `json:"dataSourceName"`
	Device         scadabind.Device `json:"device"`
}

// Listener receives every raw payload with the id of its data source.
type Listener func(sourceID string, payload any)

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
