// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package connectors

import "encoding/json"

// State is the connection state of a connector.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Reconnecting
)

var states = map[State]string{
	Disconnected: "disconnected",
	Connecting:   "connecting",
	Connected:    "connected",
	Reconnecting: "reconnecting",
}

func (s State) String() string {
	if str, ok := states[s]; ok {
		return str
	}
	return "unknown"
}

// MarshalJSON encodes the state by name.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a state name.
func (s *State) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	for st, name := range states {
		if name == str {
			*s = st
			return nil
		}
	}
	*s = Disconnected
	return nil
}
