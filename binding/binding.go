// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package binding pushes point values from data source payloads into the
// state of the visual nodes bound to them.
package binding

import (
	"github.com/absmach/scadabind/mapping"
	"github.com/absmach/scadabind/pkg/errors"
	"github.com/mitchellh/mapstructure"
)

const (
	dataBindingKey = "dataBinding"
	bindingsKey    = "bindings"
)

// ErrDecodeBinding indicates node data whose binding declarations cannot
// be decoded.
var ErrDecodeBinding = errors.New("failed to decode node bindings")

// Node is a visual node and its observable data.
type Node struct {
	ID   string         `json:"id"`
	Data map[string]any `json:"data"`
}

// Graph is the node collection the dispatcher reads from and writes to.
type Graph interface {
	// Nodes returns a snapshot of every node.
	Nodes() []Node

	// Node returns a snapshot of the node with the given id.
	Node(id string) (Node, bool)

	// SetState merges patch into the node data and notifies observers.
	SetState(id string, patch map[string]any) error
}

// Store is a Graph whose nodes can be replaced and removed.
type Store interface {
	Graph

	// Put replaces the node with the same id or adds it.
	Put(node Node) error

	// Delete removes the node with the given id.
	Delete(id string) error
}

// DataBinding ties a node to a data source and, optionally, one device
// of that source.
type DataBinding struct {
	DataSourceID string `json:"dataSourceId" mapstructure:"dataSourceId"`
	DeviceID     string `json:"deviceId,omitempty" mapstructure:"deviceId"`
}

// Binding links one node property to one point.
type Binding struct {
	ID             string          `json:"id,omitempty" mapstructure:"id"`
	DevicePointID  string          `json:"devicePointId" mapstructure:"devicePointId"`
	TargetProperty string          `json:"targetProperty" mapstructure:"targetProperty"`
	Mapping        *mapping.Config `json:"mapping,omitempty" mapstructure:"mapping"`
	Enabled        *bool           `json:"enabled,omitempty" mapstructure:"enabled"`
}

// Active reports whether the binding takes part in dispatch. Bindings are
// enabled unless explicitly disabled.
func (b Binding) Active() bool {
	if b.Enabled != nil && !*b.Enabled {
		return false
	}
	return b.DevicePointID != "" && b.TargetProperty != ""
}

// Validate checks the mapping rule of the binding.
func (b Binding) Validate() error {
	if b.Mapping == nil {
		return nil
	}
	if err := b.Mapping.Validate(); err != nil {
		return errors.Wrap(errors.ErrMalformedEntity, err)
	}
	return nil
}

// Declarations reads the data binding and the bindings from node data.
// The data binding is nil when the node declares none.
func Declarations(data map[string]any) (*DataBinding, []Binding, error) {
	var db *DataBinding
	if raw, ok := data[dataBindingKey]; ok && raw != nil {
		db = &DataBinding{}
		if err := decode(raw, db); err != nil {
			return nil, nil, err
		}
	}

	var bindings []Binding
	if raw, ok := data[bindingsKey]; ok && raw != nil {
		if err := decode(raw, &bindings); err != nil {
			return nil, nil, err
		}
	}

	return db, bindings, nil
}

func decode(input, output any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           output,
	})
	if err != nil {
		return errors.Wrap(ErrDecodeBinding, err)
	}
	if err := dec.Decode(input); err != nil {
		return errors.Wrap(ErrDecodeBinding, err)
	}
	return nil
}
