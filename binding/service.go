// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package binding

import (
	"context"
	"encoding/json"

	"github.com/absmach/scadabind"
	"github.com/absmach/scadabind/mapping"
	"github.com/absmach/scadabind/pkg/errors"
)

// ErrSetState indicates that the graph rejected a node patch.
var ErrSetState = errors.New("failed to update node state")

// Service specifies an API that must be fullfiled by the binding
// dispatcher, and all of its decorators (e.g. logging & metrics).
type Service interface {
	// Dispatch applies a raw payload of the given source to every node
	// bound to that source and returns the number of updated nodes.
	Dispatch(ctx context.Context, sourceID string, payload any) (int, error)

	// ApplyDevice applies a normalized device to the nodes bound to the
	// source and the device id, and returns the number of updated nodes.
	ApplyDevice(ctx context.Context, sourceID string, device scadabind.Device) (int, error)

	// Nodes returns every node of the graph.
	Nodes(ctx context.Context) ([]Node, error)

	// ViewNode returns the node with the given id.
	ViewNode(ctx context.Context, id string) (Node, error)

	// SaveNode replaces the data of a node or adds it.
	SaveNode(ctx context.Context, node Node) (Node, error)

	// RemoveNode deletes a node.
	RemoveNode(ctx context.Context, id string) error

	// NodeBindings returns the bindings declared on a node.
	NodeBindings(ctx context.Context, id string) ([]Binding, error)

	// UpdateNodeBindings replaces the bindings declared on a node.
	UpdateNodeBindings(ctx context.Context, id string, bindings []Binding) error
}

var _ Service = (*dispatcher)(nil)

type dispatcher struct {
	store Store
}

// New instantiates the binding dispatcher over the given node store.
func New(store Store) Service {
	return &dispatcher{store: store}
}

func (d *dispatcher) Dispatch(ctx context.Context, sourceID string, payload any) (int, error) {
	return d.apply(sourceID, func(db DataBinding, b Binding) (any, string, bool) {
		v, ok := Extract(payload, b.DevicePointID, db.DeviceID)
		return v, "", ok
	}, false, "")
}

func (d *dispatcher) ApplyDevice(ctx context.Context, sourceID string, device scadabind.Device) (int, error) {
	return d.apply(sourceID, func(_ DataBinding, b Binding) (any, string, bool) {
		p, ok := device.Point(b.DevicePointID)
		if !ok || p.Value == nil {
			return nil, "", false
		}
		return p.Value, p.Unit, true
	}, true, device.ID)
}

// extractor returns the raw value of a binding and the unit reported with it.
type extractor func(db DataBinding, b Binding) (any, string, bool)

// UnitSuffix is appended to the target property to name the key holding
// the unit resolved by a binding mapping.
const UnitSuffix = "Unit"

// apply walks the graph once. Nodes whose declarations cannot be decoded
// are skipped. The first SetState failure is returned after every node
// has been visited.
func (d *dispatcher) apply(sourceID string, extract extractor, matchDevice bool, deviceID string) (int, error) {
	var (
		updated int
		failure error
	)
	for _, node := range d.store.Nodes() {
		db, bindings, err := Declarations(node.Data)
		if err != nil || db == nil || db.DataSourceID != sourceID {
			continue
		}
		if matchDevice && db.DeviceID != deviceID {
			continue
		}

		patch := map[string]any{}
		for _, b := range bindings {
			if !b.Active() {
				continue
			}
			v, unit, ok := extract(*db, b)
			if !ok {
				continue
			}
			patch[b.TargetProperty] = mapping.Apply(v, b.Mapping)
			if b.Mapping == nil {
				continue
			}
			if unit = mapping.Unit(v, b.Mapping, unit); unit != "" {
				patch[b.TargetProperty+UnitSuffix] = unit
			}
		}
		if len(patch) == 0 {
			continue
		}

		if err := d.store.SetState(node.ID, patch); err != nil {
			if failure == nil {
				failure = errors.Wrap(ErrSetState, err)
			}
			continue
		}
		updated++
	}

	return updated, failure
}

func (d *dispatcher) Nodes(ctx context.Context) ([]Node, error) {
	return d.store.Nodes(), nil
}

func (d *dispatcher) ViewNode(ctx context.Context, id string) (Node, error) {
	node, ok := d.store.Node(id)
	if !ok {
		return Node{}, errors.ErrNotFound
	}
	return node, nil
}

func (d *dispatcher) SaveNode(ctx context.Context, node Node) (Node, error) {
	if node.ID == "" {
		return Node{}, errors.ErrMalformedEntity
	}
	if node.Data == nil {
		node.Data = map[string]any{}
	}
	_, bindings, err := Declarations(node.Data)
	if err != nil {
		return Node{}, errors.Wrap(errors.ErrMalformedEntity, err)
	}
	for _, b := range bindings {
		if err := b.Validate(); err != nil {
			return Node{}, err
		}
	}
	if err := d.store.Put(node); err != nil {
		return Node{}, err
	}

	return d.ViewNode(ctx, node.ID)
}

func (d *dispatcher) RemoveNode(ctx context.Context, id string) error {
	return d.store.Delete(id)
}

func (d *dispatcher) NodeBindings(ctx context.Context, id string) ([]Binding, error) {
	node, err := d.ViewNode(ctx, id)
	if err != nil {
		return nil, err
	}
	_, bindings, err := Declarations(node.Data)
	if err != nil {
		return nil, err
	}
	if bindings == nil {
		bindings = []Binding{}
	}

	return bindings, nil
}

func (d *dispatcher) UpdateNodeBindings(ctx context.Context, id string, bindings []Binding) error {
	for _, b := range bindings {
		if err := b.Validate(); err != nil {
			return err
		}
	}
	if _, ok := d.store.Node(id); !ok {
		return errors.ErrNotFound
	}

	// Node data holds plain JSON values only.
	raw, err := json.Marshal(bindings)
	if err != nil {
		return errors.Wrap(errors.ErrMalformedEntity, err)
	}
	var plain []any
	if err := json.Unmarshal(raw, &plain); err != nil {
		return errors.Wrap(errors.ErrMalformedEntity, err)
	}
	if plain == nil {
		plain = []any{}
	}

	return d.store.SetState(id, map[string]any{bindingsKey: plain})
}
