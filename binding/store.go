// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package binding

import (
	"encoding/json"
	"os"
	"sort"
	"sync"

	"github.com/absmach/scadabind/pkg/errors"
)

// ErrLoadNodes indicates a node file that cannot be read or decoded.
var ErrLoadNodes = errors.New("failed to load nodes")

var _ Store = (*NodeStore)(nil)

// NodeStore is an in-memory Store. Every read returns a deep copy, and
// observers are notified after each write with the resulting node.
type NodeStore struct {
	mu        sync.RWMutex
	nodes     map[string]map[string]any
	observers map[uint64]func(Node)
	next      uint64
}

// NewNodeStore returns an empty node store.
func NewNodeStore() *NodeStore {
	return &NodeStore{
		nodes:     map[string]map[string]any{},
		observers: map[uint64]func(Node){},
	}
}

func (ns *NodeStore) Nodes() []Node {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	nodes := make([]Node, 0, len(ns.nodes))
	for id, data := range ns.nodes {
		nodes = append(nodes, Node{ID: id, Data: cloneMap(data)})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	return nodes
}

func (ns *NodeStore) Node(id string) (Node, bool) {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	data, ok := ns.nodes[id]
	if !ok {
		return Node{}, false
	}
	return Node{ID: id, Data: cloneMap(data)}, true
}

// SetState replaces the patched keys in a copy of the node data and
// swaps the copy in, so readers never see a half-applied patch.
func (ns *NodeStore) SetState(id string, patch map[string]any) error {
	ns.mu.Lock()
	data, ok := ns.nodes[id]
	if !ok {
		ns.mu.Unlock()
		return errors.ErrNotFound
	}
	merged := cloneMap(data)
	for k, v := range patch {
		merged[k] = cloneValue(v)
	}
	ns.nodes[id] = merged
	observers := ns.snapshotObservers()
	ns.mu.Unlock()

	ns.notify(observers, id, merged)
	return nil
}

func (ns *NodeStore) Put(node Node) error {
	if node.ID == "" {
		return errors.ErrMalformedEntity
	}
	data := cloneMap(node.Data)
	if data == nil {
		data = map[string]any{}
	}

	ns.mu.Lock()
	ns.nodes[node.ID] = data
	observers := ns.snapshotObservers()
	ns.mu.Unlock()

	ns.notify(observers, node.ID, data)
	return nil
}

func (ns *NodeStore) Delete(id string) error {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if _, ok := ns.nodes[id]; !ok {
		return errors.ErrNotFound
	}
	delete(ns.nodes, id)
	return nil
}

// Subscribe registers an observer of node writes and returns a func that
// removes it.
func (ns *NodeStore) Subscribe(observer func(Node)) func() {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	id := ns.next
	ns.next++
	ns.observers[id] = observer

	return func() {
		ns.mu.Lock()
		defer ns.mu.Unlock()
		delete(ns.observers, id)
	}
}

// Load adds the nodes of a JSON document. The document is either an array
// of nodes or an object holding them under "nodes" or, as in saved canvas
// documents, "cells".
func (ns *NodeStore) Load(path string) error {
	if path == "" {
		return errors.ErrEmptyPath
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(ErrLoadNodes, err)
	}

	var nodes []Node
	if err := json.Unmarshal(raw, &nodes); err != nil {
		var doc struct {
			Nodes []Node `json:"nodes"`
			Cells []Node `json:"cells"`
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return errors.Wrap(ErrLoadNodes, err)
		}
		nodes = append(doc.Nodes, doc.Cells...)
	}

	for _, n := range nodes {
		if n.ID == "" {
			continue
		}
		if err := ns.Put(n); err != nil {
			return errors.Wrap(ErrLoadNodes, err)
		}
	}
	return nil
}

func (ns *NodeStore) snapshotObservers() []func(Node) {
	observers := make([]func(Node), 0, len(ns.observers))
	for _, o := range ns.observers {
		observers = append(observers, o)
	}
	return observers
}

func (ns *NodeStore) notify(observers []func(Node), id string, data map[string]any) {
	for _, o := range observers {
		o(Node{ID: id, Data: cloneMap(data)})
	}
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}
