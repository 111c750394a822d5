// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package mocks contains testify mocks of the node store and the binding
// dispatcher.
package mocks

import (
	"github.com/absmach/scadabind/binding"
	"github.com/stretchr/testify/mock"
)

var _ binding.Store = (*Store)(nil)

// Store is a mock type for the binding.Store type. It records every patch
// written through SetState.
type Store struct {
	mock.Mock
}

func (m *Store) Nodes() []binding.Node {
	ret := m.Called()

	if nodes, ok := ret.Get(0).([]binding.Node); ok {
		return nodes
	}

	return nil
}

func (m *Store) Node(id string) (binding.Node, bool) {
	ret := m.Called(id)

	return ret.Get(0).(binding.Node), ret.Bool(1)
}

func (m *Store) SetState(id string, patch map[string]any) error {
	ret := m.Called(id, patch)

	return ret.Error(0)
}

func (m *Store) Put(node binding.Node) error {
	ret := m.Called(node)

	return ret.Error(0)
}

func (m *Store) Delete(id string) error {
	ret := m.Called(id)

	return ret.Error(0)
}
