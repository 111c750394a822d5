// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"

	"github.com/absmach/scadabind"
	"github.com/absmach/scadabind/binding"
	"github.com/stretchr/testify/mock"
)

var _ binding.Service = (*Service)(nil)

// Service is a mock type for the binding.Service type.
type Service struct {
	mock.Mock
}

func (m *Service) Dispatch(ctx context.Context, sourceID string, payload any) (int, error) {
	ret := m.Called(ctx, sourceID, payload)

	return ret.Int(0), ret.Error(1)
}

func (m *Service) ApplyDevice(ctx context.Context, sourceID string, device scadabind.Device) (int, error) {
	ret := m.Called(ctx, sourceID, device)

	return ret.Int(0), ret.Error(1)
}

func (m *Service) Nodes(ctx context.Context) ([]binding.Node, error) {
	ret := m.Called(ctx)

	var r0 []binding.Node
	if v, ok := ret.Get(0).([]binding.Node); ok {
		r0 = v
	}

	return r0, ret.Error(1)
}

func (m *Service) ViewNode(ctx context.Context, id string) (binding.Node, error) {
	ret := m.Called(ctx, id)

	return ret.Get(0).(binding.Node), ret.Error(1)
}

func (m *Service) SaveNode(ctx context.Context, node binding.Node) (binding.Node, error) {
	ret := m.Called(ctx, node)

	return ret.Get(0).(binding.Node), ret.Error(1)
}

func (m *Service) RemoveNode(ctx context.Context, id string) error {
	ret := m.Called(ctx, id)

	return ret.Error(0)
}

func (m *Service) NodeBindings(ctx context.Context, id string) ([]binding.Binding, error) {
	ret := m.Called(ctx, id)

	var r0 []binding.Binding
	if v, ok := ret.Get(0).([]binding.Binding); ok {
		r0 = v
	}

	return r0, ret.Error(1)
}

func (m *Service) UpdateNodeBindings(ctx context.Context, id string, bindings []binding.Binding) error {
	ret := m.Called(ctx, id, bindings)

	return ret.Error(0)
}
