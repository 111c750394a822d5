// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package mocks contains a testify mock of the data source manager.
package mocks

import (
	"context"

	"github.com/absmach/scadabind"
	"github.com/absmach/scadabind/sources"
	"github.com/stretchr/testify/mock"
)

var _ sources.Service = (*Service)(nil)

// Service is a mock type for the sources.Service type.
type Service struct {
	mock.Mock
}

func (m *Service) Add(ctx context.Context, ds sources.DataSource) (sources.DataSource, error) {
	ret := m.Called(ctx, ds)

	return ret.Get(0).(sources.DataSource), ret.Error(1)
}

func (m *Service) Update(ctx context.Context, id string, u sources.Update) (sources.DataSource, error) {
	ret := m.Called(ctx, id, u)

	return ret.Get(0).(sources.DataSource), ret.Error(1)
}

func (m *Service) Remove(ctx context.Context, id string) error {
	ret := m.Called(ctx, id)

	return ret.Error(0)
}

func (m *Service) Get(ctx context.Context, id string) (sources.DataSource, error) {
	ret := m.Called(ctx, id)

	return ret.Get(0).(sources.DataSource), ret.Error(1)
}

func (m *Service) All(ctx context.Context) ([]sources.DataSource, error) {
	ret := m.Called(ctx)

	var r0 []sources.DataSource
	if v, ok := ret.Get(0).([]sources.DataSource); ok {
		r0 = v
	}

	return r0, ret.Error(1)
}

func (m *Service) AllDevices(ctx context.Context) ([]sources.DeviceRef, error) {
	ret := m.Called(ctx)

	var r0 []sources.DeviceRef
	if v, ok := ret.Get(0).([]sources.DeviceRef); ok {
		r0 = v
	}

	return r0, ret.Error(1)
}

func (m *Service) Devices(ctx context.Context, id string) ([]scadabind.Device, error) {
	ret := m.Called(ctx, id)

	var r0 []scadabind.Device
	if v, ok := ret.Get(0).([]scadabind.Device); ok {
		r0 = v
	}

	return r0, ret.Error(1)
}

func (m *Service) DisconnectAll(ctx context.Context) error {
	ret := m.Called(ctx)

	return ret.Error(0)
}

func (m *Service) SetGlobalHTTPHeaders(ctx context.Context, headers map[string]string) error {
	ret := m.Called(ctx, headers)

	return ret.Error(0)
}

func (m *Service) Ingest(ctx context.Context, id string, payload any) error {
	ret := m.Called(ctx, id, payload)

	return ret.Error(0)
}

func (m *Service) Send(ctx context.Context, id string, payload any) error {
	ret := m.Called(ctx, id, payload)

	return ret.Error(0)
}

func (m *Service) OnData(l sources.Listener) func() {
	ret := m.Called(l)

	if f, ok := ret.Get(0).(func()); ok {
		return f
	}

	return func() {}
}
