// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package tracing_test

import (
	"context"
	"testing"

	"github.com/absmach/scadabind/pkg/errors"
	"github.com/absmach/scadabind/sources"
	"github.com/absmach/scadabind/sources/mocks"
	"github.com/absmach/scadabind/sources/tracing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newService(t *testing.T) (sources.Service, *mocks.Service, *tracetest.SpanRecorder) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	svc := new(mocks.Service)

	return tracing.New(svc, tp.Tracer("sources")), svc, rec
}

func TestSpans(t *testing.T) {
	errBroker := errors.New("broker down")

	cases := []struct {
		desc   string
		call   func(sources.Service, *mocks.Service) error
		span   string
		status codes.Code
	}{
		{
			desc: "add source",
			call: func(svc sources.Service, m *mocks.Service) error {
				ds := sources.DataSource{ID: "plc", Type: sources.MQTT, Enabled: true}
				m.On("Add", mock.Anything, ds).Return(ds, nil)
				_, err := svc.Add(context.Background(), ds)
				return err
			},
			span:   "add_source",
			status: codes.Unset,
		},
		{
			desc: "remove missing source",
			call: func(svc sources.Service, m *mocks.Service) error {
				m.On("Remove", mock.Anything, "ghost").Return(errors.ErrNotFound)
				return svc.Remove(context.Background(), "ghost")
			},
			span:   "remove_source",
			status: codes.Error,
		},
		{
			desc: "send through failing source",
			call: func(svc sources.Service, m *mocks.Service) error {
				m.On("Send", mock.Anything, "plc", "on").Return(errBroker)
				return svc.Send(context.Background(), "plc", "on")
			},
			span:   "send",
			status: codes.Error,
		},
		{
			desc: "list sources",
			call: func(svc sources.Service, m *mocks.Service) error {
				m.On("All", mock.Anything).Return([]sources.DataSource{{ID: "a"}, {ID: "b"}}, nil)
				_, err := svc.All(context.Background())
				return err
			},
			span:   "list_sources",
			status: codes.Unset,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			svc, m, rec := newService(t)
			err := tc.call(svc, m)

			ended := rec.Ended()
			require.Len(t, ended, 1, "expected exactly one span")
			assert.Equal(t, tc.span, ended[0].Name())
			assert.Equal(t, tc.status, ended[0].Status().Code)
			if tc.status == codes.Error {
				assert.Equal(t, err.Error(), ended[0].Status().Description)
			}
			m.AssertExpectations(t)
		})
	}
}

func TestOnDataNotTraced(t *testing.T) {
	svc, m, rec := newService(t)
	m.On("OnData", mock.Anything).Return(func() {})

	svc.OnData(func(string, any) {})()
	assert.Empty(t, rec.Ended())
	assert.Empty(t, rec.Started())
}
