// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package jaeger_test

import (
	"context"
	"fmt"
	"net/url"
	"testing"

	"github.com/absmach/scadabind/internal/clients/jaeger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	cases := []struct {
		desc    string
		svcName string
		url     url.URL
		err     bool
	}{
		{
			desc:    "empty url",
			svcName: "scadabind",
			err:     true,
		},
		{
			desc: "empty service name",
			url:  url.URL{Scheme: "http", Host: "localhost:4318", Path: "/v1/traces"},
			err:  true,
		},
		{
			desc:    "valid configuration",
			svcName: "scadabind",
			url:     url.URL{Scheme: "http", Host: "localhost:4318", Path: "/v1/traces"},
		},
	}

	for _, tc := range cases {
		tp, err := jaeger.NewProvider(context.Background(), tc.svcName, tc.url, "instance-1", 1.0)
		assert.Equal(t, tc.err, err != nil, fmt.Sprintf("%s: unexpected error state %v", tc.desc, err))
		if tp != nil {
			assert.Nil(t, tp.Shutdown(context.Background()), tc.desc)
		}
	}
}

func TestTracerWithoutURL(t *testing.T) {
	tracer, shutdown, err := jaeger.Tracer(context.Background(), "scadabind", url.URL{}, "instance-1", 1.0)
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))

	_, span := tracer.Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid(), "tracer without collector must not record spans")
	span.End()
	assert.Nil(t, shutdown(context.Background()))
}
