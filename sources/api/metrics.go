// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"time"

	"github.com/absmach/scadabind"
	"github.com/absmach/scadabind/sources"
	"github.com/go-kit/kit/metrics"
)

var _ sources.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     sources.Service
}

// MetricsMiddleware instruments the data source manager by tracking request
// count and latency.
func MetricsMiddleware(svc sources.Service, counter metrics.Counter, latency metrics.Histogram) sources.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) Add(ctx context.Context, ds sources.DataSource) (sources.DataSource, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "add").Add(1)
		mm.latency.With("method", "add").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Add(ctx, ds)
}

func (mm *metricsMiddleware) Update(ctx context.Context, id string, u sources.Update) (sources.DataSource, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "update").Add(1)
		mm.latency.With("method", "update").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Update(ctx, id, u)
}

func (mm *metricsMiddleware) Remove(ctx context.Context, id string) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "remove").Add(1)
		mm.latency.With("method", "remove").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Remove(ctx, id)
}

func (mm *metricsMiddleware) Get(ctx context.Context, id string) (sources.DataSource, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get").Add(1)
		mm.latency.With("method", "get").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Get(ctx, id)
}

func (mm *metricsMiddleware) All(ctx context.Context) ([]sources.DataSource, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "all").Add(1)
		mm.latency.With("method", "all").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.All(ctx)
}

func (mm *metricsMiddleware) AllDevices(ctx context.Context) ([]sources.DeviceRef, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "all_devices").Add(1)
		mm.latency.With("method", "all_devices").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.AllDevices(ctx)
}

func (mm *metricsMiddleware) Devices(ctx context.Context, id string) ([]scadabind.Device, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "devices").Add(1)
		mm.latency.With("method", "devices").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Devices(ctx, id)
}

func (mm *metricsMiddleware) DisconnectAll(ctx context.Context) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "disconnect_all").Add(1)
		mm.latency.With("method", "disconnect_all").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.DisconnectAll(ctx)
}

func (mm *metricsMiddleware) SetGlobalHTTPHeaders(ctx context.Context, headers map[string]string) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "set_global_http_headers").Add(1)
		mm.latency.With("method", "set_global_http_headers").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.SetGlobalHTTPHeaders(ctx, headers)
}

func (mm *metricsMiddleware) Ingest(ctx context.Context, id string, payload any) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "ingest").Add(1)
		mm.latency.With("method", "ingest").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Ingest(ctx, id, payload)
}

func (mm *metricsMiddleware) Send(ctx context.Context, id string, payload any) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "send").Add(1)
		mm.latency.With("method", "send").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Send(ctx, id, payload)
}

func (mm *metricsMiddleware) OnData(l sources.Listener) func() {
	return mm.svc.OnData(l)
}
