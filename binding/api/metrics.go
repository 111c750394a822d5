// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"time"

	"github.com/absmach/scadabind"
	"github.com/absmach/scadabind/binding"
	"github.com/go-kit/kit/metrics"
)

var _ binding.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     binding.Service
}

// MetricsMiddleware instruments the binding dispatcher by tracking request
// count and latency.
func MetricsMiddleware(svc binding.Service, counter metrics.Counter, latency metrics.Histogram) binding.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) Dispatch(ctx context.Context, sourceID string, payload any) (int, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "dispatch").Add(1)
		mm.latency.With("method", "dispatch").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Dispatch(ctx, sourceID, payload)
}

func (mm *metricsMiddleware) ApplyDevice(ctx context.Context, sourceID string, device scadabind.Device) (int, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "apply_device").Add(1)
		mm.latency.With("method", "apply_device").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ApplyDevice(ctx, sourceID, device)
}

func (mm *metricsMiddleware) Nodes(ctx context.Context) ([]binding.Node, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "nodes").Add(1)
		mm.latency.With("method", "nodes").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Nodes(ctx)
}

func (mm *metricsMiddleware) ViewNode(ctx context.Context, id string) (binding.Node, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "view_node").Add(1)
		mm.latency.With("method", "view_node").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ViewNode(ctx, id)
}

func (mm *metricsMiddleware) SaveNode(ctx context.Context, node binding.Node) (binding.Node, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "save_node").Add(1)
		mm.latency.With("method", "save_node").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.SaveNode(ctx, node)
}

func (mm *metricsMiddleware) RemoveNode(ctx context.Context, id string) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "remove_node").Add(1)
		mm.latency.With("method", "remove_node").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.RemoveNode(ctx, id)
}

func (mm *metricsMiddleware) NodeBindings(ctx context.Context, id string) ([]binding.Binding, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "node_bindings").Add(1)
		mm.latency.With("method", "node_bindings").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.NodeBindings(ctx, id)
}

func (mm *metricsMiddleware) UpdateNodeBindings(ctx context.Context, id string, bindings []binding.Binding) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "update_node_bindings").Add(1)
		mm.latency.With("method", "update_node_bindings").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.UpdateNodeBindings(ctx, id, bindings)
}
