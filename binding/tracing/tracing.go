// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package tracing

import (
	"context"

	"github.com/absmach/scadabind"
	"github.com/absmach/scadabind/binding"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ binding.Service = (*tracingMiddleware)(nil)

type tracingMiddleware struct {
	tracer trace.Tracer
	svc    binding.Service
}

// New returns a new binding dispatcher with tracing capabilities.
func New(svc binding.Service, tracer trace.Tracer) binding.Service {
	return &tracingMiddleware{tracer, svc}
}

// Dispatch traces the "Dispatch" operation of the wrapped binding.Service.
func (tm *tracingMiddleware) Dispatch(ctx context.Context, sourceID string, payload any) (int, error) {
	ctx, span := tm.tracer.Start(ctx, "svc_dispatch", trace.WithAttributes(attribute.String("source_id", sourceID)))
	defer span.End()

	n, err := tm.svc.Dispatch(ctx, sourceID, payload)
	span.SetAttributes(attribute.Int("updated", n))
	return n, record(span, err)
}

// ApplyDevice traces the "ApplyDevice" operation of the wrapped binding.Service.
func (tm *tracingMiddleware) ApplyDevice(ctx context.Context, sourceID string, device scadabind.Device) (int, error) {
	ctx, span := tm.tracer.Start(ctx, "svc_apply_device", trace.WithAttributes(
		attribute.String("source_id", sourceID),
		attribute.String("device_id", device.ID),
		attribute.Int("points", len(device.Points)),
	))
	defer span.End()

	n, err := tm.svc.ApplyDevice(ctx, sourceID, device)
	span.SetAttributes(attribute.Int("updated", n))
	return n, record(span, err)
}

// Nodes traces the "Nodes" operation of the wrapped binding.Service.
func (tm *tracingMiddleware) Nodes(ctx context.Context) ([]binding.Node, error) {
	ctx, span := tm.tracer.Start(ctx, "svc_list_nodes")
	defer span.End()

	return tm.svc.Nodes(ctx)
}

// ViewNode traces the "ViewNode" operation of the wrapped binding.Service.
func (tm *tracingMiddleware) ViewNode(ctx context.Context, id string) (binding.Node, error) {
	ctx, span := tm.tracer.Start(ctx, "svc_view_node", trace.WithAttributes(attribute.String("id", id)))
	defer span.End()

	n, err := tm.svc.ViewNode(ctx, id)
	return n, record(span, err)
}

// SaveNode traces the "SaveNode" operation of the wrapped binding.Service.
func (tm *tracingMiddleware) SaveNode(ctx context.Context, node binding.Node) (binding.Node, error) {
	ctx, span := tm.tracer.Start(ctx, "svc_save_node", trace.WithAttributes(attribute.String("id", node.ID)))
	defer span.End()

	n, err := tm.svc.SaveNode(ctx, node)
	return n, record(span, err)
}

// RemoveNode traces the "RemoveNode" operation of the wrapped binding.Service.
func (tm *tracingMiddleware) RemoveNode(ctx context.Context, id string) error {
	ctx, span := tm.tracer.Start(ctx, "svc_remove_node", trace.WithAttributes(attribute.String("id", id)))
	defer span.End()

	return record(span, tm.svc.RemoveNode(ctx, id))
}

// NodeBindings traces the "NodeBindings" operation of the wrapped binding.Service.
func (tm *tracingMiddleware) NodeBindings(ctx context.Context, id string) ([]binding.Binding, error) {
	ctx, span := tm.tracer.Start(ctx, "svc_view_node_bindings", trace.WithAttributes(attribute.String("id", id)))
	defer span.End()

	bs, err := tm.svc.NodeBindings(ctx, id)
	return bs, record(span, err)
}

// UpdateNodeBindings traces the "UpdateNodeBindings" operation of the wrapped binding.Service.
func (tm *tracingMiddleware) UpdateNodeBindings(ctx context.Context, id string, bindings []binding.Binding) error {
	ctx, span := tm.tracer.Start(ctx, "svc_update_node_bindings", trace.WithAttributes(
		attribute.String("id", id),
		attribute.Int("bindings", len(bindings)),
	))
	defer span.End()

	return record(span, tm.svc.UpdateNodeBindings(ctx, id, bindings))
}

func record(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
