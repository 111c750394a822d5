// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package tracing decorates the data source manager with OpenTelemetry
// spans.
package tracing

import (
	"context"

	"github.com/absmach/scadabind"
	"github.com/absmach/scadabind/sources"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	addOP           = "add_source"
	updateOP        = "update_source"
	removeOP        = "remove_source"
	getOP           = "view_source"
	allOP           = "list_sources"
	allDevicesOP    = "list_all_devices"
	devicesOP       = "list_source_devices"
	disconnectAllOP = "disconnect_all"
	setHeadersOP    = "set_global_http_headers"
	ingestOP        = "ingest"
	sendOP          = "send"
)

var _ sources.Service = (*tracingMiddleware)(nil)

type tracingMiddleware struct {
	tracer trace.Tracer
	svc    sources.Service
}

// New returns a new data source manager with tracing capabilities.
func New(svc sources.Service, tracer trace.Tracer) sources.Service {
	return &tracingMiddleware{tracer, svc}
}

func (tm *tracingMiddleware) Add(ctx context.Context, ds sources.DataSource) (sources.DataSource, error) {
	ctx, span := tm.tracer.Start(ctx, addOP, trace.WithAttributes(
		attribute.String("id", ds.ID),
		attribute.String("type", string(ds.Type)),
		attribute.Bool("enabled", ds.Enabled),
	))
	defer span.End()

	saved, err := tm.svc.Add(ctx, ds)
	return saved, record(span, err)
}

func (tm *tracingMiddleware) Update(ctx context.Context, id string, u sources.Update) (sources.DataSource, error) {
	attrs := []attribute.KeyValue{
		attribute.String("id", id),
		attribute.Bool("config_changed", u.Config != nil),
	}
	if u.Enabled != nil {
		attrs = append(attrs, attribute.Bool("enabled", *u.Enabled))
	}
	ctx, span := tm.tracer.Start(ctx, updateOP, trace.WithAttributes(attrs...))
	defer span.End()

	ds, err := tm.svc.Update(ctx, id, u)
	return ds, record(span, err)
}

func (tm *tracingMiddleware) Remove(ctx context.Context, id string) error {
	ctx, span := tm.tracer.Start(ctx, removeOP, trace.WithAttributes(attribute.String("id", id)))
	defer span.End()

	return record(span, tm.svc.Remove(ctx, id))
}

func (tm *tracingMiddleware) Get(ctx context.Context, id string) (sources.DataSource, error) {
	ctx, span := tm.tracer.Start(ctx, getOP, trace.WithAttributes(attribute.String("id", id)))
	defer span.End()

	ds, err := tm.svc.Get(ctx, id)
	return ds, record(span, err)
}

func (tm *tracingMiddleware) All(ctx context.Context) ([]sources.DataSource, error) {
	ctx, span := tm.tracer.Start(ctx, allOP)
	defer span.End()

	all, err := tm.svc.All(ctx)
	span.SetAttributes(attribute.Int("total", len(all)))
	return all, record(span, err)
}

func (tm *tracingMiddleware) AllDevices(ctx context.Context) ([]sources.DeviceRef, error) {
	ctx, span := tm.tracer.Start(ctx, allDevicesOP)
	defer span.End()

	refs, err := tm.svc.AllDevices(ctx)
	span.SetAttributes(attribute.Int("total", len(refs)))
	return refs, record(span, err)
}

func (tm *tracingMiddleware) Devices(ctx context.Context, id string) ([]scadabind.Device, error) {
	ctx, span := tm.tracer.Start(ctx, devicesOP, trace.WithAttributes(attribute.String("id", id)))
	defer span.End()

	devices, err := tm.svc.Devices(ctx, id)
	return devices, record(span, err)
}

func (tm *tracingMiddleware) DisconnectAll(ctx context.Context) error {
	ctx, span := tm.tracer.Start(ctx, disconnectAllOP)
	defer span.End()

	return record(span, tm.svc.DisconnectAll(ctx))
}

func (tm *tracingMiddleware) SetGlobalHTTPHeaders(ctx context.Context, headers map[string]string) error {
	ctx, span := tm.tracer.Start(ctx, setHeadersOP, trace.WithAttributes(attribute.Int("headers", len(headers))))
	defer span.End()

	return record(span, tm.svc.SetGlobalHTTPHeaders(ctx, headers))
}

func (tm *tracingMiddleware) Ingest(ctx context.Context, id string, payload any) error {
	ctx, span := tm.tracer.Start(ctx, ingestOP, trace.WithAttributes(attribute.String("id", id)))
	defer span.End()

	return record(span, tm.svc.Ingest(ctx, id, payload))
}

func (tm *tracingMiddleware) Send(ctx context.Context, id string, payload any) error {
	ctx, span := tm.tracer.Start(ctx, sendOP, trace.WithAttributes(attribute.String("id", id)))
	defer span.End()

	return record(span, tm.svc.Send(ctx, id, payload))
}

// OnData registers listeners outside any request, so it is not traced.
func (tm *tracingMiddleware) OnData(l sources.Listener) func() {
	return tm.svc.OnData(l)
}

func record(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
