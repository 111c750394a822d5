// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package tracing

import (
	"context"

	"github.com/absmach/scadabind/forwarder"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const publishOP = "publish_op"

var _ forwarder.Service = (*tracingForwarder)(nil)

type tracingForwarder struct {
	tracer  trace.Tracer
	svc     forwarder.Service
	subject string
}

// New creates a new instance of a forwarder that traces publish calls.
func New(tracer trace.Tracer, svc forwarder.Service, subject string) forwarder.Service {
	return &tracingForwarder{
		tracer:  tracer,
		svc:     svc,
		subject: subject,
	}
}

func (tf *tracingForwarder) Publish(ctx context.Context, sourceID string, payload any) error {
	ctx, span := tf.tracer.Start(ctx, publishOP, trace.WithSpanKind(trace.SpanKindProducer), trace.WithAttributes(
		attribute.String("source_id", sourceID),
		attribute.String("subject", tf.subject),
	))
	defer span.End()

	if err := tf.svc.Publish(ctx, sourceID, payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
