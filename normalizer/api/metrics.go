// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"time"

	"github.com/absmach/scadabind"
	"github.com/absmach/scadabind/normalizer"
	"github.com/go-kit/kit/metrics"
)

var _ normalizer.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     normalizer.Service
}

// MetricsMiddleware instruments the normalizer by tracking parse count and latency.
func MetricsMiddleware(svc normalizer.Service, counter metrics.Counter, latency metrics.Histogram) normalizer.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) Parse(raw any, defaultID, defaultName string) (scadabind.Device, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "parse").Add(1)
		mm.latency.With("method", "parse").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Parse(raw, defaultID, defaultName)
}
