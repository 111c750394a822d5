// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"fmt"
	"time"

	"github.com/absmach/scadabind"
	"github.com/absmach/scadabind/logger"
	"github.com/absmach/scadabind/sources"
)

var _ sources.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger logger.Logger
	svc    sources.Service
}

// LoggingMiddleware adds logging facilities to the data source manager.
func LoggingMiddleware(svc sources.Service, logger logger.Logger) sources.Service {
	return &loggingMiddleware{logger, svc}
}

func (lm *loggingMiddleware) Add(ctx context.Context, ds sources.DataSource) (saved sources.DataSource, err error) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method add for %s data source %s took %s to complete", ds.Type, saved.ID, time.Since(begin))
		if err != nil {
			lm.logger.Warn(fmt.Sprintf("%s with error: %s.", message, err))
			return
		}
		lm.logger.Info(fmt.Sprintf("%s without errors.", message))
	}(time.Now())

	return lm.svc.Add(ctx, ds)
}

func (lm *loggingMiddleware) Update(ctx context.Context, id string, u sources.Update) (ds sources.DataSource, err error) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method update for data source %s took %s to complete", id, time.Since(begin))
		if err != nil {
			lm.logger.Warn(fmt.Sprintf("%s with error: %s.", message, err))
			return
		}
		lm.logger.Info(fmt.Sprintf("%s without errors.", message))
	}(time.Now())

	return lm.svc.Update(ctx, id, u)
}

func (lm *loggingMiddleware) Remove(ctx context.Context, id string) (err error) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method remove for data source %s took %s to complete", id, time.Since(begin))
		if err != nil {
			lm.logger.Warn(fmt.Sprintf("%s with error: %s.", message, err))
			return
		}
		lm.logger.Info(fmt.Sprintf("%s without errors.", message))
	}(time.Now())

	return lm.svc.Remove(ctx, id)
}

func (lm *loggingMiddleware) Get(ctx context.Context, id string) (ds sources.DataSource, err error) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method get for data source %s took %s to complete", id, time.Since(begin))
		if err != nil {
			lm.logger.Warn(fmt.Sprintf("%s with error: %s.", message, err))
			return
		}
		lm.logger.Info(fmt.Sprintf("%s without errors.", message))
	}(time.Now())

	return lm.svc.Get(ctx, id)
}

func (lm *loggingMiddleware) All(ctx context.Context) (all []sources.DataSource, err error) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method all took %s to complete", time.Since(begin))
		if err != nil {
			lm.logger.Warn(fmt.Sprintf("%s with error: %s.", message, err))
			return
		}
		lm.logger.Info(fmt.Sprintf("%s without errors.", message))
	}(time.Now())

	return lm.svc.All(ctx)
}

func (lm *loggingMiddleware) AllDevices(ctx context.Context) (refs []sources.DeviceRef, err error) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method all_devices took %s to complete", time.Since(begin))
		if err != nil {
			lm.logger.Warn(fmt.Sprintf("%s with error: %s.", message, err))
			return
		}
		lm.logger.Info(fmt.Sprintf("%s without errors.", message))
	}(time.Now())

	return lm.svc.AllDevices(ctx)
}

func (lm *loggingMiddleware) Devices(ctx context.Context, id string) (devices []scadabind.Device, err error) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method devices for data source %s took %s to complete", id, time.Since(begin))
		if err != nil {
			lm.logger.Warn(fmt.Sprintf("%s with error: %s.", message, err))
			return
		}
		lm.logger.Info(fmt.Sprintf("%s without errors.", message))
	}(time.Now())

	return lm.svc.Devices(ctx, id)
}

func (lm *loggingMiddleware) DisconnectAll(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method disconnect_all took %s to complete", time.Since(begin))
		if err != nil {
			lm.logger.Warn(fmt.Sprintf("%s with error: %s.", message, err))
			return
		}
		lm.logger.Info(fmt.Sprintf("%s without errors.", message))
	}(time.Now())

	return lm.svc.DisconnectAll(ctx)
}

func (lm *loggingMiddleware) SetGlobalHTTPHeaders(ctx context.Context, headers map[string]string) (err error) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method set_global_http_headers for %d headers took %s to complete", len(headers), time.Since(begin))
		if err != nil {
			lm.logger.Warn(fmt.Sprintf("%s with error: %s.", message, err))
			return
		}
		lm.logger.Info(fmt.Sprintf("%s without errors.", message))
	}(time.Now())

	return lm.svc.SetGlobalHTTPHeaders(ctx, headers)
}

// Ingest runs once per pushed payload and logs at debug level.
func (lm *loggingMiddleware) Ingest(ctx context.Context, id string, payload any) (err error) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method ingest for data source %s took %s to complete", id, time.Since(begin))
		if err != nil {
			lm.logger.Warn(fmt.Sprintf("%s with error: %s.", message, err))
			return
		}
		lm.logger.Debug(fmt.Sprintf("%s without errors.", message))
	}(time.Now())

	return lm.svc.Ingest(ctx, id, payload)
}

func (lm *loggingMiddleware) Send(ctx context.Context, id string, payload any) (err error) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method send for data source %s took %s to complete", id, time.Since(begin))
		if err != nil {
			lm.logger.Warn(fmt.Sprintf("%s with error: %s.", message, err))
			return
		}
		lm.logger.Info(fmt.Sprintf("%s without errors.", message))
	}(time.Now())

	return lm.svc.Send(ctx, id, payload)
}

func (lm *loggingMiddleware) OnData(l sources.Listener) func() {
	return lm.svc.OnData(l)
}
