// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"fmt"
	"time"

	"github.com/absmach/scadabind"
	"github.com/absmach/scadabind/binding"
	"github.com/absmach/scadabind/logger"
)

var _ binding.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger logger.Logger
	svc    binding.Service
}

// LoggingMiddleware adds logging facilities to the binding dispatcher.
func LoggingMiddleware(svc binding.Service, logger logger.Logger) binding.Service {
	return &loggingMiddleware{logger, svc}
}

// Dispatch runs once per payload. Successful runs are logged at debug level.
func (lm *loggingMiddleware) Dispatch(ctx context.Context, sourceID string, payload any) (updated int, err error) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method dispatch for data source %s updated %d nodes and took %s to complete", sourceID, updated, time.Since(begin))
		if err != nil {
			lm.logger.Warn(fmt.Sprintf("%s with error: %s.", message, err))
			return
		}
		lm.logger.Debug(fmt.Sprintf("%s without errors.", message))
	}(time.Now())

	return lm.svc.Dispatch(ctx, sourceID, payload)
}

func (lm *loggingMiddleware) ApplyDevice(ctx context.Context, sourceID string, device scadabind.Device) (updated int, err error) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method apply_device for device %s of data source %s updated %d nodes and took %s to complete", device.ID, sourceID, updated, time.Since(begin))
		if err != nil {
			lm.logger.Warn(fmt.Sprintf("%s with error: %s.", message, err))
			return
		}
		lm.logger.Info(fmt.Sprintf("%s without errors.", message))
	}(time.Now())

	return lm.svc.ApplyDevice(ctx, sourceID, device)
}

func (lm *loggingMiddleware) Nodes(ctx context.Context) (nodes []binding.Node, err error) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method nodes took %s to complete", time.Since(begin))
		if err != nil {
			lm.logger.Warn(fmt.Sprintf("%s with error: %s.", message, err))
			return
		}
		lm.logger.Info(fmt.Sprintf("%s without errors.", message))
	}(time.Now())

	return lm.svc.Nodes(ctx)
}

func (lm *loggingMiddleware) ViewNode(ctx context.Context, id string) (node binding.Node, err error) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method view_node for node %s took %s to complete", id, time.Since(begin))
		if err != nil {
			lm.logger.Warn(fmt.Sprintf("%s with error: %s.", message, err))
			return
		}
		lm.logger.Info(fmt.Sprintf("%s without errors.", message))
	}(time.Now())

	return lm.svc.ViewNode(ctx, id)
}

func (lm *loggingMiddleware) SaveNode(ctx context.Context, node binding.Node) (saved binding.Node, err error) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method save_node for node %s took %s to complete", node.ID, time.Since(begin))
		if err != nil {
			lm.logger.Warn(fmt.Sprintf("%s with error: %s.", message, err))
			return
		}
		lm.logger.Info(fmt.Sprintf("%s without errors.", message))
	}(time.Now())

	return lm.svc.SaveNode(ctx, node)
}

func (lm *loggingMiddleware) RemoveNode(ctx context.Context, id string) (err error) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method remove_node for node %s took %s to complete", id, time.Since(begin))
		if err != nil {
			lm.logger.Warn(fmt.Sprintf("%s with error: %s.", message, err))
			return
		}
		lm.logger.Info(fmt.Sprintf("%s without errors.", message))
	}(time.Now())

	return lm.svc.RemoveNode(ctx, id)
}

func (lm *loggingMiddleware) NodeBindings(ctx context.Context, id string) (bindings []binding.Binding, err error) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method node_bindings for node %s took %s to complete", id, time.Since(begin))
		if err != nil {
			lm.logger.Warn(fmt.Sprintf("%s with error: %s.", message, err))
			return
		}
		lm.logger.Info(fmt.Sprintf("%s without errors.", message))
	}(time.Now())

	return lm.svc.NodeBindings(ctx, id)
}

func (lm *loggingMiddleware) UpdateNodeBindings(ctx context.Context, id string, bindings []binding.Binding) (err error) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method update_node_bindings for node %s with %d bindings took %s to complete", id, len(bindings), time.Since(begin))
		if err != nil {
			lm.logger.Warn(fmt.Sprintf("%s with error: %s.", message, err))
			return
		}
		lm.logger.Info(fmt.Sprintf("%s without errors.", message))
	}(time.Now())

	return lm.svc.UpdateNodeBindings(ctx, id, bindings)
}
