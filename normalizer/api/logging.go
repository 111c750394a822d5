// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"fmt"
	"time"

	"github.com/absmach/scadabind"
	"github.com/absmach/scadabind/logger"
	"github.com/absmach/scadabind/normalizer"
)

var _ normalizer.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger logger.Logger
	svc    normalizer.Service
}

// LoggingMiddleware adds logging facilities to the normalizer. Parsing runs
// once per inbound payload, so everything is logged at debug level.
func LoggingMiddleware(svc normalizer.Service, logger logger.Logger) normalizer.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) Parse(raw any, defaultID, defaultName string) (dev scadabind.Device, err error) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method parse for default device %s took %s to complete", defaultID, time.Since(begin))
		if err != nil {
			lm.logger.Debug(fmt.Sprintf("%s with error: %s.", message, err))
			return
		}
		lm.logger.Debug(fmt.Sprintf("%s with device %s and %d points without errors.", message, dev.ID, len(dev.Points)))
	}(time.Now())

	return lm.svc.Parse(raw, defaultID, defaultName)
}
