// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package logger provides the leveled JSON logger shared by every scadabind
// component.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-kit/log"
)

// Logger specifies logging API.
type Logger interface {
	// Debug logs any object in JSON format on debug level.
	Debug(string)
	// Info logs any object in JSON format on info level.
	Info(string)
	// Warn logs any object in JSON format on warning level.
	Warn(string)
	// Error logs any object in JSON format on error level.
	Error(string)
	// Fatal logs any object in JSON format on any level and calls "os.Exit(1)".
	Fatal(string)
}

var _ Logger = (*logger)(nil)

type logger struct {
	kitLogger log.Logger
	level     Level
}

// New returns wrapped go kit logger.
func New(out io.Writer, levelText string) (Logger, error) {
	var level Level
	if err := level.UnmarshalText(levelText); err != nil {
		return nil, fmt.Errorf(`{"level":"error","message":"%s: %s","ts":"%s"}`, err, levelText, time.Now().UTC().Format(time.RFC3339Nano))
	}
	l := log.NewJSONLogger(log.NewSyncWriter(out))
	l = log.With(l, "ts", log.DefaultTimestampUTC)

	return &logger{l, level}, nil
}

func (l logger) Debug(msg string) {
	l.log(Debug, msg)
}

func (l logger) Info(msg string) {
	l.log(Info, msg)
}

func (l logger) Warn(msg string) {
	l.log(Warn, msg)
}

func (l logger) Error(msg string) {
	l.log(Error, msg)
}

func (l logger) Fatal(msg string) {
	_ = l.kitLogger.Log("fatal", msg)
	os.Exit(1)
}

func (l logger) log(lvl Level, msg string) {
	if lvl.isAllowed(l.level) {
		_ = l.kitLogger.Log("level", lvl.String(), "message", msg)
	}
}
