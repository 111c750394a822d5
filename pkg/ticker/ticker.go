// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package ticker wraps time.Ticker behind an interface so polling loops
// can be driven by hand in tests.
package ticker

import "time"

// Ticker delivers ticks until stopped.
type Ticker interface {
	Tick() <-chan time.Time
	Stop()
}

// Factory creates a Ticker with the given period.
type Factory func(d time.Duration) Ticker

type timeTicker struct {
	*time.Ticker
}

// NewTicker returns a Ticker backed by time.Ticker.
func NewTicker(d time.Duration) Ticker {
	return &timeTicker{time.NewTicker(d)}
}

func (t *timeTicker) Tick() <-chan time.Time {
	return t.C
}
