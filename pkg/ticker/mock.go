// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package ticker

import (
	"sync"
	"time"
)

var _ Ticker = (*Manual)(nil)

// Manual is a Ticker that only ticks when Fire is called.
type Manual struct {
	ch      chan time.Time
	started chan struct{}
	once    sync.Once
	mu      sync.Mutex
	stopped bool
	period  time.Duration
}

// NewManual returns a stopped-on-demand ticker with an unbuffered channel.
func NewManual() *Manual {
	return &Manual{
		ch:      make(chan time.Time),
		started: make(chan struct{}),
	}
}

// Factory returns a Factory that always hands out m.
func (m *Manual) Factory() Factory {
	return func(d time.Duration) Ticker {
		m.mu.Lock()
		m.period = d
		m.mu.Unlock()
		m.once.Do(func() { close(m.started) })
		return m
	}
}

// Started is closed the first time the factory hands out m.
func (m *Manual) Started() <-chan struct{} {
	return m.started
}

// WaitStarted reports whether the factory was called within timeout.
func (m *Manual) WaitStarted(timeout time.Duration) bool {
	select {
	case <-m.started:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Period returns the period passed to the last factory call.
func (m *Manual) Period() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.period
}

// Fire delivers one tick and blocks until the consumer receives it.
// It reports false if the ticker was stopped before the tick was taken.
func (m *Manual) Fire(timeout time.Duration) bool {
	select {
	case m.ch <- time.Now():
		return true
	case <-time.After(timeout):
		return false
	}
}

func (m *Manual) Tick() <-chan time.Time {
	return m.ch
}

func (m *Manual) Stop() {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()
}

// Stopped reports whether Stop was called.
func (m *Manual) Stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}
