// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package connectors

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultReconnectDelay is used when a connector has no explicit delay.
const DefaultReconnectDelay = 5 * time.Second

// Reconnector owns at most one pending reconnect timer.
type Reconnector struct {
	mu      sync.Mutex
	policy  backoff.BackOff
	timer   *time.Timer
	gen     uint64
	stopped bool
}

// NewReconnector returns a Reconnector that waits delay between attempts.
// A positive maxRetries bounds the number of consecutive attempts; zero
// retries forever.
func NewReconnector(delay time.Duration, maxRetries int) *Reconnector {
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}
	var policy backoff.BackOff = backoff.NewConstantBackOff(delay)
	if maxRetries > 0 {
		policy = backoff.WithMaxRetries(policy, uint64(maxRetries))
	}
	return NewReconnectorWithPolicy(policy)
}

// NewReconnectorWithPolicy returns a Reconnector driven by an arbitrary
// backoff policy.
func NewReconnectorWithPolicy(policy backoff.BackOff) *Reconnector {
	return &Reconnector{policy: policy}
}

// Schedule arranges for fn to run after the next backoff delay. A timer
// that is already pending is kept, so repeated failures never stack up
// attempts. It reports whether an attempt is pending afterwards.
func (r *Reconnector) Schedule(fn func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return false
	}
	if r.timer != nil {
		return true
	}
	d := r.policy.NextBackOff()
	if d == backoff.Stop {
		return false
	}

	gen := r.gen
	r.timer = time.AfterFunc(d, func() {
		r.mu.Lock()
		if r.gen != gen || r.stopped {
			r.mu.Unlock()
			return
		}
		r.timer = nil
		r.mu.Unlock()
		fn()
	})
	return true
}

// Succeeded clears any pending attempt and resets the policy after a
// connection was established.
func (r *Reconnector) Succeeded() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clear()
	r.policy.Reset()
}

// Start re-arms a Reconnector that was stopped.
func (r *Reconnector) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopped = false
	r.policy.Reset()
}

// Stop cancels the pending attempt and refuses new ones until Start.
func (r *Reconnector) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopped = true
	r.clear()
}

// Pending reports whether an attempt is scheduled.
func (r *Reconnector) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timer != nil
}

func (r *Reconnector) clear() {
	r.gen++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}
