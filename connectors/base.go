// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package connectors

import "sync"

// Base implements the callback and state half of Connector. Transport
// connectors embed it and call Publish, Fail and SetState.
type Base struct {
	data   Emitter[any]
	errs   Emitter[error]
	status Emitter[State]

	mu    sync.RWMutex
	state State
}

func (b *Base) OnData(h DataHandler) func() {
	return b.data.Subscribe(h)
}

func (b *Base) OnError(h ErrorHandler) func() {
	return b.errs.Subscribe(h)
}

func (b *Base) OnStatusChange(h StatusHandler) func() {
	return b.status.Subscribe(h)
}

func (b *Base) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// SetState records s and notifies status handlers when it differs from the
// current state.
func (b *Base) SetState(s State) {
	b.mu.Lock()
	changed := b.state != s
	b.state = s
	b.mu.Unlock()

	if changed {
		b.status.Emit(s)
	}
}

// Publish forwards a payload to data handlers.
func (b *Base) Publish(payload any) {
	b.data.Emit(payload)
}

// Fail forwards err to error handlers.
func (b *Base) Fail(err error) {
	b.errs.Emit(err)
}
