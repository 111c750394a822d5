// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package connectors

import "sync"

// Emitter fans a value out to subscribed handlers in subscription order.
// The zero value is ready to use.
type Emitter[T any] struct {
	mu       sync.RWMutex
	next     uint64
	handlers []handler[T]
}

type handler[T any] struct {
	id uint64
	fn func(T)
}

// Subscribe adds fn and returns a func that removes it. The returned func
// is idempotent.
func (e *Emitter[T]) Subscribe(fn func(T)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.next++
	id := e.next
	e.handlers = append(e.handlers, handler[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			for i, h := range e.handlers {
				if h.id == id {
					e.handlers = append(e.handlers[:i:i], e.handlers[i+1:]...)
					return
				}
			}
		})
	}
}

// Emit calls every handler with v. Handlers run outside the lock so they
// may subscribe or unsubscribe.
func (e *Emitter[T]) Emit(v T) {
	e.mu.RLock()
	hs := make([]handler[T], len(e.handlers))
	copy(hs, e.handlers)
	e.mu.RUnlock()

	for _, h := range hs {
		h.fn(v)
	}
}

// Len returns the number of subscribed handlers.
func (e *Emitter[T]) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.handlers)
}
