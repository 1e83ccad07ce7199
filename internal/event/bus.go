// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package event

import (
	"sync"
	"time"
)

// Handler receives published events. Handlers run synchronously on the
// publisher's goroutine and must not block.
type Handler func(Event)

// Bus is a minimal synchronous publish/subscribe hub. Subscriptions are
// per event type; a handler registered for the empty type receives
// everything.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[Type]map[int]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[Type]map[int]Handler)}
}

// Subscribe registers fn for events of type t and returns an
// unsubscribe function.
func (b *Bus) Subscribe(t Type, fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	if b.handlers[t] == nil {
		b.handlers[t] = make(map[int]Handler)
	}
	b.handlers[t][id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[t], id)
	}
}

// SubscribeAll registers fn for every event type.
func (b *Bus) SubscribeAll(fn Handler) func() {
	return b.Subscribe(Type(""), fn)
}

// Publish delivers e to all matching handlers. A zero Timestamp is
// stamped with the current time.
func (b *Bus) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	b.mu.RLock()
	fns := make([]Handler, 0, len(b.handlers[e.Type])+len(b.handlers[Type("")]))
	for _, fn := range b.handlers[e.Type] {
		fns = append(fns, fn)
	}
	for _, fn := range b.handlers[Type("")] {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()
	for _, fn := range fns {
		fn(e)
	}
}
