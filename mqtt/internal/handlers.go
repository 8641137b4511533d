// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package internal

import (
	"iter"
	"slices"
	"sync"
)

type entry[T any] struct {
	id    uint64
	value T
}

// Handlers is an ordered set of callbacks. Iteration works on a snapshot, so
// a callback may add or remove handlers (including itself) while running.
type Handlers[T any] struct {
	mu      sync.Mutex
	entries []entry[T]
	next    uint64
}

func NewHandlers[T any]() *Handlers[T] {
	return &Handlers[T]{}
}

// Add appends a handler, returning a function that removes it. Removal is
// idempotent.
func (h *Handlers[T]) Add(value T) (remove func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++

	// Copy on write; snapshots handed out by All stay untouched.
	h.entries = append(slices.Clip(h.entries), entry[T]{id, value})

	return sync.OnceFunc(func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.entries = slices.DeleteFunc(slices.Clone(h.entries), func(e entry[T]) bool {
			return e.id == id
		})
	})
}

// All iterates the handlers registered at the time of the call, in
// registration order.
func (h *Handlers[T]) All() iter.Seq[T] {
	h.mu.Lock()
	snapshot := h.entries
	h.mu.Unlock()

	return func(yield func(T) bool) {
		for _, e := range snapshot {
			if !yield(e.value) {
				return
			}
		}
	}
}

// Len returns the number of registered handlers.
func (h *Handlers[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
