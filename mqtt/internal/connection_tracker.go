// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package internal

import (
	"context"
	"iter"
	"sync"
)

type (
	// ConnectionTracker tracks the live client across reconnections.
	ConnectionTracker[Client comparable] struct {
		current CurrentConnection[Client]
		mu      sync.RWMutex
	}

	// CurrentConnection is a snapshot of the tracked connection.
	CurrentConnection[Client comparable] struct {
		// The connected client, or the zero value while disconnected.
		Client Client

		// The error that ended the last connection or connection attempt.
		Error error

		// Closed once a client connects.
		up chan struct{}

		// Stopped when the client disconnects. Requests on a connection tie
		// their contexts to it.
		Down *Background

		// Incremented for every connection attempt, successful or not, so
		// late disconnect notifications from older clients can be ignored.
		Attempt uint64
	}
)

func NewConnectionTracker[Client comparable]() *ConnectionTracker[Client] {
	c := &ConnectionTracker[Client]{}
	c.current.up = make(chan struct{})

	// Down is stopped exactly when no client is connected.
	c.current.Down = NewBackground(context.Canceled)
	c.current.Down.Close()

	return c
}

// Attempt starts a new connection attempt and returns its number.
func (c *ConnectionTracker[Client]) Attempt() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current.Error = nil
	c.current.Attempt++
	return c.current.Attempt
}

// Connect records a successful connection. If the attempt already failed in
// the meantime, the recorded error is returned instead.
func (c *ConnectionTracker[Client]) Connect(client Client) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current.Error != nil {
		return c.current.Error
	}

	c.current.Client = client
	close(c.current.up)
	c.current.Down = NewBackground(context.Canceled)
	return nil
}

// Disconnect records the end of the given attempt's connection.
func (c *ConnectionTracker[Client]) Disconnect(attempt uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current.Attempt != attempt {
		return
	}

	if c.current.Error == nil {
		c.current.Error = err
	}

	var zero Client
	if c.current.Client == zero {
		return
	}

	c.current.Client = zero
	c.current.up = make(chan struct{})
	c.current.Down.Close()
}

// Current returns a snapshot of the connection.
func (c *ConnectionTracker[Client]) Current() CurrentConnection[Client] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Client yields the connected client along with a context that is cancelled
// if that connection drops. The loop body should return once its request
// completes; continuing waits for the next connection and yields again. The
// sequence ends only when ctx is done.
func (c *ConnectionTracker[Client]) Client(
	ctx context.Context,
) iter.Seq2[context.Context, Client] {
	return func(yield func(context.Context, Client) bool) {
		for {
			current := c.Current()

			var zero Client
			if current.Client == zero {
				select {
				case <-ctx.Done():
					return
				case <-current.up:
					continue
				}
			}

			connCtx, cancel := current.Down.With(ctx)
			more := yield(connCtx, current.Client)
			cancel()
			if !more {
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-current.Down.Done():
			}
		}
	}
}
