// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package internal

import "context"

// Background is a long-running scope (the client, or a single connection)
// that request contexts can be tied to.
type Background struct {
	ctx   context.Context
	stop  context.CancelCauseFunc
	cause error
}

// NewBackground creates a running background which cancels tied contexts
// with the given cause once closed.
func NewBackground(cause error) *Background {
	ctx, stop := context.WithCancelCause(context.Background())
	return &Background{ctx, stop, cause}
}

// With returns a context that is also cancelled when the background closes.
func (b *Background) With(
	ctx context.Context,
) (context.Context, context.CancelFunc) {
	c, cancel := context.WithCancelCause(ctx)
	unhook := context.AfterFunc(b.ctx, func() { cancel(b.cause) })
	return c, func() {
		unhook()
		cancel(context.Canceled)
	}
}

// Close stops the background. It is safe to call more than once.
func (b *Background) Close() {
	b.stop(b.cause)
}

// Done is closed once the background stops.
func (b *Background) Done() <-chan struct{} {
	return b.ctx.Done()
}
