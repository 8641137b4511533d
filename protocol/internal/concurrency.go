// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package internal

import (
	"context"
	"sync"
)

// Concurrent dispatches values to a handler with a configured maximum
// concurrency (where 0 indicates unlimited concurrency). Returns a function to
// send a value to the handler and a cleanup function which stops dispatch and
// waits for in-flight handlers to return.
func Concurrent[T any](
	concurrency uint,
	handler func(context.Context, T),
) (func(context.Context, T), func()) {
	var wg sync.WaitGroup
	var once sync.Once

	// For no maximum concurrency, spin up a goroutine for each value.
	if concurrency == 0 {
		var mu sync.RWMutex
		closed := false
		return func(ctx context.Context, val T) {
				mu.RLock()
				defer mu.RUnlock()
				if closed {
					return
				}
				wg.Add(1)
				go func() {
					defer wg.Done()
					handler(ctx, val)
				}()
			}, func() {
				once.Do(func() {
					mu.Lock()
					closed = true
					mu.Unlock()
					wg.Wait()
				})
			}
	}

	type args struct {
		ctx context.Context
		val T
	}

	// If a maximum concurrency was specified, spin up a number of workers
	// equal to that value to handle dispatched values.
	dispatch := make(chan args)
	stop := make(chan struct{})
	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case a := <-dispatch:
					handler(a.ctx, a.val)
				case <-stop:
					return
				}
			}
		}()
	}

	// The context controls the lifecycle of the send, so a saturated pool does
	// not block the caller past its deadline.
	return func(ctx context.Context, val T) {
			select {
			case dispatch <- args{ctx, val}:
			case <-ctx.Done():
			case <-stop:
			}
		}, func() {
			once.Do(func() {
				close(stop)
				wg.Wait()
			})
		}
}
