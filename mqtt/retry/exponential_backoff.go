// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package retry

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/Azure-Samples/MqttApplicationSamples/internal/log"
	"github.com/Azure-Samples/MqttApplicationSamples/internal/wallclock"
)

// ExponentialBackoff retries a task with a doubling interval between
// attempts, clamped to MaxInterval.
type ExponentialBackoff struct {
	// MaxAttempts limits the number of attempts. Zero means unlimited; one
	// disables retries.
	MaxAttempts uint64

	// MinInterval is the first interval between attempts. Defaults to 1/8s.
	MinInterval time.Duration

	// MaxInterval caps the interval between attempts. Defaults to 30s.
	MaxInterval time.Duration

	// Timeout bounds all attempts together. Zero means no bound.
	Timeout time.Duration

	// NoJitter disables the +/-5% randomization of each interval.
	NoJitter bool

	Logger *slog.Logger
}

const (
	defaultMinInterval = time.Second / 8
	defaultMaxInterval = 30 * time.Second
)

// Start runs the task until it succeeds, reports that the error is not
// retryable, exhausts MaxAttempts, or the context ends.
func (e *ExponentialBackoff) Start(
	ctx context.Context,
	name string,
	task Task,
) error {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	l := logger{log.Wrap(e.Logger), name}

	for attempt := uint64(1); ; attempt++ {
		l.attempt(ctx, attempt)
		retry, err := task(ctx)
		if err == nil {
			l.succeeded(ctx, attempt)
			return nil
		}

		if !retry || attempt == e.MaxAttempts || ctx.Err() != nil {
			l.failed(ctx, attempt, err)
			return err
		}

		wait := e.Interval(attempt)
		l.waiting(ctx, attempt, wait, err)

		select {
		case <-wallclock.Instance.After(wait):
		case <-ctx.Done():
			l.failed(ctx, attempt, ctx.Err())
			return ctx.Err()
		}
	}
}

// Interval returns the delay after the given (1-based) failed attempt.
func (e *ExponentialBackoff) Interval(attempt uint64) time.Duration {
	lo := e.MinInterval
	if lo <= 0 {
		lo = defaultMinInterval
	}
	hi := e.MaxInterval
	if hi <= 0 {
		hi = defaultMaxInterval
	}
	hi = max(hi, lo)

	base := min(float64(lo)*math.Pow(2, float64(attempt-1)), float64(hi))
	if !e.NoJitter {
		// #nosec G404
		base *= .95 + .1*rand.Float64()
	}
	return time.Duration(base)
}
