// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package internal

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Azure-Samples/MqttApplicationSamples/internal/wallclock"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol/errors"
)

// Timeout applies an optional timeout to a context, cancelling it with a
// structured Timeout error as the cause.
type Timeout struct {
	time.Duration
	Name string
	Text string
}

// Validate checks that the timeout can be represented as a message expiry.
func (to *Timeout) Validate(kind errors.Kind) error {
	switch {
	case to.Duration < 0:
		return &errors.Error{
			Message:       "timeout cannot be negative",
			Kind:          kind,
			PropertyName:  to.Name,
			PropertyValue: to.Duration,
		}

	case to.Seconds() > math.MaxUint32:
		return &errors.Error{
			Message:       "timeout too large",
			Kind:          kind,
			PropertyName:  to.Name,
			PropertyValue: to.Duration,
		}

	default:
		return nil
	}
}

// Context returns a context that is cancelled when the timeout elapses. A zero
// timeout applies no deadline.
func (to *Timeout) Context(
	ctx context.Context,
) (context.Context, context.CancelFunc) {
	if to.Duration == 0 {
		return context.WithCancel(ctx)
	}
	return wallclock.Instance.WithTimeoutCause(
		ctx,
		to.Duration,
		&errors.Error{
			Message:      fmt.Sprintf("%s timed out", to.Text),
			Kind:         errors.Timeout,
			TimeoutName:  to.Name,
			TimeoutValue: to.Duration,
		},
	)
}

// MessageExpiry rounds the timeout up to whole seconds.
func (to *Timeout) MessageExpiry() uint32 {
	return uint32(math.Ceil(to.Seconds()))
}
