// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package errors

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Normalize well-known errors into protocol errors.
func Normalize(err error, msg string) error {
	var e *Error
	switch {
	case err == nil:
		return nil

	case errors.As(err, &e):
		return e

	case os.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return &Error{
			Message:     fmt.Sprintf("%s timed out", msg),
			Kind:        Timeout,
			NestedError: err,
		}

	case errors.Is(err, context.Canceled):
		return &Error{
			Message:     fmt.Sprintf("%s cancelled", msg),
			Kind:        Cancellation,
			NestedError: err,
		}

	default:
		return &Error{
			Message:     fmt.Sprintf("%s error: %s", msg, err.Error()),
			Kind:        UnknownError,
			NestedError: err,
		}
	}
}

// Context extracts the timeout or cancellation error from a context. If the
// context was cancelled with a cause, it is either an error provided by the
// library (already a protocol error) or by the caller from a parent context,
// and is returned as-is.
func Context(ctx context.Context, msg string) error {
	if err := context.Cause(ctx); err != nil && err != ctx.Err() {
		return err
	}
	return Normalize(ctx.Err(), msg)
}

// IsKind reports whether err is a protocol error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
