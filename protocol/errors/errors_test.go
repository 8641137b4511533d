// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package errors_test

import (
	"context"
	stderr "errors"
	"testing"
	"time"

	"github.com/Azure-Samples/MqttApplicationSamples/protocol/errors"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	require.NoError(t, errors.Normalize(nil, "op"))

	err := errors.Normalize(context.DeadlineExceeded, "op")
	require.True(t, errors.IsKind(err, errors.Timeout))
	require.Equal(t, "op timed out", err.Error())

	err = errors.Normalize(context.Canceled, "op")
	require.True(t, errors.IsKind(err, errors.Cancellation))

	cause := stderr.New("boom")
	err = errors.Normalize(cause, "op")
	require.True(t, errors.IsKind(err, errors.UnknownError))
	require.ErrorIs(t, err, cause)

	proto := &errors.Error{Message: "kept", Kind: errors.MqttError}
	require.Same(t, proto, errors.Normalize(proto, "op"))
}

func TestContextCause(t *testing.T) {
	cause := &errors.Error{Message: "custom", Kind: errors.Timeout}
	ctx, cancel := context.WithTimeoutCause(
		context.Background(),
		time.Millisecond,
		cause,
	)
	defer cancel()
	<-ctx.Done()

	require.Same(t, cause, errors.Context(ctx, "op"))

	ctx, cancel = context.WithCancel(context.Background())
	cancel()
	require.True(t, errors.IsKind(errors.Context(ctx, "op"), errors.Cancellation))
}

func TestAttrs(t *testing.T) {
	err := &errors.Error{
		Message:     "content type mismatch",
		Kind:        errors.HeaderInvalid,
		HeaderName:  "Content Type",
		HeaderValue: "text/plain",
	}

	attrs := err.Attrs()
	keys := make([]string, 0, len(attrs))
	for _, a := range attrs {
		keys = append(keys, a.Key)
	}
	require.Equal(t, []string{"kind", "header_name", "header_value"}, keys)
	require.Equal(t, "header invalid", errors.HeaderInvalid.String())
}
