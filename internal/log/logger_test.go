// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package log_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/Azure-Samples/MqttApplicationSamples/internal/log"
	"github.com/stretchr/testify/require"
)

type attrError struct{}

func (attrError) Error() string { return "request timed out" }

func (attrError) Attrs() []slog.Attr {
	return []slog.Attr{slog.String("kind", "timeout")}
}

func TestNilLoggerDiscards(t *testing.T) {
	l := log.Wrap(nil)
	require.False(t, l.Enabled(context.Background(), slog.LevelError))
	l.Err(context.Background(), errors.New("ignored"))
}

func TestWrapFirstNonNil(t *testing.T) {
	var buf bytes.Buffer
	l := log.Wrap(nil, slog.New(slog.NewTextHandler(&buf, nil)))

	l.Info(context.Background(), "connected", slog.String("client_id", "vehicle01"))
	require.Contains(t, buf.String(), "msg=connected")
	require.Contains(t, buf.String(), "client_id=vehicle01")
}

func TestErrorAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := log.Wrap(slog.New(slog.NewTextHandler(&buf, nil)))

	l.Warn(context.Background(), attrError{}, slog.String("topic", "alerts"))
	out := buf.String()
	require.Contains(t, out, "level=WARN")
	require.Contains(t, out, `msg="request timed out"`)
	require.Contains(t, out, "kind=timeout")
	require.Contains(t, out, "topic=alerts")
}

func TestDebugFilteredByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := log.Wrap(slog.New(slog.NewTextHandler(&buf, nil)))

	l.Debug(context.Background(), "hidden")
	require.Empty(t, buf.String())
}
