// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package log

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/Azure-Samples/MqttApplicationSamples/internal/wallclock"
)

type (
	// Logger is a wrapper around an slog.Logger with additional helpers and nil
	// checking.
	Logger struct{ logger *slog.Logger }

	// Attrs represents an object that exposes extra slog attributes to log.
	Attrs interface {
		Attrs() []slog.Attr
	}
)

// Wrap the first non-nil slog logger. A Logger wrapping nothing discards all
// records.
func Wrap(loggers ...*slog.Logger) Logger {
	for _, l := range loggers {
		if l != nil {
			return Logger{l}
		}
	}
	return Logger{}
}

// Enabled reports whether the wrapped logger will emit records at the level.
func (l Logger) Enabled(ctx context.Context, level slog.Level) bool {
	return l.logger != nil && l.logger.Enabled(ctx, level)
}

// Log is designed to build logging wrappers; it should not be called directly.
// See: https://pkg.go.dev/log/slog#hdr-Wrapping_output_methods
func (l Logger) Log(
	ctx context.Context,
	level slog.Level,
	msg string,
	attrs ...slog.Attr,
) {
	if !l.Enabled(ctx, level) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])

	r := slog.NewRecord(wallclock.Instance.Now(), level, msg, pcs[0])
	r.AddAttrs(attrs...)
	_ = l.logger.Handler().Handle(ctx, r)
}

// Debug logs a debug message.
func (l Logger) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.Log(ctx, slog.LevelDebug, msg, attrs...)
}

// Info logs an informational message.
func (l Logger) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.Log(ctx, slog.LevelInfo, msg, attrs...)
}

// Warn logs an error at warning level, e.g. one that was handled by returning
// it to a remote caller.
func (l Logger) Warn(ctx context.Context, err error, attrs ...slog.Attr) {
	l.Log(ctx, slog.LevelWarn, err.Error(), errAttrs(err, attrs)...)
}

// Err logs an error with structured logging.
func (l Logger) Err(ctx context.Context, err error, attrs ...slog.Attr) {
	l.Log(ctx, slog.LevelError, err.Error(), errAttrs(err, attrs)...)
}

func errAttrs(err error, attrs []slog.Attr) []slog.Attr {
	if a, ok := err.(Attrs); ok {
		return append(a.Attrs(), attrs...)
	}
	return attrs
}
