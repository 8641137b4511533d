// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/Azure-Samples/MqttApplicationSamples/internal/log"
)

type logger struct {
	log.Logger
	task string
}

func (l *logger) attempt(ctx context.Context, attempt uint64) {
	l.Debug(ctx, "retry attempt",
		slog.String("task", l.task),
		slog.Uint64("attempt", attempt),
	)
}

func (l *logger) waiting(
	ctx context.Context,
	attempt uint64,
	wait time.Duration,
	err error,
) {
	l.Warn(ctx, err,
		slog.String("task", l.task),
		slog.Uint64("attempt", attempt),
		slog.Duration("retry_in", wait),
	)
}

func (l *logger) succeeded(ctx context.Context, attempt uint64) {
	if attempt > 1 {
		l.Info(ctx, "retry succeeded",
			slog.String("task", l.task),
			slog.Uint64("attempts", attempt),
		)
	}
}

func (l *logger) failed(ctx context.Context, attempt uint64, err error) {
	l.Info(ctx, "retry gave up",
		slog.String("task", l.task),
		slog.Uint64("attempts", attempt),
		slog.String("error", err.Error()),
	)
}
