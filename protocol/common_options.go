// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package protocol

import (
	"log/slog"
	"maps"
	"time"
)

type (
	// WithConcurrency indicates how many handlers can execute in parallel.
	WithConcurrency uint

	// WithTimeout applies a context timeout to the invocation or handler
	// execution, as appropriate.
	WithTimeout time.Duration

	// WithShareName connects this listener to a shared MQTT subscription.
	WithShareName string

	// WithMetadata specifies user properties to send with the message.
	WithMetadata map[string]string

	// WithQoS specifies the QoS level of a publish or subscription.
	WithQoS byte

	// This option is not used directly; see WithLogger below.
	withLogger struct{ *slog.Logger }

	// This option is not used directly; see WithMetrics below.
	withMetrics struct{ *Metrics }
)

func (o WithConcurrency) commandServer(opt *CommandServerOptions) {
	opt.Concurrency = uint(o)
}

func (WithConcurrency) option() {}

func (o WithConcurrency) telemetryConsumer(opt *TelemetryConsumerOptions) {
	opt.Concurrency = uint(o)
}

func (o WithTimeout) commandServer(opt *CommandServerOptions) {
	opt.Timeout = time.Duration(o)
}

func (o WithTimeout) invoke(opt *InvokeOptions) {
	opt.Timeout = time.Duration(o)
}

func (WithTimeout) option() {}

func (o WithTimeout) telemetryConsumer(opt *TelemetryConsumerOptions) {
	opt.Timeout = time.Duration(o)
}

func (o WithShareName) commandServer(opt *CommandServerOptions) {
	opt.ShareName = string(o)
}

func (WithShareName) option() {}

func (o WithShareName) telemetryConsumer(opt *TelemetryConsumerOptions) {
	opt.ShareName = string(o)
}

func (o WithMetadata) apply(values map[string]string) map[string]string {
	if values == nil {
		values = make(map[string]string, len(o))
	}
	maps.Copy(values, o)
	return values
}

func (o WithMetadata) invoke(opt *InvokeOptions) {
	opt.Metadata = o.apply(opt.Metadata)
}

func (WithMetadata) option() {}

func (o WithMetadata) send(opt *SendOptions) {
	opt.Metadata = o.apply(opt.Metadata)
}

func (WithQoS) option() {}

func (o WithQoS) send(opt *SendOptions) {
	opt.QoS = byte(o)
}

func (o WithQoS) telemetryConsumer(opt *TelemetryConsumerOptions) {
	opt.QoS = byte(o)
}

// WithLogger enables logging with the provided slog logger.
func WithLogger(logger *slog.Logger) interface {
	Option
	CommandClientOption
	CommandServerOption
	TelemetryConsumerOption
	TelemetryProducerOption
} {
	return withLogger{logger}
}

func (o withLogger) commandClient(opt *CommandClientOptions) {
	opt.Logger = o.Logger
}

func (o withLogger) commandServer(opt *CommandServerOptions) {
	opt.Logger = o.Logger
}

func (withLogger) option() {}

func (o withLogger) telemetryConsumer(opt *TelemetryConsumerOptions) {
	opt.Logger = o.Logger
}

func (o withLogger) telemetryProducer(opt *TelemetryProducerOptions) {
	opt.Logger = o.Logger
}

// WithMetrics records the channel's activity in the provided metrics.
func WithMetrics(metrics *Metrics) interface {
	Option
	CommandClientOption
	CommandServerOption
	TelemetryConsumerOption
} {
	return withMetrics{metrics}
}

func (o withMetrics) commandClient(opt *CommandClientOptions) {
	opt.Metrics = o.Metrics
}

func (o withMetrics) commandServer(opt *CommandServerOptions) {
	opt.Metrics = o.Metrics
}

func (withMetrics) option() {}

func (o withMetrics) telemetryConsumer(opt *TelemetryConsumerOptions) {
	opt.Metrics = o.Metrics
}
