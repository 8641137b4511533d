// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package protocol

import (
	"context"
	"log/slog"
	"time"

	"github.com/Azure-Samples/MqttApplicationSamples/internal/log"
	"github.com/Azure-Samples/MqttApplicationSamples/internal/mqtt"
	"github.com/Azure-Samples/MqttApplicationSamples/internal/options"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol/errors"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol/internal"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol/internal/errutil"
)

type (
	// TelemetryConsumer provides the ability to handle the receipt of
	// telemetry on a topic filter, which may contain wildcards.
	TelemetryConsumer[T any] struct {
		listener   *listener[T]
		handler    TelemetryHandler[T]
		manualAck  bool
		routingKey int
		timeout    *internal.Timeout
		log        log.Logger
		metrics    *Metrics
	}

	// TelemetryConsumerOption represents a single telemetry consumer option.
	TelemetryConsumerOption interface {
		telemetryConsumer(*TelemetryConsumerOptions)
	}

	// TelemetryConsumerOptions are the resolved telemetry consumer options.
	TelemetryConsumerOptions struct {
		ManualAck         bool
		RoutingKeySegment int
		QoS               byte

		Concurrency uint
		Timeout     time.Duration
		ShareName   string

		Logger  *slog.Logger
		Metrics *Metrics
	}

	// TelemetryHandler is the user-provided implementation of a single
	// telemetry event handler. It is treated as blocking; all parallelism is
	// handled by the library. This *must* be thread-safe.
	//
	// With manual acknowledgement, returning nil accepts the message (which is
	// then acked) and returning an error rejects it. Otherwise every message is
	// acked and a returned error is only logged.
	TelemetryHandler[T any] = func(context.Context, *TelemetryMessage[T]) error

	// TelemetryMessage contains per-message data that is exposed to the
	// telemetry handlers.
	TelemetryMessage[T any] struct {
		Message[T]

		// The topic segment identifying the sender, e.g. the client ID in
		// vehicles/+/position.
		RoutingKey string
	}

	// WithManualAck makes the handler's return value decide whether the
	// telemetry message is acked.
	WithManualAck bool

	// WithRoutingKeySegment selects the topic segment (zero-based) that is
	// reported as the routing key. Defaults to 1.
	WithRoutingKeySegment int
)

const (
	telemetryConsumerComponentName = "telemetry consumer"
	telemetryConsumerErrStr        = "telemetry receipt"
)

// NewTelemetryConsumer creates a new telemetry consumer.
func NewTelemetryConsumer[T any](
	client MqttClient,
	encoding Encoding[T],
	topicFilter string,
	handler TelemetryHandler[T],
	opt ...TelemetryConsumerOption,
) (tc *TelemetryConsumer[T], err error) {
	opts := TelemetryConsumerOptions{
		RoutingKeySegment: 1,
		QoS:               mqtt.QoS1,
	}
	opts.Apply(opt)

	logger := log.Wrap(opts.Logger)
	defer func() { err = errutil.Return(err, logger, true) }()

	if err := errutil.ValidateNonNil(map[string]any{
		"client":   client,
		"encoding": encoding,
		"handler":  handler,
	}); err != nil {
		return nil, err
	}

	if err := internal.ValidatePattern("topicFilter", topicFilter); err != nil {
		return nil, err
	}

	if opts.RoutingKeySegment < 0 {
		return nil, &errors.Error{
			Message:       "routing key segment cannot be negative",
			Kind:          errors.ConfigurationInvalid,
			PropertyName:  "RoutingKeySegment",
			PropertyValue: opts.RoutingKeySegment,
		}
	}

	to := &internal.Timeout{
		Duration: opts.Timeout,
		Name:     "ExecutionTimeout",
		Text:     telemetryConsumerErrStr,
	}
	if err := to.Validate(errors.ConfigurationInvalid); err != nil {
		return nil, err
	}

	if err := internal.ValidateShareName(opts.ShareName); err != nil {
		return nil, err
	}

	tc = &TelemetryConsumer[T]{
		handler:    handler,
		manualAck:  opts.ManualAck,
		routingKey: opts.RoutingKeySegment,
		timeout:    to,
		log:        logger,
		metrics:    opts.Metrics,
	}
	tc.listener = &listener[T]{
		client:      client,
		encoding:    encoding,
		filter:      topicFilter,
		shareName:   opts.ShareName,
		qos:         opts.QoS,
		concurrency: opts.Concurrency,
		log:         logger,
		handler:     tc,
	}

	tc.listener.register()
	return tc, nil
}

// Start listening to the MQTT telemetry topic filter.
func (tc *TelemetryConsumer[T]) Start(ctx context.Context) error {
	return tc.listener.start(ctx, telemetryConsumerComponentName)
}

// Close the telemetry consumer to free its resources.
func (tc *TelemetryConsumer[T]) Close() {
	tc.listener.close(telemetryConsumerComponentName)
}

func (tc *TelemetryConsumer[T]) onMsg(
	ctx context.Context,
	pub *mqtt.Message,
) {
	err := tc.handle(ctx, pub)
	accepted := err == nil
	tc.metrics.received(tc.listener.filter, accepted)

	if err != nil {
		tc.log.Warn(ctx, err, slog.String("topic", pub.Topic))
	}

	// Rejected messages are left unacknowledged.
	if accepted || !tc.manualAck {
		tc.listener.ack(ctx, pub)
	}
}

func (tc *TelemetryConsumer[T]) handle(
	ctx context.Context,
	pub *mqtt.Message,
) error {
	payload, err := tc.listener.payload(pub)
	if err != nil {
		return err
	}

	msg := &TelemetryMessage[T]{
		Message: Message[T]{
			Payload:        payload,
			Topic:          pub.Topic,
			ContentType:    pub.ContentType,
			UserProperties: pub.UserProperties,
		},
	}
	msg.RoutingKey, _ = internal.TopicSegment(pub.Topic, tc.routingKey)

	handlerCtx, cancel := tc.timeout.Context(ctx)
	defer cancel()

	if err := tc.handler(handlerCtx, msg); err != nil {
		return &errors.Error{
			Message:       err.Error(),
			Kind:          errors.ExecutionException,
			NestedError:   err,
			InApplication: true,
		}
	}
	return errors.Context(handlerCtx, telemetryConsumerErrStr)
}

// Apply resolves the provided list of options.
func (o *TelemetryConsumerOptions) Apply(
	opts []TelemetryConsumerOption,
	rest ...TelemetryConsumerOption,
) {
	for opt := range options.Apply[TelemetryConsumerOption](opts, rest...) {
		opt.telemetryConsumer(o)
	}
}

// ApplyOptions filters and resolves the provided list of options.
func (o *TelemetryConsumerOptions) ApplyOptions(opts []Option, rest ...Option) {
	for opt := range options.Apply[TelemetryConsumerOption](opts, rest...) {
		opt.telemetryConsumer(o)
	}
}

func (o *TelemetryConsumerOptions) telemetryConsumer(
	opt *TelemetryConsumerOptions,
) {
	if o != nil {
		*opt = *o
	}
}

func (*TelemetryConsumerOptions) option() {}

func (WithManualAck) option() {}

func (o WithManualAck) telemetryConsumer(opt *TelemetryConsumerOptions) {
	opt.ManualAck = bool(o)
}

func (WithRoutingKeySegment) option() {}

func (o WithRoutingKeySegment) telemetryConsumer(
	opt *TelemetryConsumerOptions,
) {
	opt.RoutingKeySegment = int(o)
}
