// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package protocol

import (
	"context"
	"log/slog"
	"time"

	"github.com/Azure-Samples/MqttApplicationSamples/internal/log"
	"github.com/Azure-Samples/MqttApplicationSamples/internal/options"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol/errors"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol/internal"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol/internal/errutil"
)

type (
	// TelemetryProducer provides the ability to send a single telemetry. Its
	// topic is resolved once, using the MQTT client's ID.
	TelemetryProducer[T any] struct {
		publisher *publisher[T]
		topic     string
		log       log.Logger
	}

	// TelemetryProducerOption represents a single telemetry producer option.
	TelemetryProducerOption interface {
		telemetryProducer(*TelemetryProducerOptions)
	}

	// TelemetryProducerOptions are the resolved telemetry producer options.
	TelemetryProducerOptions struct {
		Logger *slog.Logger
	}

	// SendOption represent a single per-send option.
	SendOption interface{ send(*SendOptions) }

	// SendOptions are the resolved per-send options.
	SendOptions struct {
		QoS           byte
		Retain        bool
		MessageExpiry time.Duration
		Metadata      map[string]string
	}

	// WithRetain indicates that the telemetry should be retained by the
	// broker.
	WithRetain bool

	// WithMessageExpiry sets how long the broker keeps the telemetry for
	// subscribers that have not yet received it.
	WithMessageExpiry time.Duration
)

const telemetryProducerErrStr = "telemetry send"

// NewTelemetryProducer creates a new telemetry producer. Any {clientId} token
// in the topic pattern is replaced with the MQTT client's ID.
func NewTelemetryProducer[T any](
	client MqttClient,
	encoding Encoding[T],
	topicPattern string,
	opt ...TelemetryProducerOption,
) (tp *TelemetryProducer[T], err error) {
	var opts TelemetryProducerOptions
	opts.Apply(opt)

	logger := log.Wrap(opts.Logger)
	defer func() { err = errutil.Return(err, logger, true) }()

	if err := errutil.ValidateNonNil(map[string]any{
		"client":   client,
		"encoding": encoding,
	}); err != nil {
		return nil, err
	}

	if err := internal.ValidatePattern("topicPattern", topicPattern); err != nil {
		return nil, err
	}

	return &TelemetryProducer[T]{
		publisher: &publisher[T]{
			client:   client,
			encoding: encoding,
			log:      logger,
		},
		topic: internal.ResolveClientID(topicPattern, client.ID()),
		log:   logger,
	}, nil
}

// Topic returns the resolved topic telemetry is sent to.
func (tp *TelemetryProducer[T]) Topic() string {
	return tp.topic
}

// Send a single telemetry value. Sends at QoS 1 unless specified otherwise.
func (tp *TelemetryProducer[T]) Send(
	ctx context.Context,
	val T,
	opt ...SendOption,
) (err error) {
	shallow := true
	defer func() { err = errutil.Return(err, tp.log, shallow) }()

	opts := SendOptions{QoS: 1}
	opts.Apply(opt)

	if opts.QoS > 1 {
		return &errors.Error{
			Message:       "unsupported QoS",
			Kind:          errors.ArgumentInvalid,
			PropertyName:  "QoS",
			PropertyValue: opts.QoS,
		}
	}

	expiry := &internal.Timeout{
		Duration: opts.MessageExpiry,
		Name:     "MessageExpiry",
		Text:     telemetryProducerErrStr,
	}
	if err := expiry.Validate(errors.ArgumentInvalid); err != nil {
		return err
	}

	pub, err := tp.publisher.build(tp.topic, val, opts.Metadata)
	if err != nil {
		return err
	}
	pub.QoS = opts.QoS
	pub.Retain = opts.Retain
	pub.MessageExpiry = expiry.MessageExpiry()

	shallow = false
	return tp.publisher.publish(ctx, pub)
}

// Apply resolves the provided list of options.
func (o *TelemetryProducerOptions) Apply(
	opts []TelemetryProducerOption,
	rest ...TelemetryProducerOption,
) {
	for opt := range options.Apply[TelemetryProducerOption](opts, rest...) {
		opt.telemetryProducer(o)
	}
}

// ApplyOptions filters and resolves the provided list of options.
func (o *TelemetryProducerOptions) ApplyOptions(opts []Option, rest ...Option) {
	for opt := range options.Apply[TelemetryProducerOption](opts, rest...) {
		opt.telemetryProducer(o)
	}
}

func (o *TelemetryProducerOptions) telemetryProducer(
	opt *TelemetryProducerOptions,
) {
	if o != nil {
		*opt = *o
	}
}

func (*TelemetryProducerOptions) option() {}

// Apply resolves the provided list of options.
func (o *SendOptions) Apply(
	opts []SendOption,
	rest ...SendOption,
) {
	for opt := range options.Apply[SendOption](opts, rest...) {
		opt.send(o)
	}
}

func (o *SendOptions) send(opt *SendOptions) {
	if o != nil {
		*opt = *o
	}
}

func (WithRetain) option() {}

func (o WithRetain) send(opt *SendOptions) {
	opt.Retain = bool(o)
}

func (WithMessageExpiry) option() {}

func (o WithMessageExpiry) send(opt *SendOptions) {
	opt.MessageExpiry = time.Duration(o)
}
