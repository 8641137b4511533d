// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package protocol

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Azure-Samples/MqttApplicationSamples/internal/log"
	"github.com/Azure-Samples/MqttApplicationSamples/internal/mqtt"
	"github.com/Azure-Samples/MqttApplicationSamples/internal/options"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol/errors"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol/internal"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol/internal/constants"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol/internal/errutil"
	"github.com/google/uuid"
)

type (
	// CommandServer provides the ability to execute a single command, serving
	// requests addressed to the MQTT client's own ID.
	CommandServer[Req any, Res any] struct {
		listener    *listener[Req]
		publisher   *publisher[Res]
		handler     CommandHandler[Req, Res]
		commandName string
		timeout     *internal.Timeout
		log         log.Logger
		metrics     *Metrics
	}

	// CommandProducer is the name used by some samples for the server side of
	// a command.
	CommandProducer[Req any, Res any] = CommandServer[Req, Res]

	// CommandServerOption represents a single command server option.
	CommandServerOption interface{ commandServer(*CommandServerOptions) }

	// CommandServerOptions are the resolved command server options.
	CommandServerOptions struct {
		Concurrency uint
		Timeout     time.Duration
		ShareName   string

		Logger  *slog.Logger
		Metrics *Metrics
	}

	// CommandHandler is the user-provided implementation of a single command
	// execution. It is treated as blocking; all parallelism is handled by the
	// library. This *must* be thread-safe.
	CommandHandler[Req any, Res any] = func(
		context.Context,
		*CommandRequest[Req],
	) (Res, error)

	// CommandRequest contains per-message data that is exposed to the command
	// handlers.
	CommandRequest[Req any] struct {
		Message[Req]

		// The topic the response will be sent to.
		ResponseTopic string
	}

	// Return values of a handler, since it runs in its own goroutine.
	handlerReturn[Res any] struct {
		res Res
		err error
	}
)

const (
	commandServerComponentName = "command server"
	commandServerErrStr        = "command execution"
)

// NewCommandServer creates a new command server. Its request topic is resolved
// immediately using the MQTT client's ID and the command name.
func NewCommandServer[Req, Res any](
	client MqttClient,
	requestEncoding Encoding[Req],
	responseEncoding Encoding[Res],
	requestTopicPattern string,
	commandName string,
	handler CommandHandler[Req, Res],
	opt ...CommandServerOption,
) (cs *CommandServer[Req, Res], err error) {
	var opts CommandServerOptions
	opts.Apply(opt)

	logger := log.Wrap(opts.Logger)
	defer func() { err = errutil.Return(err, logger, true) }()

	if err := errutil.ValidateNonNil(map[string]any{
		"client":           client,
		"requestEncoding":  requestEncoding,
		"responseEncoding": responseEncoding,
		"handler":          handler,
	}); err != nil {
		return nil, err
	}

	if err := internal.ValidatePattern(
		"requestTopicPattern",
		requestTopicPattern,
	); err != nil {
		return nil, err
	}

	to := &internal.Timeout{
		Duration: opts.Timeout,
		Name:     "ExecutionTimeout",
		Text:     commandServerErrStr,
	}
	if err := to.Validate(errors.ConfigurationInvalid); err != nil {
		return nil, err
	}

	if err := internal.ValidateShareName(opts.ShareName); err != nil {
		return nil, err
	}

	cs = &CommandServer[Req, Res]{
		handler:     handler,
		commandName: commandName,
		timeout:     to,
		log:         logger,
		metrics:     opts.Metrics,
	}
	cs.listener = &listener[Req]{
		client:   client,
		encoding: requestEncoding,
		filter: internal.ResolveTopic(
			requestTopicPattern,
			client.ID(),
			commandName,
		),
		shareName:   opts.ShareName,
		qos:         mqtt.QoS1,
		concurrency: opts.Concurrency,
		log:         logger,
		handler:     cs,
	}
	cs.publisher = &publisher[Res]{
		client:   client,
		encoding: responseEncoding,
		log:      logger,
	}

	cs.listener.register()
	return cs, nil
}

// Topic returns the resolved request topic the server listens on.
func (cs *CommandServer[Req, Res]) Topic() string {
	return cs.listener.filter
}

// Start listening to the MQTT request topic.
func (cs *CommandServer[Req, Res]) Start(ctx context.Context) error {
	return cs.listener.start(ctx, commandServerComponentName)
}

// Close the command server to free its resources.
func (cs *CommandServer[Req, Res]) Close() {
	cs.listener.close(commandServerComponentName)
}

func (cs *CommandServer[Req, Res]) onMsg(
	ctx context.Context,
	pub *mqtt.Message,
) {
	defer cs.listener.ack(ctx, pub)

	cs.log.Debug(ctx, "request received",
		slog.String("topic", pub.Topic),
		slog.Any("correlation_data", pub.CorrelationData),
	)

	// Without a response topic there is nowhere to report anything.
	if pub.ResponseTopic == "" {
		cs.log.Warn(ctx, &errors.Error{
			Message:    "response topic missing",
			Kind:       errors.HeaderMissing,
			HeaderName: constants.ResponseTopic,
		}, slog.String("topic", pub.Topic))
		return
	}

	res, err := cs.execute(ctx, pub)
	rpub := cs.build(ctx, pub, res, err)

	// Responses are not retried.
	if err := cs.publisher.publish(ctx, rpub); err != nil {
		cs.log.Err(ctx, err, slog.String("topic", rpub.Topic))
		return
	}
	cs.metrics.served(cs.commandName, rpub.UserProperties[constants.Status])
}

// Validate, deserialize and handle a request.
func (cs *CommandServer[Req, Res]) execute(
	ctx context.Context,
	pub *mqtt.Message,
) (res Res, err error) {
	payload, err := cs.listener.payload(pub)
	if err != nil {
		return res, err
	}

	req := &CommandRequest[Req]{
		Message: Message[Req]{
			Payload:        payload,
			Topic:          pub.Topic,
			ContentType:    pub.ContentType,
			UserProperties: pub.UserProperties,
		},
		ResponseTopic: pub.ResponseTopic,
	}
	if correlation, err := uuid.FromBytes(pub.CorrelationData); err == nil {
		req.CorrelationData = correlation.String()
	}

	handlerCtx, cancel := cs.timeout.Context(ctx)
	defer cancel()

	return cs.handle(handlerCtx, req)
}

// Call handler with panic catch. The handler runs in its own goroutine so that
// a timeout is reported even if the handler does not respect its context.
func (cs *CommandServer[Req, Res]) handle(
	ctx context.Context,
	req *CommandRequest[Req],
) (Res, error) {
	var zero Res
	rchan := make(chan handlerReturn[Res], 1)

	go func() {
		var ret handlerReturn[Res]
		defer func() {
			if ePanic := recover(); ePanic != nil {
				ret.err = &errors.Error{
					Message:       fmt.Sprint(ePanic),
					Kind:          errors.ExecutionException,
					InApplication: true,
				}
			}
			rchan <- ret
		}()
		ret.res, ret.err = cs.handler(ctx, req)
	}()

	select {
	case ret := <-rchan:
		if e := errors.Context(ctx, commandServerErrStr); e != nil {
			// An error from the context overrides any return value.
			return zero, e
		}
		if ret.err != nil {
			if errors.IsKind(ret.err, errors.ExecutionException) {
				return zero, ret.err
			}
			return zero, &errors.Error{
				Message:       ret.err.Error(),
				Kind:          errors.ExecutionException,
				NestedError:   ret.err,
				InApplication: true,
			}
		}
		return ret.res, nil
	case <-ctx.Done():
		return zero, errors.Context(ctx, commandServerErrStr)
	}
}

// Build the response publish packet. Errors are reported with their text as
// the payload and no content type.
func (cs *CommandServer[Req, Res]) build(
	ctx context.Context,
	pub *mqtt.Message,
	res Res,
	resErr error,
) *mqtt.Message {
	var rpub *mqtt.Message
	if resErr == nil {
		var err error
		rpub, err = cs.publisher.build(pub.ResponseTopic, res, nil)
		if err != nil {
			resErr = err
		}
	}
	if resErr != nil {
		// The error is returned to the invoker, so only warn about it here.
		cs.log.Warn(ctx, resErr,
			slog.String("topic", pub.Topic),
			slog.Any("correlation_data", pub.CorrelationData),
		)
		rpub = &mqtt.Message{
			Topic:   pub.ResponseTopic,
			Payload: []byte(resErr.Error()),
			PublishOptions: mqtt.PublishOptions{
				PayloadFormat: mqtt.PayloadFormatUTF8,
				QoS:           mqtt.QoS1,
			},
		}
	}

	rpub.CorrelationData = pub.CorrelationData
	rpub.MessageExpiry = pub.MessageExpiry
	rpub.UserProperties = errutil.ToUserProp(resErr)
	return rpub
}

// Apply resolves the provided list of options.
func (o *CommandServerOptions) Apply(
	opts []CommandServerOption,
	rest ...CommandServerOption,
) {
	for opt := range options.Apply[CommandServerOption](opts, rest...) {
		opt.commandServer(o)
	}
}

// ApplyOptions filters and resolves the provided list of options.
func (o *CommandServerOptions) ApplyOptions(opts []Option, rest ...Option) {
	for opt := range options.Apply[CommandServerOption](opts, rest...) {
		opt.commandServer(o)
	}
}

func (o *CommandServerOptions) commandServer(opt *CommandServerOptions) {
	if o != nil {
		*opt = *o
	}
}

func (*CommandServerOptions) option() {}
