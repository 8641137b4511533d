// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package protocol

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Azure-Samples/MqttApplicationSamples/internal/container"
	"github.com/Azure-Samples/MqttApplicationSamples/internal/log"
	"github.com/Azure-Samples/MqttApplicationSamples/internal/mqtt"
	"github.com/Azure-Samples/MqttApplicationSamples/internal/options"
	"github.com/Azure-Samples/MqttApplicationSamples/internal/wallclock"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol/errors"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol/internal"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol/internal/constants"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol/internal/errutil"
	"github.com/google/uuid"
)

type (
	// CommandClient provides the ability to invoke a single command on any
	// number of remote servers. Invocations may be made concurrently.
	CommandClient[Req any, Res any] struct {
		client        MqttClient
		publisher     *publisher[Req]
		encoding      Encoding[Res]
		commandName   string
		requestTopic  string
		responseTopic string
		keepSubs      bool
		log           log.Logger
		metrics       *Metrics

		// Outstanding invocations, keyed by correlation data.
		pending *container.SyncMap[string, chan<- commandReturn[Res]]

		// Response topics in use by this client. The subscriptions themselves
		// are shared with other command clients on the same MQTT client.
		subs   *container.RefCount[string]
		subMu  sync.Mutex
		shared *responseSubscriptions
		close  func()
	}

	// CommandConsumer is the name used by some samples for the client side of
	// a command.
	CommandConsumer[Req any, Res any] = CommandClient[Req, Res]

	// CommandClientOption represents a single command client option.
	CommandClientOption interface{ commandClient(*CommandClientOptions) }

	// CommandClientOptions are the resolved command client options.
	CommandClientOptions struct {
		KeepSubscription bool

		Logger  *slog.Logger
		Metrics *Metrics
	}

	// InvokeOption represent a single per-invoke option.
	InvokeOption interface{ invoke(*InvokeOptions) }

	// InvokeOptions are the resolved per-invoke options.
	InvokeOptions struct {
		Timeout  time.Duration
		Metadata map[string]string
	}

	// WithKeepSubscription leaves response topic subscriptions in place after
	// the invocations using them complete, rather than unsubscribing once the
	// last one does.
	WithKeepSubscription bool

	// CommandResponse contains the response of a command invocation.
	CommandResponse[Res any] struct {
		Message[Res]
	}

	// Return values for an invocation, since they are received asynchronously.
	commandReturn[Res any] struct {
		res *CommandResponse[Res]
		err error
	}
)

// DefaultTimeout is the timeout applied to Invoke if none is specified.
const DefaultTimeout = 5 * time.Second

const commandClientErrStr = "command invocation"

// NewCommandClient creates a new command client and registers its response
// handler with the MQTT client. The topic patterns may contain the {clientId}
// token (replaced by the ID of the server being invoked) and the
// {commandName} token.
func NewCommandClient[Req, Res any](
	client MqttClient,
	requestEncoding Encoding[Req],
	responseEncoding Encoding[Res],
	requestTopicPattern string,
	responseTopicPattern string,
	commandName string,
	opt ...CommandClientOption,
) (cc *CommandClient[Req, Res], err error) {
	var opts CommandClientOptions
	opts.Apply(opt)

	logger := log.Wrap(opts.Logger)
	defer func() { err = errutil.Return(err, logger, true) }()

	if err := errutil.ValidateNonNil(map[string]any{
		"client":           client,
		"requestEncoding":  requestEncoding,
		"responseEncoding": responseEncoding,
	}); err != nil {
		return nil, err
	}

	if err := internal.ValidatePattern(
		"requestTopicPattern",
		requestTopicPattern,
	); err != nil {
		return nil, err
	}
	if err := internal.ValidatePattern(
		"responseTopicPattern",
		responseTopicPattern,
	); err != nil {
		return nil, err
	}

	cc = &CommandClient[Req, Res]{
		client:        client,
		encoding:      responseEncoding,
		commandName:   commandName,
		requestTopic:  requestTopicPattern,
		responseTopic: responseTopicPattern,
		keepSubs:      opts.KeepSubscription,
		log:           logger,
		metrics:       opts.Metrics,
		pending:       container.NewSyncMap[string, chan<- commandReturn[Res]](),
		subs:          container.NewRefCount[string](),
		shared:        acquireResponseSubscriptions(client),
	}
	cc.publisher = &publisher[Req]{
		client:   client,
		encoding: requestEncoding,
		log:      logger,
	}

	unregister := client.RegisterMessageHandler(cc.onMessage)
	cc.close = sync.OnceFunc(func() {
		unregister()
		cc.shared.release()
	})
	return cc, nil
}

// Invoke calls the command on the server with the given client ID. This call
// will block until the command returns, the timeout elapses, or the context is
// cancelled; any desired parallelism between invocations should be handled by
// the caller using normal Go constructs.
func (cc *CommandClient[Req, Res]) Invoke(
	ctx context.Context,
	remoteID string,
	req Req,
	opt ...InvokeOption,
) (res *CommandResponse[Res], err error) {
	var start time.Time
	shallow := true
	defer func() {
		cc.metrics.invoked(cc.commandName, start, err)
		err = errutil.Return(err, cc.log, shallow)
	}()

	var opts InvokeOptions
	opts.Apply(opt)

	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	to := &internal.Timeout{
		Duration: opts.Timeout,
		Name:     "Timeout",
		Text:     commandClientErrStr,
	}
	if err := to.Validate(errors.ArgumentInvalid); err != nil {
		return nil, err
	}

	requestTopic := internal.ResolveTopic(cc.requestTopic, remoteID, cc.commandName)
	responseTopic := internal.ResolveTopic(cc.responseTopic, remoteID, cc.commandName)

	correlation, err := errutil.NewCorrelation()
	if err != nil {
		return nil, err
	}

	pub, err := cc.publisher.build(requestTopic, req, opts.Metadata)
	if err != nil {
		return nil, err
	}
	pub.CorrelationData = correlation[:]
	pub.ResponseTopic = responseTopic
	pub.MessageExpiry = to.MessageExpiry()

	ctx, cancel := to.Context(ctx)
	defer cancel()

	shallow = false
	if err := cc.subscribe(ctx, responseTopic); err != nil {
		return nil, err
	}
	defer cc.unsubscribe(ctx, responseTopic)

	ret := make(chan commandReturn[Res], 1)
	key := correlation.String()
	cc.pending.Store(key, ret)
	defer cc.pending.Delete(key)

	start = wallclock.Instance.Now()
	if err := cc.publisher.publish(ctx, pub); err != nil {
		return nil, err
	}

	select {
	case r := <-ret:
		return r.res, r.err
	case <-ctx.Done():
		return nil, errors.Context(ctx, commandClientErrStr)
	}
}

// Close the command client, unregistering its response handler. Invocations
// still in flight will time out.
func (cc *CommandClient[Req, Res]) Close() {
	cc.close()
}

// Ensure the response topic is subscribed before the request is sent, so the
// response cannot be missed.
func (cc *CommandClient[Req, Res]) subscribe(
	ctx context.Context,
	topic string,
) error {
	cc.subMu.Lock()
	defer cc.subMu.Unlock()

	if !cc.subs.Acquire(topic) {
		return nil
	}

	subscribed, err := cc.shared.subscribe(ctx, topic)
	if err != nil {
		cc.subs.Release(topic)
		return err
	}
	if subscribed {
		cc.log.Debug(ctx, "response topic subscribed", slog.String("topic", topic))
	}
	return nil
}

// Tear down the response topic subscription once the last invocation using it
// has completed, on this and every other command client sharing the MQTT
// client.
func (cc *CommandClient[Req, Res]) unsubscribe(
	ctx context.Context,
	topic string,
) {
	if cc.keepSubs {
		return
	}

	cc.subMu.Lock()
	defer cc.subMu.Unlock()

	if !cc.subs.Release(topic) {
		return
	}

	// The invocation context has likely expired by now.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultTimeout)
	defer cancel()

	unsubscribed, err := cc.shared.unsubscribe(ctx, topic)
	if err != nil {
		cc.log.Warn(ctx, err, slog.String("topic", topic))
		return
	}
	if unsubscribed {
		cc.log.Debug(ctx, "response topic unsubscribed", slog.String("topic", topic))
	}
}

func (cc *CommandClient[Req, Res]) onMessage(
	ctx context.Context,
	pub *mqtt.Message,
) bool {
	if cc.subs.Count(pub.Topic) == 0 {
		return false
	}
	defer func() {
		if err := pub.Ack(); err != nil {
			cc.log.Err(ctx, err, slog.String("topic", pub.Topic))
		}
	}()

	if len(pub.CorrelationData) == 0 {
		cc.log.Warn(ctx, &errors.Error{
			Message:    "correlation data missing",
			Kind:       errors.HeaderMissing,
			HeaderName: constants.CorrelationData,
		}, slog.String("topic", pub.Topic))
		return true
	}

	correlation, err := uuid.FromBytes(pub.CorrelationData)
	if err != nil {
		cc.log.Warn(ctx, &errors.Error{
			Message:     "correlation data is not a valid UUID",
			Kind:        errors.HeaderInvalid,
			HeaderName:  constants.CorrelationData,
			NestedError: err,
		}, slog.String("topic", pub.Topic))
		return true
	}

	// Removing the entry here ensures only the first response is delivered.
	ret, ok := cc.pending.LoadAndDelete(correlation.String())
	if !ok {
		cc.log.Warn(ctx, &errors.Error{
			Message:     "response matches no pending invocation",
			Kind:        errors.CorrelationMismatch,
			HeaderName:  constants.CorrelationData,
			HeaderValue: correlation.String(),
		}, slog.String("topic", pub.Topic))
		return true
	}

	res, err := cc.response(pub, correlation)
	ret <- commandReturn[Res]{res, err}
	return true
}

// Build the result of an invocation from its response message. A remote error
// status takes precedence over the payload, which then holds the error text.
func (cc *CommandClient[Req, Res]) response(
	pub *mqtt.Message,
	correlation uuid.UUID,
) (*CommandResponse[Res], error) {
	if err := errutil.FromUserProp(pub.UserProperties, pub.Payload); err != nil {
		return nil, err
	}

	if err := checkContentType(cc.encoding, pub); err != nil {
		return nil, err
	}

	payload, err := deserialize(cc.encoding, pub.Payload)
	if err != nil {
		return nil, err
	}

	return &CommandResponse[Res]{Message[Res]{
		Payload:         payload,
		Topic:           pub.Topic,
		ContentType:     pub.ContentType,
		CorrelationData: correlation.String(),
		UserProperties:  pub.UserProperties,
	}}, nil
}

// Apply resolves the provided list of options.
func (o *CommandClientOptions) Apply(
	opts []CommandClientOption,
	rest ...CommandClientOption,
) {
	for opt := range options.Apply[CommandClientOption](opts, rest...) {
		opt.commandClient(o)
	}
}

// ApplyOptions filters and resolves the provided list of options.
func (o *CommandClientOptions) ApplyOptions(opts []Option, rest ...Option) {
	for opt := range options.Apply[CommandClientOption](opts, rest...) {
		opt.commandClient(o)
	}
}

func (o *CommandClientOptions) commandClient(opt *CommandClientOptions) {
	if o != nil {
		*opt = *o
	}
}

func (*CommandClientOptions) option() {}

func (o WithKeepSubscription) commandClient(opt *CommandClientOptions) {
	opt.KeepSubscription = bool(o)
}

func (WithKeepSubscription) option() {}

// Apply resolves the provided list of options.
func (o *InvokeOptions) Apply(
	opts []InvokeOption,
	rest ...InvokeOption,
) {
	for opt := range options.Apply[InvokeOption](opts, rest...) {
		opt.invoke(o)
	}
}

func (o *InvokeOptions) invoke(opt *InvokeOptions) {
	if o != nil {
		*opt = *o
	}
}
