// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqtt

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Azure-Samples/MqttApplicationSamples/internal/container"
	"github.com/Azure-Samples/MqttApplicationSamples/internal/log"
	"github.com/Azure-Samples/MqttApplicationSamples/mqtt/internal"
	"github.com/Azure-Samples/MqttApplicationSamples/mqtt/retry"
	"github.com/eclipse/paho.golang/paho"
	"github.com/eclipse/paho.golang/paho/session"
	"github.com/eclipse/paho.golang/paho/session/state"
)

type (
	// SessionClient implements an MQTT v5 session client with QoS 0 and QoS 1
	// support. It reconnects automatically after connection loss, restoring
	// its subscriptions if the server did not keep the session.
	SessionClient struct {
		// Used to ensure Connect() is called only once and that user
		// operations are only started after Connect() is called.
		state atomic.Uint32

		// Used to signal client shutdown for cleaning up background goroutines
		// and inflight operations.
		shutdown *internal.Background

		// Context handed to message handlers; cancelled on shutdown.
		handlerCtx context.Context
		stopCtx    context.CancelFunc

		// Tracker for the connection.
		conn *internal.ConnectionTracker[*paho.Client]

		// Handlers for incoming messages. Every handler sees every message.
		messageHandlers *internal.Handlers[MessageHandler]

		// Handlers notified of successful MQTT connections.
		connectEventHandlers *internal.Handlers[ConnectEventHandler]

		// Handlers notified of a disconnection from the MQTT server.
		disconnectEventHandlers *internal.Handlers[DisconnectEventHandler]

		// Handlers called in goroutines once the session client terminates
		// due to a fatal error.
		fatalErrorHandlers *internal.Handlers[func(error)]

		// Active subscriptions, restored when the server loses the session.
		subscriptions *container.SyncMap[string, paho.SubscribeOptions]

		// Paho's internal MQTT session tracker.
		session session.SessionManager

		connectionProvider ConnectionProvider
		options            SessionClientOptions

		// Error that terminated the client, if any.
		fatal atomic.Pointer[error]

		log internal.Logger
	}

	// ConnectEvent contains the relevent metadata provided to the handler
	// when the MQTT client connects to the broker.
	ConnectEvent struct {
		ReasonCode     byte
		SessionPresent bool
	}

	// ConnectEventHandler is a user-defined callback function used to respond
	// to connection notifications from the MQTT client.
	ConnectEventHandler = func(*ConnectEvent)

	// DisconnectEvent contains the relevent metadata provided to the handler
	// when the MQTT client disconnects from the broker.
	DisconnectEvent struct {
		ReasonCode *byte
		Error      error
	}

	// DisconnectEventHandler is a user-defined callback function used to
	// respond to disconnection notifications from the MQTT client.
	DisconnectEventHandler = func(*DisconnectEvent)
)

// NewSessionClient constructs a new session client with user options. The
// client does not connect until Connect is called.
func NewSessionClient(
	connectionProvider ConnectionProvider,
	opt ...SessionClientOption,
) *SessionClient {
	client := &SessionClient{
		connectionProvider: connectionProvider,

		shutdown:                internal.NewBackground(&ClientStateError{ShutDown}),
		conn:                    internal.NewConnectionTracker[*paho.Client](),
		messageHandlers:         internal.NewHandlers[MessageHandler](),
		connectEventHandlers:    internal.NewHandlers[ConnectEventHandler](),
		disconnectEventHandlers: internal.NewHandlers[DisconnectEventHandler](),
		fatalErrorHandlers:      internal.NewHandlers[func(error)](),
		subscriptions:           container.NewSyncMap[string, paho.SubscribeOptions](),

		session: state.NewInMemory(),

		options: SessionClientOptions{
			CleanStart: true,
			KeepAlive:  defaultKeepAlive,
		},
	}

	client.options.Apply(opt)

	if client.options.ClientID == "" {
		client.options.ClientID = internal.RandomClientID()
	}

	if client.options.ConnectionRetry == nil {
		client.options.ConnectionRetry = &retry.ExponentialBackoff{
			Logger: client.options.Logger,
		}
	}

	client.log = internal.Logger{Logger: log.Wrap(client.options.Logger)}
	client.handlerCtx, client.stopCtx = client.shutdown.With(
		context.Background(),
	)

	return client
}

// ID returns the MQTT client ID for this session client.
func (c *SessionClient) ID() string {
	return c.options.ClientID
}

// RegisterMessageHandler registers a message handler on this client. Every
// handler is called for every message; a handler returns true to claim the
// message, taking ownership of its ack. Messages no handler claims are acked
// automatically. Returns a callback to remove the message handler.
func (c *SessionClient) RegisterMessageHandler(
	handler MessageHandler,
) func() {
	return c.messageHandlers.Add(handler)
}

// RegisterConnectEventHandler registers a handler to a list of handlers that
// are called synchronously in registration order whenever the session client
// successfully establishes an MQTT connection. Returns a callback to remove
// the handler.
func (c *SessionClient) RegisterConnectEventHandler(
	handler ConnectEventHandler,
) func() {
	return c.connectEventHandlers.Add(handler)
}

// RegisterDisconnectEventHandler registers a handler to a list of handlers
// that are called synchronously in registration order whenever the session
// client detects a disconnection from the MQTT server. Returns a callback to
// remove the handler.
func (c *SessionClient) RegisterDisconnectEventHandler(
	handler DisconnectEventHandler,
) func() {
	return c.disconnectEventHandlers.Add(handler)
}

// RegisterFatalErrorHandler registers a handler that is called in a goroutine
// if the session client terminates due to a fatal error. Returns a callback to
// remove the handler.
func (c *SessionClient) RegisterFatalErrorHandler(
	handler func(error),
) func() {
	return c.fatalErrorHandlers.Add(handler)
}

// Done returns a channel that is closed once the session client has shut
// down, whether by Disconnect or a fatal error.
func (c *SessionClient) Done() <-chan struct{} {
	return c.shutdown.Done()
}

// Err returns the fatal error that terminated the session client, if any.
func (c *SessionClient) Err() error {
	if err := c.fatal.Load(); err != nil {
		return *err
	}
	return nil
}

func (c *SessionClient) ensureStarted() error {
	switch s := ClientState(c.state.Load()); s {
	case Started:
		return nil
	default:
		return &ClientStateError{s}
	}
}

// Dispatch an incoming publish to every registered handler, acking it if no
// handler claims it.
func (c *SessionClient) onPublishReceived(
	pr paho.PublishReceived,
) (bool, error) {
	ctx := c.handlerCtx
	pub := pr.Packet
	c.log.Packet(ctx, "publish received", pub)

	msg := buildMessage(pub)
	msg.Ack = sync.OnceValue(func() error {
		// QoS 0 messages have no ack.
		if pub.QoS == 0 {
			return nil
		}
		if err := pr.Client.Ack(pub); err != nil {
			return &ConnectionError{message: "error sending PUBACK", wrapped: err}
		}
		return nil
	})

	claimed := false
	for handler := range c.messageHandlers.All() {
		if handler(ctx, msg) {
			claimed = true
		}
	}

	if !claimed {
		if err := msg.Ack(); err != nil {
			c.log.Err(ctx, err)
		}
	}
	return true, nil
}

func buildMessage(p *paho.Publish) *Message {
	msg := &Message{
		Topic:   p.Topic,
		Payload: p.Payload,
		PublishOptions: PublishOptions{
			QoS:    p.QoS,
			Retain: p.Retain,
		},
	}
	if prop := p.Properties; prop != nil {
		msg.ContentType = prop.ContentType
		msg.CorrelationData = prop.CorrelationData
		msg.ResponseTopic = prop.ResponseTopic
		msg.UserProperties = internal.UserPropertiesToMap(prop.User)
		if prop.MessageExpiry != nil {
			msg.MessageExpiry = *prop.MessageExpiry
		}
		if prop.PayloadFormat != nil {
			msg.PayloadFormat = *prop.PayloadFormat
		}
	}
	return msg
}
