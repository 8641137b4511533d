// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package protocol

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Azure-Samples/MqttApplicationSamples/internal/log"
	"github.com/Azure-Samples/MqttApplicationSamples/internal/mqtt"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol/internal"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol/internal/errutil"
)

type (
	// Listener represents an object which will listen to a MQTT topic.
	Listener interface {
		Start(context.Context) error
		Close()
	}

	// Provide the shared implementation details for the MQTT listeners.
	listener[T any] struct {
		client      MqttClient
		encoding    Encoding[T]
		filter      string
		shareName   string
		qos         byte
		concurrency uint
		log         log.Logger
		handler     interface {
			onMsg(context.Context, *mqtt.Message)
		}

		handle     func(context.Context, *mqtt.Message)
		done       func()
		unregister func()

		mu         sync.Mutex
		subscribed bool
	}
)

// Register the message handler with the client. Messages are only received
// once the listener has been started.
func (l *listener[T]) register() {
	l.handle, l.done = internal.Concurrent(l.concurrency, l.handler.onMsg)
	l.unregister = l.client.RegisterMessageHandler(l.onMessage)
}

// Claim messages on the listener's topic filter and dispatch them.
func (l *listener[T]) onMessage(ctx context.Context, pub *mqtt.Message) bool {
	if !mqtt.IsTopicFilterMatch(l.filter, pub.Topic) {
		return false
	}
	l.handle(ctx, pub)
	return true
}

func (l *listener[T]) start(ctx context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.subscribed {
		return nil
	}

	filter := mqtt.ShareFilter(l.shareName, l.filter)
	ack, err := l.client.Subscribe(ctx, filter,
		mqtt.WithQoS(l.qos),
		mqtt.WithNoLocal(l.shareName == ""),
	)
	if err = errutil.Mqtt(ctx, "subscribe", ack, err); err != nil {
		return errutil.Return(err, l.log, false)
	}

	l.subscribed = true
	l.log.Info(ctx, name+" subscribed", slog.String("topic", filter))
	return nil
}

func (l *listener[T]) close(name string) {
	ctx := context.Background()

	l.mu.Lock()
	if l.subscribed {
		filter := mqtt.ShareFilter(l.shareName, l.filter)
		ack, err := l.client.Unsubscribe(ctx, filter)
		if err = errutil.Mqtt(ctx, "unsubscribe", ack, err); err != nil {
			// Returning an error from a close function that is most likely to
			// be deferred is rarely useful, so just log it.
			l.log.Err(ctx, err)
		} else {
			l.log.Info(ctx, name+" unsubscribed", slog.String("topic", filter))
		}
		l.subscribed = false
	}
	l.mu.Unlock()

	l.unregister()
	l.done()
}

// Validate and deserialize the payload of a received message.
func (l *listener[T]) payload(pub *mqtt.Message) (T, error) {
	if err := checkContentType(l.encoding, pub); err != nil {
		var zero T
		return zero, err
	}
	return deserialize(l.encoding, pub.Payload)
}

func (l *listener[T]) ack(ctx context.Context, pub *mqtt.Message) {
	if err := pub.Ack(); err != nil {
		l.log.Err(ctx, err, slog.String("topic", pub.Topic))
	}
}

// Start all of the provided listeners, closing any already started if one of
// them fails. Returns a function that closes all of them.
func Start(ctx context.Context, listeners ...Listener) (func(), error) {
	started := make([]Listener, 0, len(listeners))
	closeAll := func() {
		for _, l := range started {
			l.Close()
		}
	}
	for _, l := range listeners {
		if err := l.Start(ctx); err != nil {
			closeAll()
			return nil, err
		}
		started = append(started, l)
	}
	return closeAll, nil
}
