// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package protocol

import (
	"context"
	"maps"
	"sync"
	"sync/atomic"

	"github.com/Azure-Samples/MqttApplicationSamples/internal/mqtt"
)

type (
	// In-memory broker delivering publishes to every fake client with a
	// matching subscription.
	fakeBroker struct {
		mu      sync.Mutex
		clients []*fakeClient
	}

	// Fake MQTT client with the same dispatch semantics as the session client:
	// every handler sees every message, and unclaimed messages are acked.
	fakeClient struct {
		id     string
		broker *fakeBroker

		mu         sync.Mutex
		subs       map[string]bool
		handlers   map[int]mqtt.MessageHandler
		next       int
		published  []*mqtt.Message
		deliveries []*delivery

		// Optional hook run before a publish is routed; returning false drops
		// the publish.
		onPublish func(*mqtt.Message) bool

		// Optional hook run before a subscription is recorded.
		onSubscribe func(topic string)

		subscribes   atomic.Int32
		unsubscribes atomic.Int32
	}

	delivery struct {
		msg   *mqtt.Message
		acked atomic.Int32
	}
)

func newFakeBroker() *fakeBroker {
	return &fakeBroker{}
}

func (b *fakeBroker) client(id string) *fakeClient {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := &fakeClient{
		id:       id,
		broker:   b,
		subs:     map[string]bool{},
		handlers: map[int]mqtt.MessageHandler{},
	}
	b.clients = append(b.clients, c)
	return c
}

func (b *fakeBroker) route(ctx context.Context, pub *mqtt.Message) {
	b.mu.Lock()
	clients := append([]*fakeClient(nil), b.clients...)
	b.mu.Unlock()

	for _, c := range clients {
		if c.matches(pub.Topic) {
			c.deliver(ctx, pub)
		}
	}
}

func (c *fakeClient) ID() string {
	return c.id
}

func (c *fakeClient) Publish(
	ctx context.Context,
	topic string,
	payload []byte,
	opts ...mqtt.PublishOption,
) (*mqtt.Ack, error) {
	pub := &mqtt.Message{Topic: topic, Payload: payload}
	pub.PublishOptions.Apply(opts)

	c.mu.Lock()
	c.published = append(c.published, pub)
	hook := c.onPublish
	c.mu.Unlock()

	if hook == nil || hook(pub) {
		c.broker.route(ctx, pub)
	}
	return &mqtt.Ack{}, nil
}

func (c *fakeClient) Subscribe(
	_ context.Context,
	topic string,
	_ ...mqtt.SubscribeOption,
) (*mqtt.Ack, error) {
	c.subscribes.Add(1)
	c.mu.Lock()
	hook := c.onSubscribe
	c.mu.Unlock()
	if hook != nil {
		hook(topic)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs[topic] = true
	return &mqtt.Ack{}, nil
}

func (c *fakeClient) Unsubscribe(
	_ context.Context,
	topic string,
) (*mqtt.Ack, error) {
	c.unsubscribes.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, topic)
	return &mqtt.Ack{}, nil
}

func (c *fakeClient) RegisterMessageHandler(
	handler mqtt.MessageHandler,
) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.next
	c.next++
	c.handlers[id] = handler
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.handlers, id)
	}
}

func (c *fakeClient) matches(topic string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for filter := range c.subs {
		if mqtt.IsTopicFilterMatch(filter, topic) {
			return true
		}
	}
	return false
}

// Deliver synchronously, so that delivery order matches publish order.
func (c *fakeClient) deliver(ctx context.Context, pub *mqtt.Message) {
	d := &delivery{}
	d.msg = &mqtt.Message{
		Topic:          pub.Topic,
		Payload:        pub.Payload,
		PublishOptions: pub.PublishOptions,
		Ack: func() error {
			d.acked.Add(1)
			return nil
		},
	}
	d.msg.UserProperties = maps.Clone(pub.UserProperties)

	c.mu.Lock()
	c.deliveries = append(c.deliveries, d)
	handlers := make([]mqtt.MessageHandler, 0, len(c.handlers))
	for _, h := range c.handlers {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()

	claimed := false
	for _, h := range handlers {
		if h(ctx, d.msg) {
			claimed = true
		}
	}
	if !claimed {
		_ = d.msg.Ack()
	}
}

func (c *fakeClient) publishes() []*mqtt.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*mqtt.Message(nil), c.published...)
}

func (c *fakeClient) received() []*delivery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*delivery(nil), c.deliveries...)
}

func (c *fakeClient) subscribed(topic string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subs[topic]
}
