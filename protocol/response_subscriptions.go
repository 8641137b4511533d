// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package protocol

import (
	"context"
	"sync"

	"github.com/Azure-Samples/MqttApplicationSamples/internal/container"
	"github.com/Azure-Samples/MqttApplicationSamples/internal/mqtt"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol/internal/errutil"
)

// Response topic subscriptions belong to the MQTT client, not to the command
// client that made them, so their reference counts are kept per MQTT client
// and shared by every command client using it.
type responseSubscriptions struct {
	client  MqttClient
	topics  *container.RefCount[string]
	mu      sync.Mutex
	holders int
}

var subscriptionRegistry = struct {
	clients map[MqttClient]*responseSubscriptions
	sync.Mutex
}{clients: map[MqttClient]*responseSubscriptions{}}

// Get the response subscriptions for the MQTT client. Each call must be
// paired with a call to release.
func acquireResponseSubscriptions(client MqttClient) *responseSubscriptions {
	subscriptionRegistry.Lock()
	defer subscriptionRegistry.Unlock()

	rs, ok := subscriptionRegistry.clients[client]
	if !ok {
		rs = &responseSubscriptions{
			client: client,
			topics: container.NewRefCount[string](),
		}
		subscriptionRegistry.clients[client] = rs
	}
	rs.holders++
	return rs
}

func (rs *responseSubscriptions) release() {
	subscriptionRegistry.Lock()
	defer subscriptionRegistry.Unlock()

	rs.holders--
	if rs.holders == 0 {
		delete(subscriptionRegistry.clients, rs.client)
	}
}

// Subscribe to the topic unless it is already subscribed. Concurrent callers
// for the same topic return only once the SUBACK has been received.
func (rs *responseSubscriptions) subscribe(
	ctx context.Context,
	topic string,
) (subscribed bool, err error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.topics.Acquire(topic) {
		return false, nil
	}

	ack, err := rs.client.Subscribe(ctx, topic, mqtt.WithQoS(mqtt.QoS1))
	if err = errutil.Mqtt(ctx, "subscribe", ack, err); err != nil {
		rs.topics.Release(topic)
		return false, err
	}
	return true, nil
}

// Unsubscribe from the topic if this was its last holder.
func (rs *responseSubscriptions) unsubscribe(
	ctx context.Context,
	topic string,
) (unsubscribed bool, err error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.topics.Release(topic) {
		return false, nil
	}

	ack, err := rs.client.Unsubscribe(ctx, topic)
	if err = errutil.Mqtt(ctx, "unsubscribe", ack, err); err != nil {
		return false, err
	}
	return true, nil
}
