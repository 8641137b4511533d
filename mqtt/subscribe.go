// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqtt

import (
	"context"
	"log/slog"

	"github.com/Azure-Samples/MqttApplicationSamples/mqtt/internal"
	"github.com/eclipse/paho.golang/paho"
)

// Subscribe sends a subscription request to the MQTT server. The
// subscription is restored automatically if a reconnection loses the session.
// Messages are delivered to the registered message handlers.
func (c *SessionClient) Subscribe(
	ctx context.Context,
	topic string,
	opts ...SubscribeOption,
) (*Ack, error) {
	var opt SubscribeOptions
	opt.Apply(opts)

	if topic == "" {
		return nil, &InvalidArgumentError{message: "invalid topic filter"}
	}
	if opt.QoS >= QoS2 {
		return nil, &InvalidArgumentError{message: "unsupported QoS"}
	}

	sub := paho.SubscribeOptions{
		Topic:   topic,
		QoS:     opt.QoS,
		NoLocal: opt.NoLocal,
	}
	packet := &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{sub},
	}

	// Track before sending, so a reconnection mid-request restores it.
	prev, existed := c.subscriptions.Load(topic)
	c.subscriptions.Store(topic, sub)

	ack, err := c.do(ctx, "subscribe", packet,
		func(ctx context.Context, client *paho.Client) (*Ack, error) {
			res, err := client.Subscribe(ctx, packet)
			if res == nil {
				return nil, err
			}
			return subackToAck(res), nil
		},
	)
	if err != nil || ack.ReasonCode >= 0x80 {
		if existed {
			c.subscriptions.Store(topic, prev)
		} else {
			c.subscriptions.Delete(topic)
		}
	}
	return ack, err
}

// Unsubscribe sends an unsubscribe request to the MQTT server.
func (c *SessionClient) Unsubscribe(
	ctx context.Context,
	topic string,
) (*Ack, error) {
	if topic == "" {
		return nil, &InvalidArgumentError{message: "invalid topic filter"}
	}

	packet := &paho.Unsubscribe{Topics: []string{topic}}

	c.subscriptions.Delete(topic)

	return c.do(ctx, "unsubscribe", packet,
		func(ctx context.Context, client *paho.Client) (*Ack, error) {
			res, err := client.Unsubscribe(ctx, packet)
			if res == nil {
				return nil, err
			}
			ack := &Ack{}
			if len(res.Reasons) > 0 {
				ack.ReasonCode = res.Reasons[0]
			}
			if res.Properties != nil {
				ack.ReasonString = res.Properties.ReasonString
				ack.UserProperties = internal.UserPropertiesToMap(
					res.Properties.User,
				)
			}
			return ack, nil
		},
	)
}

// Restore the tracked subscriptions on a connection without a session.
func (c *SessionClient) resubscribe(ctx context.Context, client *paho.Client) {
	var subs []paho.SubscribeOptions
	c.subscriptions.Range(func(_ string, sub paho.SubscribeOptions) bool {
		subs = append(subs, sub)
		return true
	})

	for _, sub := range subs {
		packet := &paho.Subscribe{Subscriptions: []paho.SubscribeOptions{sub}}
		c.log.Packet(ctx, "resubscribe", packet)

		res, err := client.Subscribe(ctx, packet)
		switch {
		case res != nil && subackToAck(res).ReasonCode < 0x80:
			continue
		case err == nil:
			err = &ConnectionError{message: "resubscribe rejected"}
		}
		c.log.Err(ctx, err, slog.String("topic", sub.Topic))
	}
}

func subackToAck(res *paho.Suback) *Ack {
	ack := &Ack{}
	if len(res.Reasons) > 0 {
		ack.ReasonCode = res.Reasons[0]
	}
	if res.Properties != nil {
		ack.ReasonString = res.Properties.ReasonString
		ack.UserProperties = internal.UserPropertiesToMap(res.Properties.User)
	}
	return ack
}
