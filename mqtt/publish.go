// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqtt

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Azure-Samples/MqttApplicationSamples/mqtt/internal"
	"github.com/eclipse/paho.golang/paho"
)

// Publish sends a publish request to the MQTT server. For QoS 1 it blocks
// until the PUBACK arrives; if the connection drops first, the publish is
// retried on the next connection. A PUBACK with a failure reason code is
// reported through the returned Ack rather than as an error.
func (c *SessionClient) Publish(
	ctx context.Context,
	topic string,
	payload []byte,
	opts ...PublishOption,
) (*Ack, error) {
	var opt PublishOptions
	opt.Apply(opts)

	if topic == "" || strings.ContainsAny(topic, "+#") {
		return nil, &InvalidArgumentError{message: "invalid topic name"}
	}
	if opt.QoS >= QoS2 {
		return nil, &InvalidArgumentError{message: "unsupported QoS"}
	}
	if opt.PayloadFormat > PayloadFormatUTF8 {
		return nil, &InvalidArgumentError{message: "invalid payload format"}
	}

	pub := &paho.Publish{
		QoS:     opt.QoS,
		Retain:  opt.Retain,
		Topic:   topic,
		Payload: payload,
		Properties: &paho.PublishProperties{
			ContentType:     opt.ContentType,
			CorrelationData: opt.CorrelationData,
			PayloadFormat:   &opt.PayloadFormat,
			ResponseTopic:   opt.ResponseTopic,
			User:            internal.MapToUserProperties(opt.UserProperties),
		},
	}
	if opt.MessageExpiry > 0 {
		pub.Properties.MessageExpiry = &opt.MessageExpiry
	}

	return c.do(ctx, "publish", pub,
		func(ctx context.Context, client *paho.Client) (*Ack, error) {
			res, err := client.Publish(ctx, pub)
			if res == nil {
				if err != nil {
					return nil, err
				}
				return &Ack{}, nil
			}
			ack := &Ack{ReasonCode: res.ReasonCode}
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

// Run an operation on the current connection, rerunning it on the next
// connection if the connection drops before it completes.
func (c *SessionClient) do(
	ctx context.Context,
	name string,
	packet any,
	op func(context.Context, *paho.Client) (*Ack, error),
) (*Ack, error) {
	if err := c.ensureStarted(); err != nil {
		return nil, err
	}

	ctx, cancel := c.shutdown.With(ctx)
	defer cancel()

	c.log.Packet(ctx, name, packet)
	for connCtx, client := range c.conn.Client(ctx) {
		ack, err := op(connCtx, client)
		if err == nil {
			c.log.Packet(ctx, name+" ack", ack)
			return ack, nil
		}
		if connCtx.Err() == nil {
			return nil, &ConnectionError{message: name + " failed", wrapped: err}
		}
		c.log.Info(ctx, name+" interrupted by disconnection",
			slog.String("error", err.Error()),
		)
	}
	return nil, context.Cause(ctx)
}
