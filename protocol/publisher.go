// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package protocol

import (
	"context"
	"log/slog"
	"maps"

	"github.com/Azure-Samples/MqttApplicationSamples/internal/log"
	"github.com/Azure-Samples/MqttApplicationSamples/internal/mqtt"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol/internal/errutil"
)

// Provide the shared implementation details for the MQTT publishers.
type publisher[T any] struct {
	client   MqttClient
	encoding Encoding[T]
	log      log.Logger
}

// Build a QoS 1 publish for the value, labelled with the encoding's content
// type.
func (p *publisher[T]) build(
	topic string,
	value T,
	metadata map[string]string,
) (*mqtt.Message, error) {
	payload, err := serialize(p.encoding, value)
	if err != nil {
		return nil, err
	}

	pub := &mqtt.Message{
		Topic:   topic,
		Payload: payload,
		PublishOptions: mqtt.PublishOptions{
			ContentType:   p.encoding.ContentType(),
			PayloadFormat: payloadFormat(p.encoding.ContentType()),
			QoS:           mqtt.QoS1,
		},
	}
	if len(metadata) > 0 {
		pub.UserProperties = maps.Clone(metadata)
	}
	return pub, nil
}

func (p *publisher[T]) publish(ctx context.Context, pub *mqtt.Message) error {
	ack, err := p.client.Publish(ctx, pub.Topic, pub.Payload, &pub.PublishOptions)
	if err = errutil.Mqtt(ctx, "publish", ack, err); err != nil {
		return err
	}
	p.log.Debug(ctx, "message published",
		slog.String("topic", pub.Topic),
		slog.Any("correlation_data", pub.CorrelationData),
	)
	return nil
}
