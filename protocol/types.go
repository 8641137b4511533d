// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package protocol

import (
	"context"

	"github.com/Azure-Samples/MqttApplicationSamples/internal/mqtt"
)

type (
	// MqttClient is the client used for the underlying MQTT connection. It is
	// expected to already be connected (or connecting), and is shared by any
	// number of channels; it outlives all of them.
	MqttClient interface {
		ID() string
		Publish(
			context.Context,
			string,
			[]byte,
			...mqtt.PublishOption,
		) (*mqtt.Ack, error)
		RegisterMessageHandler(mqtt.MessageHandler) func()
		Subscribe(
			context.Context,
			string,
			...mqtt.SubscribeOption,
		) (*mqtt.Ack, error)
		Unsubscribe(context.Context, string) (*mqtt.Ack, error)
	}

	// Message contains common message data that is exposed to message handlers.
	Message[T any] struct {
		// The message payload.
		Payload T

		// The topic the message was received on.
		Topic string

		// The content type of the payload as sent.
		ContentType string

		// The data that identifies a single unique request, if any.
		CorrelationData string

		// Any user properties sent with the message, including status.
		UserProperties map[string]string
	}

	// Option represents any of the option types, and can be filtered and
	// applied by the ApplyOptions methods on the option structs.
	Option interface{ option() }
)

// Must ensures an object is created, or panics on error. Used to create global
// instances, e.g. of a command channel for a sample.
func Must[T any](t T, e error) T {
	if e != nil {
		panic(e)
	}
	return t
}
