// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqtt

import "context"

type (
	// Message represents a received message.
	Message struct {
		Topic   string
		Payload []byte
		PublishOptions

		// Ack will manually ack the message. All handled messages must be acked
		// (except for QoS 0 messages, in which case this is a no-op).
		Ack func() error
	}

	// MessageHandler is a user-defined callback function used to handle
	// messages received by the client. Handlers are called for every message,
	// and are responsible for filtering the topics they are interested in.
	// Returning true indicates that the handler took ownership of the message
	// (including its ack).
	MessageHandler = func(context.Context, *Message) bool

	// Ack contains values from PUBACK/SUBACK/UNSUBACK packets received from the
	// MQTT server.
	Ack struct {
		ReasonCode     byte
		ReasonString   string
		UserProperties map[string]string
	}
)

// Quality of Service levels.
const (
	// QoS0 indicates at most once delivery, a.k.a. "fire and forget".
	QoS0 byte = iota

	// QoS1 indicates at least once delivery, which ensures the message is
	// delivered at least one time to the receiver.
	QoS1

	// QoS2 indicates exactly once delivery. It is not supported by the session
	// client.
	QoS2
)

// Payload Format indicators.
const (
	// PayloadFormatBytes indicates that the payload is unspecified bytes.
	PayloadFormatBytes byte = iota

	// PayloadFormatUTF8 indicates that the payload is UTF-8 encoded character
	// data.
	PayloadFormatUTF8
)
