// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqtt

import "github.com/Azure-Samples/MqttApplicationSamples/internal/mqtt"

// As the implementation of the shared interface, all of its types are aliased
// for convenience.
type (
	Message        = mqtt.Message
	MessageHandler = mqtt.MessageHandler
	Ack            = mqtt.Ack

	SubscribeOptions = mqtt.SubscribeOptions
	SubscribeOption  = mqtt.SubscribeOption
	PublishOptions   = mqtt.PublishOptions
	PublishOption    = mqtt.PublishOption

	WithContentType     = mqtt.WithContentType
	WithCorrelationData = mqtt.WithCorrelationData
	WithMessageExpiry   = mqtt.WithMessageExpiry
	WithNoLocal         = mqtt.WithNoLocal
	WithQoS             = mqtt.WithQoS
	WithResponseTopic   = mqtt.WithResponseTopic
	WithRetain          = mqtt.WithRetain
	WithUserProperties  = mqtt.WithUserProperties
)

const (
	QoS0 = mqtt.QoS0
	QoS1 = mqtt.QoS1
	QoS2 = mqtt.QoS2

	PayloadFormatBytes = mqtt.PayloadFormatBytes
	PayloadFormatUTF8  = mqtt.PayloadFormatUTF8
)

// IsTopicFilterMatch reports whether the topic matches the topic filter,
// including shared subscription filters.
func IsTopicFilterMatch(filter, topic string) bool {
	return mqtt.IsTopicFilterMatch(filter, topic)
}

// ShareFilter builds the shared subscription filter for the share name, or
// returns the filter unchanged if the share name is empty.
func ShareFilter(shareName, filter string) string {
	return mqtt.ShareFilter(shareName, filter)
}
