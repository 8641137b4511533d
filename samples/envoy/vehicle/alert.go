// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package vehicle

import (
	"context"
	"time"

	"github.com/Azure-Samples/MqttApplicationSamples/protocol"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol/iso"
)

// AlertType is serialized as its ordinal.
type AlertType int

const (
	Weather AlertType = iota
	Traffic
	Accident
)

type (
	Alert struct {
		Type AlertType     `json:"type"`
		Text string        `json:"alert,omitempty"`
		Time *iso.DateTime `json:"time,omitempty"`
	}

	AlertProducer = protocol.TelemetryProducer[Alert]
	AlertConsumer = protocol.TelemetryConsumer[Alert]
)

const (
	AlertTopic = "vehicles/weather/alert"

	// Alerts are dropped by the broker if not delivered within this time.
	AlertExpiry = 300 * time.Second
)

var AlertEncoding = protocol.JSON[Alert]{}

func (t AlertType) String() string {
	switch t {
	case Weather:
		return "Weather"
	case Traffic:
		return "Traffic"
	case Accident:
		return "Accident"
	default:
		return "Unknown"
	}
}

// NewAlert creates an alert stamped with the current time.
func NewAlert(typ AlertType, text string) Alert {
	now := iso.DateTime(time.Now().UTC())
	return Alert{Type: typ, Text: text, Time: &now}
}

func NewAlertProducer(
	client protocol.MqttClient,
	opt ...protocol.TelemetryProducerOption,
) (*AlertProducer, error) {
	return protocol.NewTelemetryProducer(client, AlertEncoding, AlertTopic, opt...)
}

// SendAlert publishes the alert at QoS 1, unretained, with the alert expiry.
func SendAlert(ctx context.Context, p *AlertProducer, alert Alert) error {
	return p.Send(ctx, alert,
		protocol.WithQoS(1),
		protocol.WithRetain(false),
		protocol.WithMessageExpiry(AlertExpiry),
	)
}

func NewAlertConsumer(
	client protocol.MqttClient,
	handler protocol.TelemetryHandler[Alert],
	opt ...protocol.TelemetryConsumerOption,
) (*AlertConsumer, error) {
	return protocol.NewTelemetryConsumer(
		client,
		AlertEncoding,
		AlertTopic,
		handler,
		opt...,
	)
}
