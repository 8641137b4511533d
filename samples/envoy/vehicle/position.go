// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package vehicle

import (
	"fmt"

	"github.com/Azure-Samples/MqttApplicationSamples/protocol"
)

type (
	// Point is a GeoJSON point. Coordinates are longitude then latitude.
	Point struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"`
	}

	PositionProducer = protocol.TelemetryProducer[Point]
	PositionConsumer = protocol.TelemetryConsumer[Point]
)

const (
	PositionTopic  = "vehicles/{clientId}/position"
	PositionFilter = "vehicles/+/position"
)

var PositionEncoding = protocol.JSON[Point]{}

// NewPoint creates a GeoJSON point from a latitude and longitude.
func NewPoint(latitude, longitude float64) Point {
	return Point{Type: "Point", Coordinates: []float64{longitude, latitude}}
}

func (p Point) String() string {
	if len(p.Coordinates) < 2 {
		return p.Type
	}
	return fmt.Sprintf("%s(%g, %g)", p.Type, p.Coordinates[1], p.Coordinates[0])
}

// NewPositionProducer publishes the client's own position.
func NewPositionProducer(
	client protocol.MqttClient,
	opt ...protocol.TelemetryProducerOption,
) (*PositionProducer, error) {
	return protocol.NewTelemetryProducer(
		client,
		PositionEncoding,
		PositionTopic,
		opt...,
	)
}

// NewPositionConsumer receives the positions of all vehicles. The routing key
// of each message is the vehicle's client ID.
func NewPositionConsumer(
	client protocol.MqttClient,
	handler protocol.TelemetryHandler[Point],
	opt ...protocol.TelemetryConsumerOption,
) (*PositionConsumer, error) {
	return protocol.NewTelemetryConsumer(
		client,
		PositionEncoding,
		PositionFilter,
		handler,
		opt...,
	)
}
