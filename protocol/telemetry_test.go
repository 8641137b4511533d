// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package protocol

import (
	"context"
	stderr "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Azure-Samples/MqttApplicationSamples/internal/mqtt"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol/errors"
	"github.com/stretchr/testify/require"
)

type point struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

func TestTelemetryPosition(t *testing.T) {
	ctx := context.Background()
	broker := newFakeBroker()
	vehicle := broker.client("vehicle01")
	mobile := broker.client("mobile-app")

	results := make(chan *TelemetryMessage[point], 1)
	tc, err := NewTelemetryConsumer(
		mobile,
		JSON[point]{},
		"vehicles/+/position",
		func(_ context.Context, msg *TelemetryMessage[point]) error {
			results <- msg
			return nil
		},
	)
	require.NoError(t, err)
	done, err := Start(ctx, tc)
	require.NoError(t, err)
	defer done()

	tp, err := NewTelemetryProducer(
		vehicle,
		JSON[point]{},
		"vehicles/{clientId}/position",
	)
	require.NoError(t, err)
	require.Equal(t, "vehicles/vehicle01/position", tp.Topic())

	pos := point{"Point", []float64{-122.13, 47.64}}
	err = tp.Send(ctx, pos,
		WithRetain(true),
		WithMessageExpiry(90*time.Second),
		WithMetadata{"fleet": "north"},
	)
	require.NoError(t, err)

	res := <-results
	require.Equal(t, "vehicle01", res.RoutingKey)
	require.Equal(t, pos, res.Payload)
	require.Equal(t, "vehicles/vehicle01/position", res.Topic)
	require.Equal(t, "north", res.UserProperties["fleet"])

	pub := vehicle.publishes()[0]
	require.Equal(t, byte(mqtt.QoS1), pub.QoS)
	require.True(t, pub.Retain)
	require.Equal(t, uint32(90), pub.MessageExpiry)
	require.Equal(t, "application/json", pub.ContentType)
	require.Equal(t, mqtt.PayloadFormatUTF8, pub.PayloadFormat)

	require.Eventually(t, func() bool {
		return mobile.received()[0].acked.Load() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestTelemetryProducerResolvesOnlyClientID(t *testing.T) {
	tp, err := NewTelemetryProducer(
		newFakeBroker().client("vehicle02"),
		JSON[point]{},
		"vehicles/{clientId}/{commandName}/position",
	)
	require.NoError(t, err)
	require.Equal(t, "vehicles/vehicle02/{commandName}/position", tp.Topic())
}

func TestTelemetryRoutingKeySegment(t *testing.T) {
	ctx := context.Background()
	broker := newFakeBroker()
	mobile := broker.client("mobile-app")

	keys := make(chan string, 1)
	tc, err := NewTelemetryConsumer(
		mobile,
		Raw{},
		"fleet/north/+/status",
		func(_ context.Context, msg *TelemetryMessage[[]byte]) error {
			keys <- msg.RoutingKey
			return nil
		},
		WithRoutingKeySegment(2),
		WithConcurrency(1),
	)
	require.NoError(t, err)
	require.NoError(t, tc.Start(ctx))
	defer tc.Close()

	tp, err := NewTelemetryProducer(
		broker.client("truck7"),
		Raw{},
		"fleet/north/{clientId}/status",
	)
	require.NoError(t, err)
	require.NoError(t, tp.Send(ctx, []byte("parked"), WithQoS(0)))

	require.Equal(t, "truck7", <-keys)
}

func TestTelemetryManualAck(t *testing.T) {
	ctx := context.Background()
	broker := newFakeBroker()
	consumer := broker.client("mobile-app")
	producer := broker.client("vehicle01")

	tc, err := NewTelemetryConsumer(
		consumer,
		JSON[string]{},
		"vehicles/+/position",
		func(_ context.Context, msg *TelemetryMessage[string]) error {
			if msg.Payload == "reject" {
				return stderr.New("rejected")
			}
			return nil
		},
		WithManualAck(true),
	)
	require.NoError(t, err)
	require.NoError(t, tc.Start(ctx))
	defer tc.Close()

	tp, err := NewTelemetryProducer(
		producer,
		JSON[string]{},
		"vehicles/{clientId}/position",
	)
	require.NoError(t, err)
	require.NoError(t, tp.Send(ctx, "reject"))
	require.NoError(t, tp.Send(ctx, "accept"))

	require.Eventually(t, func() bool {
		received := consumer.received()
		return len(received) == 2 && received[1].acked.Load() == 1
	}, time.Second, 10*time.Millisecond)

	// Give the rejected message time to be (incorrectly) acked.
	time.Sleep(20 * time.Millisecond)
	require.Zero(t, consumer.received()[0].acked.Load())
}

func TestTelemetryAutoAck(t *testing.T) {
	ctx := context.Background()
	broker := newFakeBroker()
	consumer := broker.client("mobile-app")
	producer := broker.client("vehicle01")

	var calls atomic.Int32
	tc, err := NewTelemetryConsumer(
		consumer,
		JSON[string]{},
		"vehicles/+/position",
		func(context.Context, *TelemetryMessage[string]) error {
			calls.Add(1)
			return stderr.New("ignored")
		},
	)
	require.NoError(t, err)
	require.NoError(t, tc.Start(ctx))
	defer tc.Close()

	// Handler errors and content type mismatches are still acked.
	tp, err := NewTelemetryProducer(
		producer,
		JSON[string]{},
		"vehicles/{clientId}/position",
	)
	require.NoError(t, err)
	require.NoError(t, tp.Send(ctx, "hello"))

	_, err = producer.Publish(ctx, "vehicles/vehicle01/position", []byte("x"),
		mqtt.WithContentType("text/plain"),
	)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		received := consumer.received()
		return len(received) == 2 &&
			received[0].acked.Load() == 1 &&
			received[1].acked.Load() == 1
	}, time.Second, 10*time.Millisecond)
	require.EqualValues(t, 1, calls.Load())
}

func TestTelemetryValidation(t *testing.T) {
	broker := newFakeBroker()
	client := broker.client("vehicle01")

	_, err := NewTelemetryConsumer(
		client,
		JSON[string]{},
		"vehicles/+/position",
		func(context.Context, *TelemetryMessage[string]) error { return nil },
		WithRoutingKeySegment(-1),
	)
	require.True(t, errors.IsKind(err, errors.ConfigurationInvalid))

	_, err = NewTelemetryProducer(client, JSON[string]{}, "")
	require.True(t, errors.IsKind(err, errors.ConfigurationInvalid))

	tp, err := NewTelemetryProducer(client, JSON[string]{}, "vehicles/x")
	require.NoError(t, err)
	err = tp.Send(context.Background(), "x", WithQoS(2))
	require.True(t, errors.IsKind(err, errors.ArgumentInvalid))
	require.Empty(t, client.publishes())
}
