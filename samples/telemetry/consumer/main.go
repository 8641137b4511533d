// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Azure-Samples/MqttApplicationSamples/mqtt"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol"
	"github.com/Azure-Samples/MqttApplicationSamples/samples/envoy/vehicle"
	"github.com/lmittmann/tint"
)

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	slog.SetDefault(slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: slog.LevelDebug,
	})))

	mqttClient := must(mqtt.NewSessionClientFromEnv(
		mqtt.WithLogger(slog.Default()),
	))
	consumer := must(vehicle.NewPositionConsumer(
		mqttClient,
		handlePosition,
		protocol.WithManualAck(true),
		protocol.WithLogger(slog.Default()),
	))
	defer consumer.Close()

	check(mqttClient.Connect(ctx))
	defer func() { _ = mqttClient.Disconnect() }()
	check(consumer.Start(ctx))

	<-ctx.Done()
}

// Accept well-formed points; anything else is left unacknowledged.
func handlePosition(
	_ context.Context,
	msg *protocol.TelemetryMessage[vehicle.Point],
) error {
	if msg.Payload.Type != "Point" || len(msg.Payload.Coordinates) != 2 {
		slog.Warn("rejecting position", "vehicle", msg.RoutingKey)
		return errors.New("not a GeoJSON point")
	}
	slog.Info("received position",
		slog.String("vehicle", msg.RoutingKey),
		slog.String("position", msg.Payload.String()),
	)
	return nil
}

func check(e error) {
	if e != nil {
		panic(e)
	}
}

func must[T any](t T, e error) T {
	check(e)
	return t
}
