// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// A vehicle listening for alerts from the control tower.
package main

import (
	"context"
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
	consumer := must(vehicle.NewAlertConsumer(
		mqttClient,
		func(
			_ context.Context,
			msg *protocol.TelemetryMessage[vehicle.Alert],
		) error {
			attrs := []any{
				slog.String("type", msg.Payload.Type.String()),
				slog.String("alert", msg.Payload.Text),
			}
			if msg.Payload.Time != nil {
				attrs = append(attrs, slog.String("time", msg.Payload.Time.String()))
			}
			slog.Info("received alert", attrs...)
			return nil
		},
		protocol.WithLogger(slog.Default()),
	))
	defer consumer.Close()

	check(mqttClient.Connect(ctx))
	defer func() { _ = mqttClient.Disconnect() }()
	check(consumer.Start(ctx))

	<-ctx.Done()
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
