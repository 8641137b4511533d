// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

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
	producer := must(vehicle.NewPositionProducer(
		mqttClient,
		protocol.WithLogger(slog.Default()),
	))

	check(mqttClient.Connect(ctx))
	defer func() { _ = mqttClient.Disconnect() }()

	position := vehicle.NewPoint(51.899523, -2.124156)
	for {
		if err := producer.Send(ctx, position); err != nil {
			slog.Error("failed to send position", "error", err)
		} else {
			slog.Info("sent position",
				slog.String("topic", producer.Topic()),
				slog.String("position", position.String()),
			)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
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
