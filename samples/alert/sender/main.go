// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// The control tower sends an alert for each line read from stdin.
package main

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
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
	producer := must(vehicle.NewAlertProducer(
		mqttClient,
		protocol.WithLogger(slog.Default()),
	))

	check(mqttClient.Connect(ctx))
	defer func() { _ = mqttClient.Disconnect() }()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	slog.Info("enter alert text (empty for \"Heavy Rain\")")
	for {
		var text string
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text = strings.TrimSpace(line)
		}
		if text == "" {
			text = "Heavy Rain"
		}

		alert := vehicle.NewAlert(vehicle.Weather, text)
		if err := vehicle.SendAlert(ctx, producer, alert); err != nil {
			slog.Error("failed to send alert", "error", err)
			continue
		}
		slog.Info("sent alert",
			slog.String("type", alert.Type.String()),
			slog.String("alert", alert.Text),
		)
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
