// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Publishes a message every few seconds and prints what it receives back.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Azure-Samples/MqttApplicationSamples/mqtt"
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

	check(mqtt.LoadEnv())
	settings := must(mqtt.SettingsFromEnv())
	slog.Info("connecting", "settings", settings.String())

	client := must(mqtt.NewSessionClientFromSettings(
		settings,
		mqtt.WithLogger(slog.Default()),
	))
	client.RegisterMessageHandler(func(_ context.Context, msg *mqtt.Message) bool {
		if !mqtt.IsTopicFilterMatch("sample/+", msg.Topic) {
			return false
		}
		slog.Info("received message",
			slog.String("topic", msg.Topic),
			slog.String("payload", string(msg.Payload)),
		)
		return false
	})

	check(client.Connect(ctx))
	defer func() { _ = client.Disconnect() }()

	ack := must(client.Subscribe(ctx, "sample/+", mqtt.WithQoS(1)))
	slog.Info("subscribed", "reason_code", ack.ReasonCode)

	for i := 0; ; i++ {
		payload := fmt.Sprintf("hello world! %d", i)
		ack, err := client.Publish(ctx, "sample/topic1", []byte(payload),
			mqtt.WithQoS(1),
		)
		if err != nil {
			slog.Error("publish failed", "error", err)
		} else {
			slog.Info("published", "reason_code", ack.ReasonCode)
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
