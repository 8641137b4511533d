// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Connects with OAUTH2-JWT enhanced authentication, reading the token from
// the file in MQTT_JWT_FILE and reauthenticating ahead of its expiry.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Azure-Samples/MqttApplicationSamples/mqtt"
	"github.com/Azure-Samples/MqttApplicationSamples/mqtt/auth"
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
	tokenFile := os.Getenv("MQTT_JWT_FILE")

	jwt := &auth.JWT{
		Source: func(context.Context) (string, error) {
			slog.Info("reading token", "file", tokenFile)
			token, err := os.ReadFile(tokenFile)
			return strings.TrimSpace(string(token)), err
		},
		Interval: time.Hour,
	}
	defer jwt.Close()

	client := must(mqtt.NewSessionClientFromEnv(
		mqtt.WithAuth(jwt),
		mqtt.WithLogger(slog.Default()),
	))
	client.RegisterMessageHandler(func(_ context.Context, msg *mqtt.Message) bool {
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
		_, err := client.Publish(ctx, "sample/topic1",
			[]byte(fmt.Sprintf("hello world!%d", i)),
			mqtt.WithQoS(1),
		)
		if err != nil {
			slog.Error("publish failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(10 * time.Second):
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
