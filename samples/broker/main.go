// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// A local development broker accepting any client on TCP and WebSocket.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmittmann/tint"
	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
)

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	logger := slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	server := mochi.New(&mochi.Options{Logger: logger})
	check(server.AddHook(new(auth.AllowHook), nil))

	check(server.AddListener(listeners.NewTCP(listeners.Config{
		ID:      "tcp",
		Address: env("BROKER_TCP_ADDR", ":1883"),
	})))
	check(server.AddListener(listeners.NewWebsocket(listeners.Config{
		ID:      "ws",
		Address: env("BROKER_WS_ADDR", ":8080"),
	})))

	check(server.Serve())
	<-ctx.Done()
	check(server.Close())
}

func env(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func check(e error) {
	if e != nil {
		panic(e)
	}
}
