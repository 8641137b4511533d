// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Azure-Samples/MqttApplicationSamples/mqtt"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol"
	"github.com/Azure-Samples/MqttApplicationSamples/samples/envoy/vehicle"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
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
	codec := must(vehicle.CodecFor(os.Getenv("UNLOCK_ENCODING")))

	reg := prometheus.NewRegistry()
	server := must(vehicle.NewUnlockServer(
		mqttClient,
		codec,
		unlock,
		protocol.WithLogger(slog.Default()),
		protocol.WithMetrics(protocol.NewMetrics(reg)),
	))
	defer server.Close()

	check(mqttClient.Connect(ctx))
	defer func() { _ = mqttClient.Disconnect() }()
	check(server.Start(ctx))
	slog.Info("serving unlock", "topic", server.Topic())

	if addr := os.Getenv("METRICS_ADDR"); addr != "" {
		go serveMetrics(addr, reg)
	}

	select {
	case <-ctx.Done():
	case <-mqttClient.Done():
		slog.Error("MQTT client stopped", "error", mqttClient.Err())
	}
}

func unlock(
	_ context.Context,
	req vehicle.UnlockRequest,
) (vehicle.UnlockResponse, error) {
	slog.Info("--> unlock",
		slog.String("requested_from", req.RequestedFrom),
		slog.String("when", req.When.String()),
	)
	if req.RequestedFrom == "" {
		return vehicle.UnlockResponse{
			ErrorDetail: "requestedFrom is required",
		}, nil
	}
	return vehicle.UnlockResponse{Succeed: true}, nil
}

func serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	slog.Info("serving metrics", "addr", addr)
	err := http.ListenAndServe(addr, mux) // #nosec G114
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("metrics server failed", "error", err)
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
