// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Azure-Samples/MqttApplicationSamples/mqtt"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol/iso"
	"github.com/Azure-Samples/MqttApplicationSamples/samples/envoy/vehicle"
	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"
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

	client := must(vehicle.NewUnlockClient(
		mqttClient,
		codec,
		protocol.WithLogger(slog.Default()),
	))
	defer client.Close()

	check(mqttClient.Connect(ctx))
	defer func() { _ = mqttClient.Disconnect() }()

	vehicles := []string{"vehicle01", "vehicle02"}
	if ids := os.Getenv("VEHICLE_IDS"); ids != "" {
		vehicles = strings.Split(ids, ",")
	}

	for {
		unlockAll(ctx, client, mqttClient.ID(), vehicles)

		select {
		case <-ctx.Done():
			return
		case <-time.After(10 * time.Second):
		}
	}
}

// Unlock all vehicles concurrently over the shared client.
func unlockAll(
	ctx context.Context,
	client *vehicle.UnlockClient,
	from string,
	vehicles []string,
) {
	var g errgroup.Group
	for _, id := range vehicles {
		g.Go(func() error {
			res, err := client.Invoke(ctx, id, vehicle.UnlockRequest{
				When:          iso.DateTime(time.Now().UTC()),
				RequestedFrom: from,
			}, protocol.WithTimeout(5*time.Second))
			if err != nil {
				slog.Error("unlock failed", "vehicle", id, "error", err)
				return err
			}
			slog.Info("<-- unlock",
				slog.String("vehicle", id),
				slog.Bool("succeed", res.Payload.Succeed),
				slog.String("error_detail", res.Payload.ErrorDetail),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Warn("not every vehicle was unlocked")
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
