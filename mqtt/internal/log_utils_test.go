// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package internal_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/Azure-Samples/MqttApplicationSamples/internal/log"
	"github.com/Azure-Samples/MqttApplicationSamples/mqtt/internal"
	"github.com/eclipse/paho.golang/paho"
	"github.com/stretchr/testify/require"
)

func packetLogger(buf *bytes.Buffer) internal.Logger {
	return internal.Logger{Logger: log.Wrap(slog.New(slog.NewTextHandler(
		buf,
		&slog.HandlerOptions{Level: slog.LevelDebug},
	)))}
}

func TestPacketRedactsCredentials(t *testing.T) {
	var buf bytes.Buffer
	packetLogger(&buf).Packet(context.Background(), "connect", &paho.Connect{
		ClientID:     "vehicle01",
		Username:     "alice",
		UsernameFlag: true,
		Password:     []byte("hunter2"),
		PasswordFlag: true,
		KeepAlive:    30,
		Properties: &paho.ConnectProperties{
			AuthMethod: "K8S-SAT",
			AuthData:   []byte("token"),
		},
	})

	out := buf.String()
	require.Contains(t, out, "msg=connect")
	require.Contains(t, out, "vehicle01")
	require.Contains(t, out, "password=***")
	require.Contains(t, out, "auth_data=***")
	require.Contains(t, out, "auth_method=K8S-SAT")
	require.NotContains(t, out, "hunter2")
	require.NotContains(t, out, "token")
}

func TestPacketSummarizesPublish(t *testing.T) {
	var buf bytes.Buffer
	packetLogger(&buf).Packet(context.Background(), "publish", &paho.Publish{
		QoS:     1,
		Topic:   "vehicles/vehicle01/position",
		Payload: []byte{0x00, 0xFF, 0x10},
		Properties: &paho.PublishProperties{
			CorrelationData: []byte{0xAB, 0xCD},
		},
	})

	out := buf.String()
	require.Contains(t, out, "qos=1")
	require.Contains(t, out, "topic=vehicles/vehicle01/position")
	require.Contains(t, out, "payload_size=3")
	require.Contains(t, out, "correlation_data=abcd")
}

func TestPacketSkippedAboveDebug(t *testing.T) {
	var buf bytes.Buffer
	l := internal.Logger{Logger: log.Wrap(slog.New(slog.NewTextHandler(&buf, nil)))}
	l.Packet(context.Background(), "publish", &paho.Publish{Topic: "alerts"})
	require.Empty(t, buf.String())
}
