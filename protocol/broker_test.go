// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package protocol_test

import (
	"context"
	"net"
	"strconv"
	"testing"

	"github.com/Azure-Samples/MqttApplicationSamples/mqtt"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol"
	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/stretchr/testify/require"
)

var _ protocol.MqttClient = (*mqtt.SessionClient)(nil)

// Spin up an in-process MQTT broker for testing on a random local port.
func setupBroker(t *testing.T) (*mochi.Server, string) {
	broker := mochi.New(nil)
	require.NoError(t, broker.AddHook(&auth.AllowHook{}, nil))

	// Reserve a free port for the broker.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	require.NoError(t, broker.AddListener(listeners.NewTCP(listeners.Config{
		ID:      "test",
		Type:    "tcp",
		Address: addr,
	})))
	require.NoError(t, broker.Serve())

	t.Cleanup(func() { _ = broker.Close() })
	return broker, addr
}

// Connect a session client to the test broker.
func newClient(
	ctx context.Context,
	t *testing.T,
	id string,
	addr string,
) *mqtt.SessionClient {
	host, p, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.ParseUint(p, 10, 16)
	require.NoError(t, err)

	client := mqtt.NewSessionClient(
		mqtt.TCPConnection(host, uint16(port)),
		mqtt.WithClientID(id),
	)
	require.NoError(t, client.Connect(ctx))
	t.Cleanup(func() { _ = client.Disconnect() })
	return client
}
