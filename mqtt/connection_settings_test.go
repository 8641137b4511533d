// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqtt

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseConnectionString(t *testing.T) {
	cs, err := ParseConnectionString(
		"HostName=localhost;TcpPort=1883;UseTls=false;" +
			"ClientId=vehicle03;KeepAlive=PT60S;sessionexpiry=3600;" +
			"Username=alice;Password=secret",
	)
	require.NoError(t, err)
	require.Equal(t, &ConnectionSettings{
		HostName:      "localhost",
		TCPPort:       1883,
		UseTLS:        false,
		ClientID:      "vehicle03",
		KeepAlive:     time.Minute,
		SessionExpiry: time.Hour,
		CleanSession:  true,
		Username:      "alice",
		Password:      "secret",
	}, cs)
}

func TestParseConnectionStringKeepAliveInSeconds(t *testing.T) {
	for _, connStr := range []string{
		"HostName=localhost;KeepAliveInSeconds=10",
		"HostName=localhost;keepaliveinseconds=PT10S",
		"HostName=localhost;KeepAlive=10",
	} {
		cs, err := ParseConnectionString(connStr)
		require.NoError(t, err, connStr)
		require.Equal(t, 10*time.Second, cs.KeepAlive, connStr)
	}

	_, err := ParseConnectionString("HostName=localhost;KeepAliveInSeconds=soon")
	var e *InvalidArgumentError
	require.ErrorAs(t, err, &e)
}

func TestParseConnectionStringDefaults(t *testing.T) {
	cs, err := ParseConnectionString("HostName=broker.example.com;")
	require.NoError(t, err)
	require.Equal(t, uint16(8883), cs.TCPPort)
	require.True(t, cs.UseTLS)
	require.True(t, cs.CleanSession)
	require.Equal(t, 30*time.Second, cs.KeepAlive)
}

func TestParseConnectionStringErrors(t *testing.T) {
	for _, tc := range [][2]string{
		{"unknown key", "HostName=localhost;Color=blue"},
		{"malformed entry", "HostName=localhost;UseTls"},
		{"bad port", "HostName=localhost;TcpPort=70000"},
		{"bad bool", "HostName=localhost;UseTls=maybe"},
		{"bad duration", "HostName=localhost;KeepAlive=soon"},
		{"no host", "TcpPort=1883"},
		{"cert without key", "HostName=localhost;CertFile=cert.pem"},
		{"tls files without tls", "HostName=localhost;UseTls=false;CaFile=ca.pem"},
		{"two passwords", "HostName=localhost;Password=a;PasswordFile=b"},
		{"auth without file", "HostName=localhost;AuthMethod=K8S-SAT"},
	} {
		name, connStr := tc[0], tc[1]
		t.Run(name, func(t *testing.T) {
			cs, err := ParseConnectionString(connStr)
			require.Nil(t, cs)
			var e *InvalidArgumentError
			require.ErrorAs(t, err, &e)
		})
	}
}

func TestConnectionSettingsString(t *testing.T) {
	cs, err := ParseConnectionString(
		"HostName=localhost;TcpPort=1883;UseTls=false;Password=secret;" +
			"KeepAlive=90",
	)
	require.NoError(t, err)

	s := cs.String()
	require.Contains(t, s, "HostName=localhost;")
	require.Contains(t, s, "TcpPort=1883;")
	require.Contains(t, s, "Password=***;")
	require.Contains(t, s, "KeepAliveInSeconds=90;")
	require.NotContains(t, s, "secret")
	require.NotContains(t, s, "CertFile")

	// The rendered form parses back, apart from the redacted secret.
	again, err := ParseConnectionString(
		strings.Replace(s, "Password=***;", "", 1),
	)
	require.NoError(t, err)
	require.Equal(t, 90*time.Second, again.KeepAlive)
	require.Equal(t, uint16(1883), again.TCPPort)
	require.False(t, again.UseTLS)
}

func TestSettingsFromEnv(t *testing.T) {
	t.Setenv("MQTT_HOST_NAME", "localhost")
	t.Setenv("MQTT_TCP_PORT", "1883")
	t.Setenv("MQTT_USE_TLS", "false")
	t.Setenv("MQTT_CLIENT_ID", "vehicle01")

	cs, err := SettingsFromEnv()
	require.NoError(t, err)
	require.Equal(t, "localhost", cs.HostName)
	require.Equal(t, uint16(1883), cs.TCPPort)
	require.False(t, cs.UseTLS)
	require.Equal(t, "vehicle01", cs.ClientID)
}

func TestSettingsFromEnvKeepAlive(t *testing.T) {
	t.Setenv("MQTT_HOST_NAME", "localhost")
	t.Setenv("MQTT_KEEP_ALIVE_IN_SECONDS", "10")

	cs, err := SettingsFromEnv()
	require.NoError(t, err)
	require.Equal(t, 10*time.Second, cs.KeepAlive)

	// The canonical name wins over the short one.
	t.Setenv("MQTT_KEEP_ALIVE", "PT20S")
	cs, err = SettingsFromEnv()
	require.NoError(t, err)
	require.Equal(t, 10*time.Second, cs.KeepAlive)

	require.NoError(t, os.Unsetenv("MQTT_KEEP_ALIVE_IN_SECONDS"))
	cs, err = SettingsFromEnv()
	require.NoError(t, err)
	require.Equal(t, 20*time.Second, cs.KeepAlive)
}

func TestSettingsFromEnvInvalid(t *testing.T) {
	t.Setenv("MQTT_HOST_NAME", "localhost")
	t.Setenv("MQTT_TCP_PORT", "port")

	_, err := SettingsFromEnv()
	var e *InvalidArgumentError
	require.ErrorAs(t, err, &e)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte(
		"MQTT_HOST_NAME=from-file\nMQTT_CLIENT_ID=from-file\n",
	), 0o600))

	// Variables already set take precedence over the file.
	t.Setenv("MQTT_CLIENT_ID", "from-env")
	t.Setenv("MQTT_HOST_NAME", "")
	require.NoError(t, os.Unsetenv("MQTT_HOST_NAME"))

	require.NoError(t, LoadEnv(file))
	t.Cleanup(func() { _ = os.Unsetenv("MQTT_HOST_NAME") })

	require.Equal(t, "from-file", os.Getenv("MQTT_HOST_NAME"))
	require.Equal(t, "from-env", os.Getenv("MQTT_CLIENT_ID"))

	require.NoError(t, LoadEnv(filepath.Join(dir, "missing.env")))
}

func TestSessionClientOptionsFromSettings(t *testing.T) {
	dir := t.TempDir()
	passwordFile := filepath.Join(dir, "password")
	require.NoError(t, os.WriteFile(passwordFile, []byte("hunter2\n"), 0o600))

	cs, err := ParseConnectionString(
		"HostName=localhost;ClientId=vehicle02;Username=bob;" +
			"PasswordFile=" + passwordFile + ";KeepAlive=PT10S;CleanSession=false",
	)
	require.NoError(t, err)

	opts, err := cs.SessionClientOptions()
	require.NoError(t, err)

	var o SessionClientOptions
	o.Apply(opts)
	require.Equal(t, "vehicle02", o.ClientID)
	require.Equal(t, 10*time.Second, o.KeepAlive)
	require.False(t, o.CleanStart)

	ctx := context.Background()
	username, ok, err := o.Username(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "bob", username)

	password, ok, err := o.Password(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("hunter2"), password)
}

func TestClientIDFromCertificate(t *testing.T) {
	dir := t.TempDir()
	certFile, _ := writeCert(t, dir, "vehicle01")

	cs := DefaultConnectionSettings()
	cs.HostName = "localhost"
	cs.CertFile = certFile
	cs.KeyFile = filepath.Join(dir, "key.pem")
	require.NoError(t, cs.Validate())

	opts, err := cs.SessionClientOptions()
	require.NoError(t, err)

	var o SessionClientOptions
	o.Apply(opts)
	require.Equal(t, "vehicle01", o.ClientID)
}
