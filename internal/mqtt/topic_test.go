// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqtt_test

import (
	"testing"

	"github.com/Azure-Samples/MqttApplicationSamples/internal/mqtt"
	"github.com/stretchr/testify/require"
)

func TestIsTopicFilterMatch(t *testing.T) {
	for _, c := range []struct {
		filter string
		topic  string
		match  bool
	}{
		{"vehicles/+/position", "vehicles/vehicle01/position", true},
		{"vehicles/+/position", "vehicles/vehicle01/alert", false},
		{"vehicles/+/position", "vehicles/a/b/position", false},
		{"vehicles/#", "vehicles", true},
		{"vehicles/#", "vehicles/weather/alert", true},
		{"vehicles/weather/alert", "vehicles/weather/alert", true},
		{"vehicles/weather/alert", "vehicles/traffic/alert", false},
		{"vehicles/#/alert", "vehicles/weather/alert", false},
		{"$share/fleet/vehicles/+/position", "vehicles/v1/position", true},
		{"$share/fleet", "vehicles/v1/position", false},
		{"#", "$SYS/broker/uptime", false},
		{"+/broker/uptime", "$SYS/broker/uptime", false},
		{"$SYS/#", "$SYS/broker/uptime", true},
	} {
		require.Equal(t, c.match, mqtt.IsTopicFilterMatch(c.filter, c.topic),
			"filter %q topic %q", c.filter, c.topic)
	}
}

func TestShareFilter(t *testing.T) {
	require.Equal(t, "vehicles/+/position",
		mqtt.ShareFilter("", "vehicles/+/position"))
	require.Equal(t, "$share/fleet/vehicles/+/position",
		mqtt.ShareFilter("fleet", "vehicles/+/position"))
}
