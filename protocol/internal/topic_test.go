// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package internal_test

import (
	"testing"

	"github.com/Azure-Samples/MqttApplicationSamples/protocol/errors"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol/internal"
	"github.com/stretchr/testify/require"
)

func TestResolveTopic(t *testing.T) {
	require.Equal(t,
		"vehicles/vehicle03/command/unlock/request",
		internal.ResolveTopic(
			"vehicles/{clientId}/command/{commandName}/request",
			"vehicle03",
			"unlock",
		),
	)

	// Every occurrence is replaced.
	require.Equal(t,
		"a/x/b/x/unlock",
		internal.ResolveTopic("a/{clientId}/b/{clientId}/{commandName}", "x", "unlock"),
	)

	// Unknown tokens are left alone.
	require.Equal(t,
		"a/{other}/x",
		internal.ResolveTopic("a/{other}/{clientId}", "x", "unlock"),
	)
}

func TestResolveClientID(t *testing.T) {
	require.Equal(t,
		"vehicles/vehicle01/position/{commandName}",
		internal.ResolveClientID("vehicles/{clientId}/position/{commandName}", "vehicle01"),
	)
}

func TestResolveTopicDoesNotEscape(t *testing.T) {
	require.Equal(t,
		"vehicles/fleet/7/command/unlock/request",
		internal.ResolveTopic(
			"vehicles/{clientId}/command/{commandName}/request",
			"fleet/7",
			"unlock",
		),
	)
}

func TestTopicSegment(t *testing.T) {
	seg, ok := internal.TopicSegment("vehicles/vehicle01/position", 1)
	require.True(t, ok)
	require.Equal(t, "vehicle01", seg)

	seg, ok = internal.TopicSegment("vehicles/vehicle01/position", 0)
	require.True(t, ok)
	require.Equal(t, "vehicles", seg)

	seg, ok = internal.TopicSegment("vehicles/vehicle01/position", 2)
	require.True(t, ok)
	require.Equal(t, "position", seg)

	_, ok = internal.TopicSegment("vehicles", 1)
	require.False(t, ok)

	_, ok = internal.TopicSegment("vehicles", -1)
	require.False(t, ok)
}

func TestValidate(t *testing.T) {
	require.NoError(t, internal.ValidatePattern("topic", "a/b"))
	require.True(t, errors.IsKind(
		internal.ValidatePattern("topic", ""),
		errors.ConfigurationInvalid,
	))

	require.NoError(t, internal.ValidateShareName(""))
	require.NoError(t, internal.ValidateShareName("group"))
	require.Error(t, internal.ValidateShareName("a/b"))
	require.Error(t, internal.ValidateShareName("+"))
}
