// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package internal_test

import (
	"regexp"
	"testing"

	"github.com/Azure-Samples/MqttApplicationSamples/mqtt/internal"
	"github.com/stretchr/testify/require"
)

func TestRandomClientID(t *testing.T) {
	valid := regexp.MustCompile(`^[0-9a-zA-Z]{1,23}$`)
	a, b := internal.RandomClientID(), internal.RandomClientID()
	require.Regexp(t, valid, a)
	require.Regexp(t, valid, b)
	require.NotEqual(t, a, b)
}
