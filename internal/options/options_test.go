// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package options_test

import (
	"slices"
	"testing"

	"github.com/Azure-Samples/MqttApplicationSamples/internal/options"
	"github.com/stretchr/testify/require"
)

type (
	option      interface{ option() }
	nameOption  string
	countOption int
)

func (nameOption) option()  {}
func (countOption) option() {}

func TestApplyFiltersByType(t *testing.T) {
	opts := []option{nameOption("a"), countOption(1), nil}
	rest := []option{nameOption("b")}

	names := slices.Collect(options.Apply[nameOption](opts, rest...))
	require.Equal(t, []nameOption{"a", "b"}, names)

	counts := slices.Collect(options.Apply[countOption](opts, rest...))
	require.Equal(t, []countOption{1}, counts)
}
