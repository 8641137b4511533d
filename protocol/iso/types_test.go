// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package iso_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Azure-Samples/MqttApplicationSamples/protocol/iso"
	"github.com/stretchr/testify/require"
)

func TestDateTimeWithOffset(t *testing.T) {
	var dt iso.DateTime
	require.NoError(t, json.Unmarshal([]byte(`"2023-05-01T10:20:30+02:00"`), &dt))
	require.Equal(t,
		time.Date(2023, 5, 1, 8, 20, 30, 0, time.UTC),
		dt.Time().UTC(),
	)

	out, err := json.Marshal(dt)
	require.NoError(t, err)
	require.JSONEq(t, `"2023-05-01T10:20:30+02:00"`, string(out))
}

func TestDuration(t *testing.T) {
	var d iso.Duration
	require.NoError(t, json.Unmarshal([]byte(`"PT5M"`), &d))
	require.Equal(t, 5*time.Minute, time.Duration(d))
	require.Equal(t, "PT5M", d.String())

	require.Error(t, json.Unmarshal([]byte(`"five minutes"`), &d))
}
