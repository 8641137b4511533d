// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package vehicle_test

import (
	"testing"
	"time"

	"github.com/Azure-Samples/MqttApplicationSamples/protocol/iso"
	"github.com/Azure-Samples/MqttApplicationSamples/samples/envoy/vehicle"
	"github.com/stretchr/testify/require"
)

func TestUnlockProtobuf(t *testing.T) {
	codec, err := vehicle.CodecFor("protobuf")
	require.NoError(t, err)
	require.Equal(t, "application/protobuf", codec.Request.ContentType())

	when := time.Date(2024, 5, 1, 12, 30, 0, 500, time.UTC)
	data, err := codec.Request.Serialize(vehicle.UnlockRequest{
		When:          iso.DateTime(when),
		RequestedFrom: "ctrl1",
	})
	require.NoError(t, err)

	req, err := codec.Request.Deserialize(data)
	require.NoError(t, err)
	require.True(t, when.Equal(req.When.Time()))
	require.Equal(t, "ctrl1", req.RequestedFrom)

	data, err = codec.Response.Serialize(vehicle.UnlockResponse{
		ErrorDetail: "door jammed",
	})
	require.NoError(t, err)

	res, err := codec.Response.Deserialize(data)
	require.NoError(t, err)
	require.False(t, res.Succeed)
	require.Equal(t, "door jammed", res.ErrorDetail)
}

func TestUnlockJSONWireFormat(t *testing.T) {
	codec, err := vehicle.CodecFor("")
	require.NoError(t, err)

	data, err := codec.Request.Serialize(vehicle.UnlockRequest{
		When:          iso.DateTime(time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)),
		RequestedFrom: "ctrl1",
	})
	require.NoError(t, err)
	require.JSONEq(t,
		`{"when":"2024-05-01T12:30:00Z","requestedFrom":"ctrl1"}`,
		string(data),
	)

	// Timestamps from other platforms may omit the offset or seconds.
	req, err := codec.Request.Deserialize(
		[]byte(`{"when":"2024-05-01T12:30","requestedFrom":"ctrl1"}`),
	)
	require.NoError(t, err)
	require.Equal(t, 30, req.When.Time().Minute())

	_, err = vehicle.CodecFor("xml")
	require.Error(t, err)
}

func TestPositionIsGeoJSON(t *testing.T) {
	data, err := vehicle.PositionEncoding.Serialize(
		vehicle.NewPoint(51.899523, -2.124156),
	)
	require.NoError(t, err)
	require.JSONEq(t,
		`{"type":"Point","coordinates":[-2.124156,51.899523]}`,
		string(data),
	)
}

func TestAlertWireFormat(t *testing.T) {
	alert, err := vehicle.AlertEncoding.Deserialize([]byte(
		`{"type":0,"alert":"Heavy Rain","time":"2024-05-01T12:30:00.1234567Z"}`,
	))
	require.NoError(t, err)
	require.Equal(t, vehicle.Weather, alert.Type)
	require.Equal(t, "Weather", alert.Type.String())
	require.Equal(t, "Heavy Rain", alert.Text)
	require.NotNil(t, alert.Time)
	require.Equal(t, 2024, alert.Time.Time().Year())
}
