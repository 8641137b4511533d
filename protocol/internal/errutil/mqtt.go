// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package errutil

import (
	"context"
	"fmt"

	"github.com/Azure-Samples/MqttApplicationSamples/internal/mqtt"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol/errors"
)

// Mqtt translates an MQTT client ack/err return to a protocol error. An actual
// error indicates a failure in the client library, whereas an ack with a
// failure reason code indicates the server rejected the request.
func Mqtt(ctx context.Context, msg string, ack *mqtt.Ack, err error) error {
	if err == nil {
		if ack != nil && ack.ReasonCode >= 0x80 {
			return &errors.Error{
				Message: fmt.Sprintf(
					"%s error: %s. reason code: 0x%x",
					msg,
					ack.ReasonString,
					ack.ReasonCode,
				),
				Kind: errors.MqttError,
			}
		}
		return nil
	}

	// An error from the incoming context overrides any returned error.
	if ctxErr := errors.Context(ctx, msg); ctxErr != nil {
		return ctxErr
	}
	return &errors.Error{
		Message:     fmt.Sprintf("%s error: %s", msg, err.Error()),
		Kind:        errors.MqttError,
		NestedError: err,
	}
}
