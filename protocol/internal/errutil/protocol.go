// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package errutil

import (
	"strconv"

	"github.com/Azure-Samples/MqttApplicationSamples/protocol/errors"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol/internal/constants"
)

// ToUserProp renders the outcome of a command execution as the user
// properties of its response. Any error is reported as a 500; the error text
// itself travels as the response payload.
func ToUserProp(err error) map[string]string {
	if err == nil {
		return map[string]string{constants.Status: constants.StatusOK}
	}
	props := map[string]string{constants.Status: constants.StatusError}
	if e, ok := err.(*errors.Error); ok {
		props[constants.StatusMessage] = e.Kind.String()
	}
	return props
}

// FromUserProp interprets the status of a command response. A missing status
// is treated as success, since not every responder sets it.
func FromUserProp(user map[string]string, payload []byte) error {
	status, ok := user[constants.Status]
	if !ok || status == "" {
		return nil
	}

	code, err := strconv.ParseInt(status, 10, 32)
	if err != nil {
		return &errors.Error{
			Message:     "status is not a valid integer",
			Kind:        errors.HeaderInvalid,
			HeaderName:  constants.Status,
			HeaderValue: status,
		}
	}

	// No error, we're done.
	if code < 400 {
		return nil
	}

	e := &errors.Error{
		Message:        string(payload),
		IsRemote:       true,
		HTTPStatusCode: int(code),
	}
	if e.Message == "" {
		e.Message = user[constants.StatusMessage]
	}

	switch code {
	case 500:
		e.Kind = errors.ExecutionException
		e.InApplication = true
	default:
		// Treat unknown statuses as unknown errors, but otherwise allow them.
		e.Kind = errors.UnknownError
	}
	return e
}
