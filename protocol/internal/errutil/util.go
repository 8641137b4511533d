// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package errutil

import (
	"context"

	"github.com/Azure-Samples/MqttApplicationSamples/internal/log"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol/errors"
	"github.com/google/uuid"
)

// Return prepares the error for returning to the caller, applying the shallow
// flag (indicating the error was raised before any network activity) and
// logging it.
func Return(err error, logger log.Logger, shallow bool) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*errors.Error); ok {
		e.IsShallow = shallow
	}
	logger.Warn(context.Background(), err)
	return err
}

// ValidateNonNil validates that a collection of arguments are not nil.
func ValidateNonNil(args map[string]any) error {
	for k, v := range args {
		if v == nil {
			return &errors.Error{
				Message:      "argument is nil",
				Kind:         errors.ConfigurationInvalid,
				PropertyName: k,
			}
		}
	}
	return nil
}

// NewCorrelation generates a random (version 4) UUID for correlating a request
// with its response.
func NewCorrelation() (uuid.UUID, error) {
	correlation, err := uuid.NewRandom()
	if err != nil {
		return uuid.Nil, &errors.Error{
			Message:     err.Error(),
			Kind:        errors.UnknownError,
			NestedError: err,
		}
	}
	return correlation, nil
}
