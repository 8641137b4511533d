// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package errors

import "time"

type (
	// Error represents a structured protocol error.
	Error struct {
		Message string
		Kind    Kind

		NestedError error

		HeaderName  string
		HeaderValue string

		TimeoutName  string
		TimeoutValue time.Duration

		PropertyName  string
		PropertyValue any

		// The following will be set automatically by the library and should not
		// be updated manually.

		InApplication  bool
		IsShallow      bool
		IsRemote       bool
		HTTPStatusCode int
	}

	// Kind defines the type of error being thrown.
	Kind int
)

// The following are the defined error kinds.
const (
	// HeaderMissing indicates a required MQTT property was not present.
	HeaderMissing Kind = iota

	// HeaderInvalid indicates an MQTT property had an unexpected value. A
	// content type mismatch is reported with this kind and a HeaderName of
	// "Content Type".
	HeaderInvalid

	// PayloadInvalid indicates the payload could not be (de)serialized.
	PayloadInvalid

	// Timeout indicates no response arrived within the allotted time.
	Timeout

	// Cancellation indicates the caller cancelled the operation.
	Cancellation

	// ConfigurationInvalid indicates an invalid constructor argument.
	ConfigurationInvalid

	// ArgumentInvalid indicates an invalid per-call argument.
	ArgumentInvalid

	// StateInvalid indicates the operation is invalid for the current state.
	StateInvalid

	// InternalLogicError indicates a bug in the library.
	InternalLogicError

	// UnknownError indicates an error that could not be classified.
	UnknownError

	// ExecutionException indicates the command handler failed.
	ExecutionException

	// MqttError indicates the transport failed or rejected an operation.
	MqttError

	// CorrelationMismatch indicates a response matched no pending invocation.
	CorrelationMismatch
)

var kindNames = [...]string{
	HeaderMissing:        "header missing",
	HeaderInvalid:        "header invalid",
	PayloadInvalid:       "payload invalid",
	Timeout:              "timeout",
	Cancellation:         "cancellation",
	ConfigurationInvalid: "configuration invalid",
	ArgumentInvalid:      "argument invalid",
	StateInvalid:         "state invalid",
	InternalLogicError:   "internal logic error",
	UnknownError:         "unknown error",
	ExecutionException:   "execution exception",
	MqttError:            "mqtt error",
	CorrelationMismatch:  "correlation mismatch",
}

// Error returns the error as a string.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the nested error, if any.
func (e *Error) Unwrap() error {
	return e.NestedError
}

// String returns a human-readable name for the error kind.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown error"
}
