// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package protocol

import (
	"encoding/json"

	"github.com/Azure-Samples/MqttApplicationSamples/internal/mqtt"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol/errors"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol/internal/constants"
)

type (
	// Encoding is a translation between a concrete Go type T and encoded data,
	// labelled by its content type. All methods *must* be thread-safe.
	Encoding[T any] interface {
		ContentType() string
		Serialize(T) ([]byte, error)
		Deserialize([]byte) (T, error)
	}

	// JSON is a simple implementation of a JSON encoding.
	JSON[T any] struct{}

	// Raw represents a raw byte stream.
	Raw struct{}
)

// Utility to serialize with a protocol error.
func serialize[T any](encoding Encoding[T], value T) ([]byte, error) {
	bytes, err := encoding.Serialize(value)
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			return nil, e
		}
		return nil, &errors.Error{
			Message:     "cannot serialize payload",
			Kind:        errors.PayloadInvalid,
			NestedError: err,
		}
	}
	return bytes, nil
}

// Utility to deserialize with a protocol error.
func deserialize[T any](encoding Encoding[T], data []byte) (T, error) {
	value, err := encoding.Deserialize(data)
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			return value, e
		}
		return value, &errors.Error{
			Message:     "cannot deserialize payload: " + err.Error(),
			Kind:        errors.PayloadInvalid,
			NestedError: err,
		}
	}
	return value, nil
}

// Check the content type of a received message against the encoding. The
// comparison is exact; an absent content type is a mismatch.
func checkContentType[T any](encoding Encoding[T], pub *mqtt.Message) error {
	if pub.ContentType != encoding.ContentType() {
		return &errors.Error{
			Message: "invalid content type. expected: " +
				encoding.ContentType() + " actual: " + pub.ContentType,
			Kind:        errors.HeaderInvalid,
			HeaderName:  constants.ContentType,
			HeaderValue: pub.ContentType,
		}
	}
	return nil
}

// Payload format indicator to send with an encoding's payload.
func payloadFormat(contentType string) byte {
	switch contentType {
	case "application/json", "text/plain":
		return mqtt.PayloadFormatUTF8
	default:
		return mqtt.PayloadFormatBytes
	}
}

// ContentType returns the JSON MIME type.
func (JSON[T]) ContentType() string {
	return "application/json"
}

// Serialize translates the Go type T into JSON bytes.
func (JSON[T]) Serialize(t T) ([]byte, error) {
	return json.Marshal(t)
}

// Deserialize translates JSON bytes into the Go type T.
func (JSON[T]) Deserialize(data []byte) (T, error) {
	var t T
	err := json.Unmarshal(data, &t)
	return t, err
}

// ContentType returns the generic binary MIME type.
func (Raw) ContentType() string {
	return "application/octet-stream"
}

// Serialize returns the bytes unchanged.
func (Raw) Serialize(t []byte) ([]byte, error) {
	return t, nil
}

// Deserialize returns the bytes unchanged.
func (Raw) Deserialize(data []byte) ([]byte, error) {
	return data, nil
}
