// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package protocol

import (
	"github.com/Azure-Samples/MqttApplicationSamples/protocol/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Protobuf is an encoding of protobuf messages in their binary wire format.
//
// MessageType selects the message to create on deserialization. It may be
// left unset for generated message types, where it is derived from T; it is
// required for dynamic messages and for T = proto.Message.
type Protobuf[T proto.Message] struct {
	MessageType protoreflect.MessageType
}

// ContentType returns the protobuf MIME type.
func (Protobuf[T]) ContentType() string {
	return "application/protobuf"
}

// Serialize translates the message into its binary wire format.
func (Protobuf[T]) Serialize(t T) ([]byte, error) {
	return proto.Marshal(t)
}

// Deserialize translates the binary wire format into a new message.
func (p Protobuf[T]) Deserialize(data []byte) (T, error) {
	var zero T

	mt := p.MessageType
	if mt == nil {
		if any(zero) == nil {
			return zero, &errors.Error{
				Message:      "message type required for interface types",
				Kind:         errors.ConfigurationInvalid,
				PropertyName: "MessageType",
			}
		}
		mt = zero.ProtoReflect().Type()
	}

	msg := mt.New().Interface()
	if err := proto.Unmarshal(data, msg); err != nil {
		return zero, err
	}

	t, ok := msg.(T)
	if !ok {
		return zero, &errors.Error{
			Message:       "message type does not match encoding type",
			Kind:          errors.ConfigurationInvalid,
			PropertyName:  "MessageType",
			PropertyValue: mt.Descriptor().FullName(),
		}
	}
	return t, nil
}
