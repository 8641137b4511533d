// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package vehicle

import (
	"time"

	"github.com/Azure-Samples/MqttApplicationSamples/protocol"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol/iso"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// The unlock command schema, equivalent to:
//
//	syntax = "proto3";
//	import "google/protobuf/timestamp.proto";
//	message UnlockRequest {
//	  google.protobuf.Timestamp when = 1;
//	  string requestedFrom = 2;
//	}
//	message UnlockResponse {
//	  bool succeed = 1;
//	  string errorDetail = 2;
//	}
var (
	unlockFile = buildUnlockFile()

	unlockRequestType = dynamicpb.NewMessageType(
		unlockFile.Messages().ByName("UnlockRequest"),
	)
	unlockResponseType = dynamicpb.NewMessageType(
		unlockFile.Messages().ByName("UnlockResponse"),
	)

	unlockRequestEncoding = protocol.Protobuf[proto.Message]{
		MessageType: unlockRequestType,
	}
	unlockResponseEncoding = protocol.Protobuf[proto.Message]{
		MessageType: unlockResponseType,
	}
)

type (
	unlockRequestProto  struct{}
	unlockResponseProto struct{}
)

func buildUnlockFile() protoreflect.FileDescriptor {
	field := func(
		name string,
		number int32,
		typ descriptorpb.FieldDescriptorProto_Type,
		typeName string,
	) *descriptorpb.FieldDescriptorProto {
		f := &descriptorpb.FieldDescriptorProto{
			Name:     proto.String(name),
			JsonName: proto.String(name),
			Number:   proto.Int32(number),
			Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
			Type:     typ.Enum(),
		}
		if typeName != "" {
			f.TypeName = proto.String(typeName)
		}
		return f
	}

	// Make sure the timestamp dependency is registered.
	_ = timestamppb.File_google_protobuf_timestamp_proto

	return protocol.Must(protodesc.NewFile(&descriptorpb.FileDescriptorProto{
		Name:       proto.String("unlock_command.proto"),
		Syntax:     proto.String("proto3"),
		Dependency: []string{"google/protobuf/timestamp.proto"},
		MessageType: []*descriptorpb.DescriptorProto{{
			Name: proto.String("UnlockRequest"),
			Field: []*descriptorpb.FieldDescriptorProto{
				field("when", 1,
					descriptorpb.FieldDescriptorProto_TYPE_MESSAGE,
					".google.protobuf.Timestamp"),
				field("requestedFrom", 2,
					descriptorpb.FieldDescriptorProto_TYPE_STRING, ""),
			},
		}, {
			Name: proto.String("UnlockResponse"),
			Field: []*descriptorpb.FieldDescriptorProto{
				field("succeed", 1,
					descriptorpb.FieldDescriptorProto_TYPE_BOOL, ""),
				field("errorDetail", 2,
					descriptorpb.FieldDescriptorProto_TYPE_STRING, ""),
			},
		}},
	}, protoregistry.GlobalFiles))
}

func fieldOf(m protoreflect.Message, name string) protoreflect.FieldDescriptor {
	return m.Descriptor().Fields().ByName(protoreflect.Name(name))
}

func (unlockRequestProto) ContentType() string {
	return unlockRequestEncoding.ContentType()
}

func (unlockRequestProto) Serialize(req UnlockRequest) ([]byte, error) {
	m := unlockRequestType.New()

	when := fieldOf(m, "when")
	ts := m.NewField(when).Message()
	t := req.When.Time()
	ts.Set(fieldOf(ts, "seconds"), protoreflect.ValueOfInt64(t.Unix()))
	ts.Set(fieldOf(ts, "nanos"), protoreflect.ValueOfInt32(int32(t.Nanosecond())))
	m.Set(when, protoreflect.ValueOfMessage(ts))

	m.Set(fieldOf(m, "requestedFrom"), protoreflect.ValueOfString(req.RequestedFrom))
	return unlockRequestEncoding.Serialize(m.Interface())
}

func (unlockRequestProto) Deserialize(data []byte) (UnlockRequest, error) {
	msg, err := unlockRequestEncoding.Deserialize(data)
	if err != nil {
		return UnlockRequest{}, err
	}
	m := msg.ProtoReflect()

	var req UnlockRequest
	if when := fieldOf(m, "when"); m.Has(when) {
		ts := m.Get(when).Message()
		req.When = iso.DateTime(time.Unix(
			ts.Get(fieldOf(ts, "seconds")).Int(),
			ts.Get(fieldOf(ts, "nanos")).Int(),
		).UTC())
	}
	req.RequestedFrom = m.Get(fieldOf(m, "requestedFrom")).String()
	return req, nil
}

func (unlockResponseProto) ContentType() string {
	return unlockResponseEncoding.ContentType()
}

func (unlockResponseProto) Serialize(res UnlockResponse) ([]byte, error) {
	m := unlockResponseType.New()
	m.Set(fieldOf(m, "succeed"), protoreflect.ValueOfBool(res.Succeed))
	m.Set(fieldOf(m, "errorDetail"), protoreflect.ValueOfString(res.ErrorDetail))
	return unlockResponseEncoding.Serialize(m.Interface())
}

func (unlockResponseProto) Deserialize(data []byte) (UnlockResponse, error) {
	msg, err := unlockResponseEncoding.Deserialize(data)
	if err != nil {
		return UnlockResponse{}, err
	}
	m := msg.ProtoReflect()
	return UnlockResponse{
		Succeed:     m.Get(fieldOf(m, "succeed")).Bool(),
		ErrorDetail: m.Get(fieldOf(m, "errorDetail")).String(),
	}, nil
}
