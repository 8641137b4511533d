// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package protocol

import (
	"context"
	"testing"

	"github.com/Azure-Samples/MqttApplicationSamples/protocol/errors"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestJSON(t *testing.T) {
	enc := JSON[unlockReq]{}
	require.Equal(t, "application/json", enc.ContentType())

	data, err := enc.Serialize(unlockReq{RequestedFrom: "ctrl1"})
	require.NoError(t, err)
	require.JSONEq(t, `{"when":"","requestedFrom":"ctrl1"}`, string(data))

	req, err := enc.Deserialize(data)
	require.NoError(t, err)
	require.Equal(t, "ctrl1", req.RequestedFrom)

	_, err = deserialize[unlockReq](enc, []byte(`{`))
	require.True(t, errors.IsKind(err, errors.PayloadInvalid))

	_, err = serialize[any](JSON[any]{}, make(chan int))
	require.True(t, errors.IsKind(err, errors.PayloadInvalid))
}

func TestRaw(t *testing.T) {
	enc := Raw{}
	require.Equal(t, "application/octet-stream", enc.ContentType())
	data, err := enc.Serialize([]byte{1, 2, 3})
	require.NoError(t, err)
	res, err := enc.Deserialize(data)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, res)
}

func TestProtobufGenerated(t *testing.T) {
	enc := Protobuf[*wrapperspb.StringValue]{}
	require.Equal(t, "application/protobuf", enc.ContentType())

	data, err := enc.Serialize(wrapperspb.String("vehicle03"))
	require.NoError(t, err)
	res, err := enc.Deserialize(data)
	require.NoError(t, err)
	require.Equal(t, "vehicle03", res.GetValue())

	st, err := structpb.NewStruct(map[string]any{
		"succeed":     true,
		"errorDetail": "",
	})
	require.NoError(t, err)
	senc := Protobuf[*structpb.Struct]{}
	data, err = senc.Serialize(st)
	require.NoError(t, err)
	got, err := senc.Deserialize(data)
	require.NoError(t, err)
	require.True(t, proto.Equal(st, got))
}

func TestProtobufInterfaceRequiresMessageType(t *testing.T) {
	_, err := Protobuf[proto.Message]{}.Deserialize(nil)
	require.True(t, errors.IsKind(err, errors.ConfigurationInvalid))

	enc := Protobuf[proto.Message]{
		MessageType: (&wrapperspb.BoolValue{}).ProtoReflect().Type(),
	}
	data, err := enc.Serialize(wrapperspb.Bool(true))
	require.NoError(t, err)
	msg, err := enc.Deserialize(data)
	require.NoError(t, err)
	require.True(t, msg.(*wrapperspb.BoolValue).GetValue())
}

// Build message types at runtime, as a sample without generated code would.
func dynamicTypes(t *testing.T) (req, res protoreflect.MessageType) {
	field := func(
		name string,
		number int32,
		typ descriptorpb.FieldDescriptorProto_Type,
	) *descriptorpb.FieldDescriptorProto {
		return &descriptorpb.FieldDescriptorProto{
			Name:     proto.String(name),
			JsonName: proto.String(name),
			Number:   proto.Int32(number),
			Type:     typ.Enum(),
			Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		}
	}

	fd, err := protodesc.NewFile(&descriptorpb.FileDescriptorProto{
		Name:    proto.String("unlock_test.proto"),
		Package: proto.String("protocol.test"),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{{
			Name: proto.String("UnlockRequest"),
			Field: []*descriptorpb.FieldDescriptorProto{
				field("requestedFrom", 1,
					descriptorpb.FieldDescriptorProto_TYPE_STRING),
			},
		}, {
			Name: proto.String("UnlockResponse"),
			Field: []*descriptorpb.FieldDescriptorProto{
				field("succeed", 1, descriptorpb.FieldDescriptorProto_TYPE_BOOL),
				field("errorDetail", 2,
					descriptorpb.FieldDescriptorProto_TYPE_STRING),
			},
		}},
	}, nil)
	require.NoError(t, err)

	msgs := fd.Messages()
	return dynamicpb.NewMessageType(msgs.ByName("UnlockRequest")),
		dynamicpb.NewMessageType(msgs.ByName("UnlockResponse"))
}

func TestProtobufCommand(t *testing.T) {
	ctx := context.Background()
	broker := newFakeBroker()
	reqType, resType := dynamicTypes(t)

	reqEnc := Protobuf[*dynamicpb.Message]{MessageType: reqType}
	resEnc := Protobuf[*dynamicpb.Message]{MessageType: resType}

	from := reqType.Descriptor().Fields().ByName("requestedFrom")
	succeed := resType.Descriptor().Fields().ByName("succeed")

	cs, err := NewCommandServer(
		broker.client("vehicle03"),
		reqEnc,
		resEnc,
		requestPattern,
		"unlock",
		func(
			_ context.Context,
			req *CommandRequest[*dynamicpb.Message],
		) (*dynamicpb.Message, error) {
			res := dynamicpb.NewMessage(resType.Descriptor())
			res.Set(succeed, protoreflect.ValueOfBool(
				req.Payload.Get(from).String() == "ctrl1",
			))
			return res, nil
		},
	)
	require.NoError(t, err)
	defer cs.Close()
	require.NoError(t, cs.Start(ctx))

	cc, err := NewCommandClient(
		broker.client("ctrl1"),
		reqEnc,
		resEnc,
		requestPattern,
		responsePattern,
		"unlock",
	)
	require.NoError(t, err)
	defer cc.Close()

	req := dynamicpb.NewMessage(reqType.Descriptor())
	req.Set(from, protoreflect.ValueOfString("ctrl1"))

	res, err := cc.Invoke(ctx, "vehicle03", req)
	require.NoError(t, err)
	require.Equal(t, "application/protobuf", res.ContentType)
	require.True(t, res.Payload.Get(succeed).Bool())
}
