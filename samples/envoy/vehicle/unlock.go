// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package vehicle contains the message types, topics and channel constructors
// shared by the vehicle samples.
package vehicle

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure-Samples/MqttApplicationSamples/protocol"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol/iso"
)

type (
	UnlockRequest struct {
		When          iso.DateTime `json:"when"`
		RequestedFrom string       `json:"requestedFrom"`
	}

	UnlockResponse struct {
		Succeed     bool   `json:"succeed"`
		ErrorDetail string `json:"errorDetail"`
	}

	UnlockServer = protocol.CommandServer[UnlockRequest, UnlockResponse]
	UnlockClient = protocol.CommandClient[UnlockRequest, UnlockResponse]

	// UnlockHandler decides whether to unlock the vehicle.
	UnlockHandler = func(context.Context, UnlockRequest) (UnlockResponse, error)

	// UnlockCodec pairs the request and response encodings of one wire
	// format. Both sides of the command must use the same format.
	UnlockCodec struct {
		Request  protocol.Encoding[UnlockRequest]
		Response protocol.Encoding[UnlockResponse]
	}
)

const (
	UnlockCommand       = "unlock"
	UnlockRequestTopic  = "vehicles/{clientId}/command/{commandName}/request"
	UnlockResponseTopic = "vehicles/{clientId}/command/{commandName}/response"
)

var (
	UnlockJSON = UnlockCodec{
		Request:  protocol.JSON[UnlockRequest]{},
		Response: protocol.JSON[UnlockResponse]{},
	}

	UnlockProtobuf = UnlockCodec{
		Request:  unlockRequestProto{},
		Response: unlockResponseProto{},
	}
)

// CodecFor selects the unlock codec by name ("json" or "protobuf"). An empty
// name selects JSON.
func CodecFor(name string) (UnlockCodec, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return UnlockJSON, nil
	case "protobuf", "proto":
		return UnlockProtobuf, nil
	default:
		return UnlockCodec{}, fmt.Errorf("unknown unlock encoding %q", name)
	}
}

// NewUnlockServer serves the unlock command for the client's own vehicle ID.
func NewUnlockServer(
	client protocol.MqttClient,
	codec UnlockCodec,
	handler UnlockHandler,
	opt ...protocol.CommandServerOption,
) (*UnlockServer, error) {
	return protocol.NewCommandServer(
		client,
		codec.Request,
		codec.Response,
		UnlockRequestTopic,
		UnlockCommand,
		func(
			ctx context.Context,
			req *protocol.CommandRequest[UnlockRequest],
		) (UnlockResponse, error) {
			return handler(ctx, req.Payload)
		},
		opt...,
	)
}

// NewUnlockClient creates a client that can unlock any vehicle by ID.
func NewUnlockClient(
	client protocol.MqttClient,
	codec UnlockCodec,
	opt ...protocol.CommandClientOption,
) (*UnlockClient, error) {
	return protocol.NewCommandClient(
		client,
		codec.Request,
		codec.Response,
		UnlockRequestTopic,
		UnlockResponseTopic,
		UnlockCommand,
		opt...,
	)
}
