// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqtt

import "slices"

// CONNACK reason codes after which reconnecting with the same settings cannot
// succeed.
var fatalConnackReasonCodes = []byte{
	connackMalformedPacket,
	connackProtocolError,
	connackImplementationSpecificError,
	connackUnsupportedProtocolVersion,
	connackClientIdentifierNotValid,
	connackBadUserNameOrPassword,
	connackNotAuthorized,
	connackBanned,
	connackBadAuthenticationMethod,
	connackTopicNameInvalid,
	connackPacketTooLarge,
	connackPayloadFormatInvalid,
	connackRetainNotSupported,
	connackQoSNotSupported,
	connackUseAnotherServer,
	connackServerMoved,
}

// DISCONNECT reason codes that indicate the client is misconfigured or has
// been replaced, so the session must not be resumed.
var fatalDisconnectReasonCodes = []byte{
	disconnectMalformedPacket,
	disconnectProtocolError,
	disconnectNotAuthorized,
	disconnectSessionTakenOver,
	disconnectTopicFilterInvalid,
	disconnectTopicNameInvalid,
	disconnectTopicAliasInvalid,
	disconnectPacketTooLarge,
	disconnectPayloadFormatInvalid,
	disconnectRetainNotSupported,
	disconnectQoSNotSupported,
	disconnectServerMoved,
	disconnectSharedSubscriptionsNotSupported,
	disconnectSubscriptionIdentifiersNotSupported,
	disconnectWildcardSubscriptionsNotSupported,
}

func isFatalConnackReasonCode(reasonCode byte) bool {
	return slices.Contains(fatalConnackReasonCodes, reasonCode)
}

func isFatalDisconnectReasonCode(reasonCode byte) bool {
	return slices.Contains(fatalDisconnectReasonCodes, reasonCode)
}
