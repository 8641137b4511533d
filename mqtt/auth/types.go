// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package auth

import "errors"

type (
	// Values contains values from AUTH packets sent to and received from
	// the MQTT server.
	Values struct {
		AuthMethod string
		AuthData   []byte
	}

	// Provider implements MQTT v5 enhanced authentication for the session
	// client.
	Provider interface {
		// InitiateAuth is called when a new MQTT connection is being created
		// (reauthentication false) or when the provider has requested
		// reauthentication on a live connection (reauthentication true). The
		// returned values are sent in the CONNECT or AUTH packet.
		InitiateAuth(reauthentication bool) (*Values, error)

		// ContinueAuth is called when the server sends an AUTH packet with
		// reason code 0x18 (continue authentication). The returned values are
		// sent in the next AUTH packet of the exchange.
		ContinueAuth(values *Values) (*Values, error)

		// AuthSuccess is called when authentication succeeds. The provider may
		// call requestReauthentication at any later point to refresh its
		// credentials on the live connection; the function remains valid for
		// the lifetime of the session client.
		AuthSuccess(requestReauthentication func())
	}
)

// ErrUnexpected is returned by providers that do not support a multi-step
// authentication exchange.
var ErrUnexpected = errors.New("unexpected continuation of auth exchange")
