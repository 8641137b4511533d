// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqtt

import (
	"github.com/Azure-Samples/MqttApplicationSamples/mqtt/auth"
	"github.com/eclipse/paho.golang/paho"
)

// Re-authenticate on the live connection, e.g. once a token is refreshed.
func (c *SessionClient) requestReauthentication() {
	current := c.conn.Current()

	// The connection is down, so the next connection authenticates anyway.
	if current.Client == nil {
		return
	}

	go func() {
		ctx, cancel := current.Down.With(c.handlerCtx)
		defer cancel()

		values, err := c.options.Auth.InitiateAuth(true)
		if err != nil {
			c.log.Err(ctx, err)
			return
		}

		packet := &paho.Auth{
			ReasonCode: authReauthenticate,
			Properties: &paho.AuthProperties{
				AuthMethod: values.AuthMethod,
				AuthData:   values.AuthData,
			},
		}
		c.log.Packet(ctx, "auth", packet)

		// If this fails, the server will eventually disconnect and the next
		// connection authenticates from scratch.
		res, err := current.Client.Authenticate(ctx, packet)
		if err != nil {
			c.log.Err(ctx, &ConnectionError{
				message: "reauthentication failed",
				wrapped: err,
			})
			return
		}
		c.log.Packet(ctx, "auth response", res)
	}()
}

// Implements paho.Auther.
type pahoAuther struct {
	c *SessionClient
}

func (a *pahoAuther) Authenticate(packet *paho.Auth) *paho.Auth {
	in := &auth.Values{}
	if packet.Properties != nil {
		in.AuthMethod = packet.Properties.AuthMethod
		in.AuthData = packet.Properties.AuthData
	}

	values, err := a.c.options.Auth.ContinueAuth(in)
	if err != nil {
		a.c.log.Err(a.c.handlerCtx, err)
		// Paho dereferences the result, so return an empty packet; the server
		// will reject it and disconnect.
		return &paho.Auth{}
	}
	return &paho.Auth{
		ReasonCode: authContinueAuthentication,
		Properties: &paho.AuthProperties{
			AuthMethod: values.AuthMethod,
			AuthData:   values.AuthData,
		},
	}
}

func (a *pahoAuther) Authenticated() {
	a.c.options.Auth.AuthSuccess(a.c.requestReauthentication)
}
