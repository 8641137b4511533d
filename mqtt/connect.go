// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqtt

import (
	"context"
	"errors"
	"log/slog"

	"github.com/eclipse/paho.golang/paho"
)

// Connect establishes the MQTT connection, retrying according to the
// connection retry policy, and then maintains it in the background until
// Disconnect is called or a fatal error occurs. It returns once the first
// connection succeeds.
func (c *SessionClient) Connect(ctx context.Context) error {
	if err := c.validate(); err != nil {
		return err
	}

	if !c.state.CompareAndSwap(uint32(NotStarted), uint32(Started)) {
		return &ClientStateError{ClientState(c.state.Load())}
	}

	if err := c.connectWithRetry(ctx, c.options.CleanStart); err != nil {
		c.terminate(err)
		return err
	}

	go c.maintain()
	return nil
}

// Disconnect gracefully closes the MQTT connection and stops the session
// client. The client cannot be reconnected afterwards.
func (c *SessionClient) Disconnect() error {
	if err := c.ensureStarted(); err != nil {
		return err
	}

	c.state.Store(uint32(ShutDown))
	c.shutdown.Close()
	c.stopCtx()

	current := c.conn.Current()
	if current.Client == nil {
		return nil
	}

	packet := &paho.Disconnect{ReasonCode: disconnectNormalDisconnection}
	c.log.Packet(context.Background(), "disconnect", packet)
	if err := current.Client.Disconnect(packet); err != nil {
		return &ConnectionError{
			message: "error sending DISCONNECT",
			wrapped: err,
		}
	}
	return nil
}

func (c *SessionClient) validate() error {
	if c.connectionProvider == nil {
		return &InvalidArgumentError{message: "connection provider is nil"}
	}
	if c.options.KeepAlive < 0 || c.options.KeepAlive > maxKeepAlive {
		return &InvalidArgumentError{message: "keep-alive out of range"}
	}
	if c.options.SessionExpiry < 0 ||
		c.options.SessionExpiry > maxSessionExpiry {
		return &InvalidArgumentError{message: "session expiry out of range"}
	}
	return nil
}

// Wait for each disconnection and reconnect, until shutdown.
func (c *SessionClient) maintain() {
	for {
		current := c.conn.Current()
		select {
		case <-c.shutdown.Done():
			return
		case <-current.Down.Done():
		}

		if err := c.conn.Current().Error; isFatal(err) {
			c.terminate(err)
			return
		}

		c.log.Info(c.handlerCtx, "connection lost; reconnecting")
		if err := c.connectWithRetry(c.handlerCtx, false); err != nil {
			select {
			case <-c.shutdown.Done():
			default:
				c.terminate(err)
			}
			return
		}
	}
}

func (c *SessionClient) connectWithRetry(
	ctx context.Context,
	cleanStart bool,
) error {
	ctx, cancel := c.shutdown.With(ctx)
	defer cancel()

	return c.options.ConnectionRetry.Start(ctx, "connect",
		func(ctx context.Context) (bool, error) {
			err := c.attemptConnect(ctx, cleanStart)
			return !isFatal(err), err
		},
	)
}

// A single connection attempt.
func (c *SessionClient) attemptConnect(
	ctx context.Context,
	cleanStart bool,
) error {
	attempt := c.conn.Attempt()

	if c.options.ConnectionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.options.ConnectionTimeout)
		defer cancel()
	}

	packet, err := c.buildConnectPacket(ctx, cleanStart)
	if err != nil {
		return err
	}

	conn, err := c.connectionProvider(ctx)
	if err != nil {
		return err
	}

	config := paho.ClientConfig{
		ClientID: c.options.ClientID,
		Conn:     conn,
		Session:  c.session,

		// Acks are sent by the message handlers (or automatically for
		// unclaimed messages).
		EnableManualAcknowledgment: true,

		OnPublishReceived: []func(paho.PublishReceived) (bool, error){
			c.onPublishReceived,
		},
		OnServerDisconnect: func(d *paho.Disconnect) {
			c.log.Packet(c.handlerCtx, "server disconnect", d)
			var err error = &DisconnectError{ReasonCode: d.ReasonCode}
			if d.Properties != nil {
				err = &DisconnectError{
					ReasonCode:   d.ReasonCode,
					ReasonString: d.Properties.ReasonString,
				}
			}
			if isFatalDisconnectReasonCode(d.ReasonCode) {
				err = &FatalDisconnectError{ReasonCode: d.ReasonCode}
			}
			c.onDisconnect(attempt, &d.ReasonCode, err)
		},
		OnClientError: func(err error) {
			c.onDisconnect(attempt, nil, &ConnectionError{
				message: "connection error",
				wrapped: err,
			})
		},
	}
	if c.options.Auth != nil {
		config.AuthHandler = &pahoAuther{c}
	}
	client := paho.NewClient(config)

	c.log.Packet(ctx, "connect", packet)
	connack, err := client.Connect(ctx, packet)
	c.log.Packet(ctx, "connack", connack)

	if connack != nil && connack.ReasonCode >= 0x80 {
		var reason string
		if connack.Properties != nil {
			reason = connack.Properties.ReasonString
		}
		if isFatalConnackReasonCode(connack.ReasonCode) {
			return &FatalConnackError{connack.ReasonCode, reason}
		}
		return &ConnackError{connack.ReasonCode, reason}
	}
	if err != nil {
		_ = conn.Close()
		return &ConnectionError{
			message: "error connecting to MQTT server",
			wrapped: err,
		}
	}

	if err := c.conn.Connect(client); err != nil {
		return err
	}

	if c.options.Auth != nil {
		c.options.Auth.AuthSuccess(c.requestReauthentication)
	}

	c.log.Info(ctx, "connected",
		slog.String("client_id", c.options.ClientID),
		slog.Bool("session_present", connack.SessionPresent),
	)

	if !connack.SessionPresent {
		c.resubscribe(ctx, client)
	}

	event := &ConnectEvent{
		ReasonCode:     connack.ReasonCode,
		SessionPresent: connack.SessionPresent,
	}
	for handler := range c.connectEventHandlers.All() {
		handler(event)
	}
	return nil
}

func (c *SessionClient) buildConnectPacket(
	ctx context.Context,
	cleanStart bool,
) (*paho.Connect, error) {
	packet := &paho.Connect{
		ClientID:   c.options.ClientID,
		CleanStart: cleanStart,
		KeepAlive:  uint16(c.options.KeepAlive.Seconds()),
		Properties: &paho.ConnectProperties{
			RequestProblemInfo: true,
		},
	}

	if c.options.SessionExpiry > 0 {
		expiry := uint32(c.options.SessionExpiry.Seconds())
		packet.Properties.SessionExpiryInterval = &expiry
	}
	if c.options.ReceiveMaximum > 0 {
		packet.Properties.ReceiveMaximum = &c.options.ReceiveMaximum
	}

	if c.options.Username != nil {
		username, ok, err := c.options.Username(ctx)
		if err != nil {
			return nil, &ConnectionError{
				message: "error getting username",
				wrapped: err,
			}
		}
		packet.Username, packet.UsernameFlag = username, ok
	}

	if c.options.Password != nil {
		password, ok, err := c.options.Password(ctx)
		if err != nil {
			return nil, &ConnectionError{
				message: "error getting password",
				wrapped: err,
			}
		}
		packet.Password, packet.PasswordFlag = password, ok
	}

	if c.options.Auth != nil {
		values, err := c.options.Auth.InitiateAuth(false)
		if err != nil {
			return nil, &ConnectionError{
				message: "error getting auth values",
				wrapped: err,
			}
		}
		packet.Properties.AuthMethod = values.AuthMethod
		packet.Properties.AuthData = values.AuthData
	}

	return packet, nil
}

func (c *SessionClient) onDisconnect(
	attempt uint64,
	reasonCode *byte,
	err error,
) {
	c.conn.Disconnect(attempt, err)

	select {
	case <-c.shutdown.Done():
		return
	default:
	}

	c.log.Warn(c.handlerCtx, err)
	event := &DisconnectEvent{ReasonCode: reasonCode, Error: err}
	for handler := range c.disconnectEventHandlers.All() {
		handler(event)
	}
}

// Shut down the session client due to a fatal error.
func (c *SessionClient) terminate(err error) {
	c.fatal.Store(&err)
	c.state.Store(uint32(ShutDown))
	c.shutdown.Close()
	c.stopCtx()

	c.log.Err(context.Background(), err)
	for handler := range c.fatalErrorHandlers.All() {
		go handler(err)
	}
}

func isFatal(err error) bool {
	var (
		connack    *FatalConnackError
		disconnect *FatalDisconnectError
		invalid    *InvalidArgumentError
	)
	return errors.As(err, &connack) ||
		errors.As(err, &disconnect) ||
		errors.As(err, &invalid)
}
