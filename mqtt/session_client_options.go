// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqtt

import (
	"log/slog"
	"time"

	"github.com/Azure-Samples/MqttApplicationSamples/internal/options"
	"github.com/Azure-Samples/MqttApplicationSamples/mqtt/auth"
	"github.com/Azure-Samples/MqttApplicationSamples/mqtt/retry"
)

type (
	// SessionClientOptions are the resolved options for the session client.
	SessionClientOptions struct {
		// ClientID is the MQTT client identifier; a random one is generated if
		// it is left empty.
		ClientID string

		// CleanStart applies to the first connection only. Reconnections
		// always attempt to resume the session.
		CleanStart bool

		KeepAlive      time.Duration
		SessionExpiry  time.Duration
		ReceiveMaximum uint16

		// ConnectionTimeout bounds each individual connection attempt.
		ConnectionTimeout time.Duration

		Username UsernameProvider
		Password PasswordProvider

		// Auth enables MQTT v5 enhanced authentication.
		Auth auth.Provider

		// ConnectionRetry controls the reconnection backoff. The initial
		// connection uses it as well.
		ConnectionRetry retry.Policy

		Logger *slog.Logger
	}

	// SessionClientOption represents a single option for the session client.
	SessionClientOption interface{ sessionClient(*SessionClientOptions) }

	// WithClientID sets the MQTT client identifier.
	WithClientID string

	// WithCleanStart sets whether the first connection discards any existing
	// session on the server.
	WithCleanStart bool

	// WithKeepAlive sets the keep-alive interval.
	WithKeepAlive time.Duration

	// WithSessionExpiry sets the session expiry interval. A negative value
	// requests a session that never expires.
	WithSessionExpiry time.Duration

	// WithReceiveMaximum limits the number of unacknowledged QoS 1 messages
	// the server may send.
	WithReceiveMaximum uint16

	// WithConnectionTimeout bounds each individual connection attempt.
	WithConnectionTimeout time.Duration

	// WithUsername sets the username provider.
	WithUsername UsernameProvider

	// WithPassword sets the password provider.
	WithPassword PasswordProvider

	// withAuth sets the enhanced authentication provider.
	withAuth struct{ auth.Provider }

	// withConnectionRetry sets the connection retry policy.
	withConnectionRetry struct{ retry.Policy }

	// withLogger sets the logger for the session client.
	withLogger struct{ *slog.Logger }
)

func (o WithClientID) sessionClient(opt *SessionClientOptions) {
	opt.ClientID = string(o)
}

func (o WithCleanStart) sessionClient(opt *SessionClientOptions) {
	opt.CleanStart = bool(o)
}

func (o WithKeepAlive) sessionClient(opt *SessionClientOptions) {
	opt.KeepAlive = time.Duration(o)
}

func (o WithSessionExpiry) sessionClient(opt *SessionClientOptions) {
	opt.SessionExpiry = time.Duration(o)
	if o < 0 {
		opt.SessionExpiry = maxSessionExpiry
	}
}

func (o WithReceiveMaximum) sessionClient(opt *SessionClientOptions) {
	opt.ReceiveMaximum = uint16(o)
}

func (o WithConnectionTimeout) sessionClient(opt *SessionClientOptions) {
	opt.ConnectionTimeout = time.Duration(o)
}

func (o WithUsername) sessionClient(opt *SessionClientOptions) {
	opt.Username = UsernameProvider(o)
}

func (o WithPassword) sessionClient(opt *SessionClientOptions) {
	opt.Password = PasswordProvider(o)
}

// WithAuth enables MQTT v5 enhanced authentication using the given provider.
func WithAuth(provider auth.Provider) SessionClientOption {
	return withAuth{provider}
}

func (o withAuth) sessionClient(opt *SessionClientOptions) {
	opt.Auth = o.Provider
}

// WithConnectionRetry sets the retry policy used to connect and reconnect.
func WithConnectionRetry(policy retry.Policy) SessionClientOption {
	return withConnectionRetry{policy}
}

func (o withConnectionRetry) sessionClient(opt *SessionClientOptions) {
	opt.ConnectionRetry = o.Policy
}

// WithLogger enables logging with the provided slog logger.
func WithLogger(logger *slog.Logger) SessionClientOption {
	return withLogger{logger}
}

func (o withLogger) sessionClient(opt *SessionClientOptions) {
	opt.Logger = o.Logger
}

// Apply resolves the provided list of options.
func (o *SessionClientOptions) Apply(
	opts []SessionClientOption,
	rest ...SessionClientOption,
) {
	for opt := range options.Apply[SessionClientOption](opts, rest...) {
		opt.sessionClient(o)
	}
}

// Assign non-nil options.
func (o *SessionClientOptions) sessionClient(opt *SessionClientOptions) {
	if o != nil {
		*opt = *o
	}
}
