// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqtt

import (
	"context"
	"crypto/tls"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Azure-Samples/MqttApplicationSamples/mqtt/auth"
	"github.com/iancoleman/strcase"
	"github.com/sosodev/duration"
)

// ConnectionSettings describe how to reach and authenticate with an MQTT
// server. They can be parsed from a connection string, e.g.
//
//	HostName=localhost;TcpPort=1883;UseTls=false;ClientId=vehicle03
//
// or from MQTT_ environment variables (see SettingsFromEnv).
type ConnectionSettings struct {
	HostName     string
	TCPPort      uint16
	UseTLS       bool
	UseWebSocket bool

	ClientID      string
	KeepAlive     time.Duration
	SessionExpiry time.Duration
	CleanSession  bool

	CertFile        string
	KeyFile         string
	KeyFilePassword string
	CAFile          string

	// DisableCRL is accepted for compatibility; certificate revocation is
	// not checked by this client.
	DisableCRL bool

	Username     string
	Password     string
	PasswordFile string

	// AuthMethod and AuthFile configure enhanced authentication with a token
	// read from AuthFile (e.g. K8S-SAT).
	AuthMethod string
	AuthFile   string
}

type setting struct {
	name    string
	aliases []string
	secret  bool
	get    func(*ConnectionSettings) string
	set    func(*ConnectionSettings, string) error
}

// The recognized settings, in rendering order. Connection string keys are
// matched case-insensitively against name.
var settings = []setting{
	stringSetting("HostName", false, func(cs *ConnectionSettings) *string { return &cs.HostName }),
	{
		name: "TcpPort",
		get:  func(cs *ConnectionSettings) string { return fmt.Sprint(cs.TCPPort) },
		set: func(cs *ConnectionSettings, v string) error {
			port, err := strconv.ParseUint(v, 10, 16)
			cs.TCPPort = uint16(port)
			return err
		},
	},
	boolSetting("UseTls", func(cs *ConnectionSettings) *bool { return &cs.UseTLS }),
	boolSetting("UseWebSocket", func(cs *ConnectionSettings) *bool { return &cs.UseWebSocket }),
	stringSetting("ClientId", false, func(cs *ConnectionSettings) *string { return &cs.ClientID }),
	secondsSetting("KeepAliveInSeconds", func(cs *ConnectionSettings) *time.Duration { return &cs.KeepAlive }, "KeepAlive"),
	durationSetting("SessionExpiry", func(cs *ConnectionSettings) *time.Duration { return &cs.SessionExpiry }),
	boolSetting("CleanSession", func(cs *ConnectionSettings) *bool { return &cs.CleanSession }),
	stringSetting("CertFile", false, func(cs *ConnectionSettings) *string { return &cs.CertFile }),
	stringSetting("KeyFile", false, func(cs *ConnectionSettings) *string { return &cs.KeyFile }),
	stringSetting("KeyFilePassword", true, func(cs *ConnectionSettings) *string { return &cs.KeyFilePassword }),
	stringSetting("CaFile", false, func(cs *ConnectionSettings) *string { return &cs.CAFile }),
	boolSetting("DisableCrl", func(cs *ConnectionSettings) *bool { return &cs.DisableCRL }),
	stringSetting("Username", false, func(cs *ConnectionSettings) *string { return &cs.Username }),
	stringSetting("Password", true, func(cs *ConnectionSettings) *string { return &cs.Password }),
	stringSetting("PasswordFile", false, func(cs *ConnectionSettings) *string { return &cs.PasswordFile }),
	stringSetting("AuthMethod", false, func(cs *ConnectionSettings) *string { return &cs.AuthMethod }),
	stringSetting("AuthFile", false, func(cs *ConnectionSettings) *string { return &cs.AuthFile }),
}

func stringSetting(
	name string,
	secret bool,
	field func(*ConnectionSettings) *string,
) setting {
	return setting{
		name:   name,
		secret: secret,
		get:    func(cs *ConnectionSettings) string { return *field(cs) },
		set: func(cs *ConnectionSettings, v string) error {
			*field(cs) = v
			return nil
		},
	}
}

func boolSetting(name string, field func(*ConnectionSettings) *bool) setting {
	return setting{
		name: name,
		get: func(cs *ConnectionSettings) string {
			return strconv.FormatBool(*field(cs))
		},
		set: func(cs *ConnectionSettings, v string) (err error) {
			*field(cs), err = strconv.ParseBool(v)
			return err
		},
	}
}

func durationSetting(
	name string,
	field func(*ConnectionSettings) *time.Duration,
) setting {
	return setting{
		name: name,
		get: func(cs *ConnectionSettings) string {
			if *field(cs) == 0 {
				return ""
			}
			return duration.FromTimeDuration(*field(cs)).String()
		},
		set: func(cs *ConnectionSettings, v string) (err error) {
			*field(cs), err = parseDuration(v)
			return err
		},
	}
}

// Rendered as a whole number of seconds, but parsed like any other duration.
func secondsSetting(
	name string,
	field func(*ConnectionSettings) *time.Duration,
	aliases ...string,
) setting {
	s := durationSetting(name, field)
	s.aliases = aliases
	s.get = func(cs *ConnectionSettings) string {
		if *field(cs) == 0 {
			return ""
		}
		return strconv.FormatInt(int64(field(cs).Seconds()), 10)
	}
	return s
}

// Durations are ISO 8601 (e.g. PT30S) or a plain number of seconds.
func parseDuration(v string) (time.Duration, error) {
	if secs, err := strconv.ParseUint(v, 10, 32); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := duration.Parse(v)
	if err != nil {
		return 0, err
	}
	return d.ToTimeDuration(), nil
}

// The environment variables for a setting, e.g. MQTT_TCP_PORT, in order of
// precedence.
func (s setting) envNames() []string {
	names := []string{"MQTT_" + strcase.ToScreamingSnake(s.name)}
	for _, alias := range s.aliases {
		names = append(names, "MQTT_"+strcase.ToScreamingSnake(alias))
	}
	return names
}

func (s setting) matches(key string) bool {
	if strings.EqualFold(s.name, key) {
		return true
	}
	for _, alias := range s.aliases {
		if strings.EqualFold(alias, key) {
			return true
		}
	}
	return false
}

// DefaultConnectionSettings returns the settings used for any value that is
// not explicitly provided.
func DefaultConnectionSettings() *ConnectionSettings {
	return &ConnectionSettings{
		TCPPort:      defaultTCPPort,
		UseTLS:       true,
		KeepAlive:    defaultKeepAlive,
		CleanSession: true,
	}
}

// ParseConnectionString parses connection settings from a semicolon-separated
// list of key=value pairs. Unset values take their defaults.
func ParseConnectionString(connStr string) (*ConnectionSettings, error) {
	cs := DefaultConnectionSettings()
	for _, param := range strings.Split(connStr, ";") {
		if strings.TrimSpace(param) == "" {
			continue
		}
		k, v, ok := strings.Cut(param, "=")
		if !ok {
			return nil, &InvalidArgumentError{
				message: fmt.Sprintf("malformed connection string entry %q", param),
			}
		}
		if err := cs.apply(strings.TrimSpace(k), strings.TrimSpace(v)); err != nil {
			return nil, err
		}
	}
	if err := cs.Validate(); err != nil {
		return nil, err
	}
	return cs, nil
}

func (cs *ConnectionSettings) apply(key, value string) error {
	for _, s := range settings {
		if !s.matches(key) {
			continue
		}
		if err := s.set(cs, value); err != nil {
			return &InvalidArgumentError{
				message: "invalid value for " + s.name,
				wrapped: err,
			}
		}
		return nil
	}
	return &InvalidArgumentError{message: "unknown connection setting " + key}
}

// Validate checks the settings for consistency.
func (cs *ConnectionSettings) Validate() error {
	switch {
	case cs.HostName == "":
		return &InvalidArgumentError{message: "HostName must not be empty"}
	case cs.TCPPort == 0:
		return &InvalidArgumentError{message: "TcpPort must not be zero"}
	case cs.KeepAlive < 0 || cs.KeepAlive > maxKeepAlive:
		return &InvalidArgumentError{message: "KeepAlive out of range"}
	case cs.SessionExpiry < 0 || cs.SessionExpiry > maxSessionExpiry:
		return &InvalidArgumentError{message: "SessionExpiry out of range"}
	case (cs.CertFile != "") != (cs.KeyFile != ""):
		return &InvalidArgumentError{
			message: "CertFile and KeyFile must be provided together",
		}
	case !cs.UseTLS && (cs.CertFile != "" || cs.CAFile != ""):
		return &InvalidArgumentError{
			message: "TLS configuration provided but not using TLS",
		}
	case cs.Password != "" && cs.PasswordFile != "":
		return &InvalidArgumentError{
			message: "Password and PasswordFile are mutually exclusive",
		}
	case (cs.AuthMethod != "") != (cs.AuthFile != ""):
		return &InvalidArgumentError{
			message: "AuthMethod and AuthFile must be provided together",
		}
	}
	return nil
}

// String renders the settings as a connection string with secrets redacted.
func (cs *ConnectionSettings) String() string {
	var b strings.Builder
	for _, s := range settings {
		v := s.get(cs)
		if v == "" {
			continue
		}
		if s.secret {
			v = "***"
		}
		fmt.Fprintf(&b, "%s=%s;", s.name, v)
	}
	return b.String()
}

// ConnectionProvider builds the connection provider for the settings.
func (cs *ConnectionSettings) ConnectionProvider() ConnectionProvider {
	var opts []TLSOption
	if cs.UseTLS {
		opts = cs.tlsOptions()
	}

	if cs.UseWebSocket {
		scheme := "ws"
		if cs.UseTLS {
			scheme = "wss"
		}
		return WebSocketConnection(
			fmt.Sprintf("%s://%s/mqtt", scheme, hostPort(cs.HostName, cs.TCPPort)),
			opts...,
		)
	}

	if cs.UseTLS {
		return TLSConnection(cs.HostName, cs.TCPPort, opts...)
	}
	return TCPConnection(cs.HostName, cs.TCPPort)
}

func (cs *ConnectionSettings) tlsOptions() []TLSOption {
	var opts []TLSOption

	// Local brokers are typically reached by a name that is not on their
	// certificate.
	if cs.HostName == "localhost" {
		opts = append(opts, WithInsecureSkipVerify())
	}

	if cs.CertFile != "" {
		if cs.KeyFilePassword != "" {
			password := []byte(cs.KeyFilePassword)
			opts = append(opts, func(_ context.Context, cfg *tls.Config) error {
				cert, err := loadX509KeyPairWithPassword(
					cs.CertFile,
					cs.KeyFile,
					password,
				)
				if err != nil {
					return err
				}
				cfg.Certificates = append(cfg.Certificates, cert)
				return nil
			})
		} else {
			opts = append(opts, WithX509(cs.CertFile, cs.KeyFile))
		}
	}

	if cs.CAFile != "" {
		opts = append(opts, WithCA(cs.CAFile))
	}
	return opts
}

// SessionClientOptions builds the session client options for the settings.
// The client ID defaults to the certificate's common name when a certificate
// is configured.
func (cs *ConnectionSettings) SessionClientOptions() (
	[]SessionClientOption,
	error,
) {
	clientID := cs.ClientID
	if clientID == "" && cs.CertFile != "" {
		cn, err := certCommonName(cs.CertFile)
		if err != nil {
			return nil, &InvalidArgumentError{
				message: "cannot read client certificate",
				wrapped: err,
			}
		}
		clientID = cn
	}

	opts := []SessionClientOption{
		WithClientID(clientID),
		WithKeepAlive(cs.KeepAlive),
		WithSessionExpiry(cs.SessionExpiry),
		WithCleanStart(cs.CleanSession),
	}

	if cs.Username != "" {
		opts = append(opts, WithUsername(ConstantUsername(cs.Username)))
	}
	switch {
	case cs.Password != "":
		opts = append(opts, WithPassword(ConstantPassword([]byte(cs.Password))))
	case cs.PasswordFile != "":
		opts = append(opts, WithPassword(FilePassword(cs.PasswordFile)))
	}

	if cs.AuthMethod != "" {
		provider, err := auth.NewTokenFile(cs.AuthMethod, cs.AuthFile)
		if err != nil {
			return nil, &InvalidArgumentError{
				message: "cannot set up the token file auth provider",
				wrapped: err,
			}
		}
		opts = append(opts, WithAuth(provider))
	}

	return opts, nil
}
