// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqtt

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv loads environment variables from the given .env files (or ".env"
// if none are given) without overriding variables that are already set. A
// missing file is not an error.
func LoadEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, f := range filenames {
		err := godotenv.Load(f)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return &InvalidArgumentError{
				message: "could not load " + f,
				wrapped: err,
			}
		}
	}
	return nil
}

// SettingsFromEnv parses connection settings from MQTT_ environment
// variables, named after each connection string key in screaming snake case
// (e.g. MQTT_HOST_NAME, MQTT_TCP_PORT, MQTT_USE_TLS, MQTT_CLIENT_ID,
// MQTT_KEEP_ALIVE_IN_SECONDS).
func SettingsFromEnv() (*ConnectionSettings, error) {
	cs := DefaultConnectionSettings()
	for _, s := range settings {
		for _, name := range s.envNames() {
			v, ok := os.LookupEnv(name)
			if !ok {
				continue
			}
			if err := cs.apply(s.name, v); err != nil {
				return nil, err
			}
			break
		}
	}
	if err := cs.Validate(); err != nil {
		return nil, err
	}
	return cs, nil
}

// NewSessionClientFromSettings constructs a session client from connection
// settings. Additional options override those derived from the settings.
func NewSessionClientFromSettings(
	cs *ConnectionSettings,
	opt ...SessionClientOption,
) (*SessionClient, error) {
	if err := cs.Validate(); err != nil {
		return nil, err
	}
	opts, err := cs.SessionClientOptions()
	if err != nil {
		return nil, err
	}
	return NewSessionClient(
		cs.ConnectionProvider(),
		append(opts, opt...)...,
	), nil
}

// NewSessionClientFromConnectionString is a shorthand for constructing a
// session client using ParseConnectionString.
func NewSessionClientFromConnectionString(
	connStr string,
	opt ...SessionClientOption,
) (*SessionClient, error) {
	cs, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, err
	}
	return NewSessionClientFromSettings(cs, opt...)
}

// NewSessionClientFromEnv is a shorthand for constructing a session client
// using LoadEnv and SettingsFromEnv.
func NewSessionClientFromEnv(
	opt ...SessionClientOption,
) (*SessionClient, error) {
	if err := LoadEnv(); err != nil {
		return nil, err
	}
	cs, err := SettingsFromEnv()
	if err != nil {
		return nil, err
	}
	return NewSessionClientFromSettings(cs, opt...)
}
