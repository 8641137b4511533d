// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqtt

import (
	"bytes"
	"context"
	"os"
)

type (
	// UsernameProvider returns the MQTT username for a new connection. If the
	// returned flag is false, no username is sent.
	UsernameProvider func(context.Context) (string, bool, error)

	// PasswordProvider returns the MQTT password for a new connection. If the
	// returned flag is false, no password is sent.
	PasswordProvider func(context.Context) ([]byte, bool, error)
)

// ConstantUsername is a UsernameProvider that returns an unchanging username.
func ConstantUsername(username string) UsernameProvider {
	return func(context.Context) (string, bool, error) {
		return username, true, nil
	}
}

// ConstantPassword is a PasswordProvider that returns an unchanging password.
func ConstantPassword(password []byte) PasswordProvider {
	return func(context.Context) ([]byte, bool, error) {
		return password, true, nil
	}
}

// FilePassword is a PasswordProvider that rereads the password from a file for
// each connection, so rotated credentials are picked up on reconnect. A
// trailing line break is not part of the password.
func FilePassword(filename string) PasswordProvider {
	return func(context.Context) ([]byte, bool, error) {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, false, err
		}
		return bytes.TrimRight(data, "\r\n"), true, nil
	}
}
