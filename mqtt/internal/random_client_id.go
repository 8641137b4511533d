// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package internal

import (
	"strings"

	"github.com/google/uuid"
)

// Servers are only required to accept client IDs of 1 to 23 alphanumeric
// characters:
// https://docs.oasis-open.org/mqtt/mqtt/v5.0/os/mqtt-v5.0-os.html#_Toc3901059
const maxClientIDLength = 23

// RandomClientID generates a random client ID that every server must accept.
func RandomClientID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return id[:maxClientIDLength]
}
