// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package internal

import (
	"strings"

	"github.com/eclipse/paho.golang/paho"
)

// UserPropertiesToMap converts received user properties to a map. Later
// duplicates of a key win.
func UserPropertiesToMap(ups paho.UserProperties) map[string]string {
	m := make(map[string]string, len(ups))
	for _, prop := range ups {
		m[prop.Key] = prop.Value
	}
	return m
}

// MapToUserProperties converts a map to user properties to send, dropping
// characters MQTT does not allow in strings.
func MapToUserProperties(m map[string]string) paho.UserProperties {
	ups := make(paho.UserProperties, 0, len(m))
	for key, value := range m {
		ups = append(ups, paho.UserProperty{
			Key:   SanitizeString(key),
			Value: SanitizeString(value),
		})
	}
	return ups
}

// SanitizeString removes the code points MQTT v5 disallows in UTF-8 strings:
// control characters and Unicode non-characters.
func SanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r <= 0x1F,
			r >= 0x7F && r <= 0x9F,
			r >= 0xFDD0 && r <= 0xFDEF,
			r == 0xFFFE, r == 0xFFFF:
			return -1
		default:
			return r
		}
	}, s)
}
