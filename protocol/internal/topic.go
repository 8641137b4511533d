// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package internal

import (
	"strings"

	"github.com/Azure-Samples/MqttApplicationSamples/protocol/errors"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol/internal/constants"
)

// ResolveTopic substitutes the client ID and command name into a topic
// pattern. Substitution is a plain global replace; values are not escaped, so
// a value containing "/" or a wildcard changes the topic hierarchy.
func ResolveTopic(pattern, clientID, commandName string) string {
	return strings.NewReplacer(
		constants.ClientIDToken, clientID,
		constants.CommandNameToken, commandName,
	).Replace(pattern)
}

// ResolveClientID substitutes only the client ID into a topic pattern, with
// the same lack of escaping as ResolveTopic.
func ResolveClientID(pattern, clientID string) string {
	return strings.ReplaceAll(pattern, constants.ClientIDToken, clientID)
}

// ValidatePattern performs the only validation applied to topic patterns: a
// pattern must not be empty.
func ValidatePattern(name, pattern string) error {
	if pattern == "" {
		return &errors.Error{
			Message:       "topic pattern must not be empty",
			Kind:          errors.ConfigurationInvalid,
			PropertyName:  name,
			PropertyValue: pattern,
		}
	}
	return nil
}

// TopicSegment returns the segment of the topic at the given index, or false
// if the topic has too few segments.
func TopicSegment(topic string, index int) (string, bool) {
	if index < 0 {
		return "", false
	}
	for i := 0; i < index; i++ {
		_, rest, ok := strings.Cut(topic, "/")
		if !ok {
			return "", false
		}
		topic = rest
	}
	segment, _, _ := strings.Cut(topic, "/")
	return segment, true
}

// ValidateShareName checks that a shared subscription name is a single
// non-wildcard topic level.
func ValidateShareName(shareName string) error {
	if strings.ContainsAny(shareName, "/+#") {
		return &errors.Error{
			Message:       "invalid share name",
			Kind:          errors.ConfigurationInvalid,
			PropertyName:  "ShareName",
			PropertyValue: shareName,
		}
	}
	return nil
}
