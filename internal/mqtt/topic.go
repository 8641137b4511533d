// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqtt

import "strings"

const sharePrefix = "$share/"

// IsTopicFilterMatch reports whether a topic name matches a topic filter. A
// shared subscription filter matches on the filter following its share name.
// Topics beginning with '$' are never matched by a leading wildcard.
func IsTopicFilterMatch(topicFilter, topicName string) bool {
	if rest, ok := strings.CutPrefix(topicFilter, sharePrefix); ok {
		_, filter, found := strings.Cut(rest, "/")
		if !found {
			return false
		}
		topicFilter = filter
	}

	if strings.HasPrefix(topicName, "$") &&
		(strings.HasPrefix(topicFilter, "+") ||
			strings.HasPrefix(topicFilter, "#")) {
		return false
	}

	filters := strings.Split(topicFilter, "/")
	names := strings.Split(topicName, "/")

	for i, level := range filters {
		switch {
		case level == "#":
			// Matches the parent level too, but only as the last level.
			return i == len(filters)-1
		case i >= len(names):
			return false
		case level == "+":
		case level != names[i]:
			return false
		}
	}
	return len(filters) == len(names)
}

// ShareFilter applies a share name to a topic filter, if one is provided.
func ShareFilter(shareName, topicFilter string) string {
	if shareName == "" {
		return topicFilter
	}
	return sharePrefix + shareName + "/" + topicFilter
}
