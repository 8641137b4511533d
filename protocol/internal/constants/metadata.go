// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package constants

// User property keys. These match the samples for other platforms, so they
// are not namespaced.
const (
	Status        = "status"
	StatusMessage = "statusMessage"
)

// Status values carried in the status user property.
const (
	StatusOK    = "200"
	StatusError = "500"
)

// Standard names for MQTT properties.
const (
	ContentType     = "Content Type"
	CorrelationData = "Correlation Data"
	ResponseTopic   = "Response Topic"
)

// Topic template tokens.
const (
	ClientIDToken    = "{clientId}"
	CommandNameToken = "{commandName}"
)
