// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package errors

import "log/slog"

// Attrs exposes the structured error fields to slog.
func (e *Error) Attrs() []slog.Attr {
	a := make([]slog.Attr, 0, 8)

	a = append(a, slog.String("kind", e.Kind.String()))

	if e.IsRemote {
		a = append(a, slog.Bool("is_remote", e.IsRemote))
	}
	if e.InApplication {
		a = append(a, slog.Bool("in_application", e.InApplication))
	}
	if e.HTTPStatusCode != 0 {
		a = append(a, slog.Int("http_status_code", e.HTTPStatusCode))
	}
	if e.NestedError != nil {
		a = append(a, slog.String("nested_error", e.NestedError.Error()))
	}

	switch e.Kind {
	case HeaderMissing:
		a = append(a, slog.String("header_name", e.HeaderName))
	case HeaderInvalid, CorrelationMismatch:
		a = append(a,
			slog.String("header_name", e.HeaderName),
			slog.String("header_value", e.HeaderValue),
		)
	case Timeout:
		a = append(a,
			slog.String("timeout_name", e.TimeoutName),
			slog.Duration("timeout_value", e.TimeoutValue),
		)
	case ConfigurationInvalid, ArgumentInvalid, StateInvalid:
		a = append(a, slog.String("property_name", e.PropertyName))
		if e.PropertyValue != nil {
			a = append(a, slog.Any("property_value", e.PropertyValue))
		}
	}

	return a
}
