// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package svctoken

import "fmt"

// ConfigurationError indicates that a token provider cannot be constructed
// because a required configuration setting is missing or invalid. It is
// never worth retrying: the caller must fix the configuration.
type ConfigurationError struct {
	// Setting names the offending configuration setting.
	Setting string

	// Err optionally describes what is wrong with the setting's value.
	// When nil, the setting was missing or empty.
	Err error
}

// Error returns a customized error message.
func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid value for %s: %s", e.Setting, e.Err)
	}
	return fmt.Sprintf("%s must not be empty", e.Setting)
}

// Unwrap returns the underlying problem with the setting's value, if any.
//
// This is intended for use with the standard library errors package, and its
// "Is", "As", and "Unwrap" functions.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
