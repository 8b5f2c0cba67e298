// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package apptoken

import "fmt"

// AuthenticationError indicates that the authorization server did not
// return a usable access token for the given client: either it rejected
// the credential outright or its response carried no token.
//
// The error carries the client identifier for diagnostics. The client
// secret is never included.
type AuthenticationError struct {
	ClientID string

	err error
}

// Error returns a customized error message.
func (e *AuthenticationError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("authentication failed for client %q: %s", e.ClientID, e.err)
	}
	return fmt.Sprintf("authentication failed for client %q: authorization server returned no access token", e.ClientID)
}

// Unwrap returns the authorization server's response error, if there
// was one.
//
// This is intended for use with the standard library errors package, and its
// "Is", "As", and "Unwrap" functions.
func (e *AuthenticationError) Unwrap() error {
	return e.err
}
