// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package tokenauth

import "strings"

// Secret wraps a sensitive credential value to prevent accidental logging.
//
// All of the printing and marshaling entry points return a redaction marker
// instead of the wrapped value; only [Secret.Value] returns the real secret,
// and it should be called only at the point where the secret is actually
// sent to an authorization server.
type Secret struct {
	value string
}

const redactionMarker = "[REDACTED]"

// NewSecret wraps the given value. The value cannot be changed afterwards.
func NewSecret(value string) Secret {
	return Secret{value: value}
}

// Value returns the wrapped secret. Never log the result of this method.
func (s Secret) Value() string {
	return s.value
}

// IsZero reports whether the secret is absent. A value consisting only of
// whitespace counts as absent, since no authorization server would accept it.
func (s Secret) IsZero() bool {
	return strings.TrimSpace(s.value) == ""
}

// String implements fmt.Stringer, returning a redaction marker so that the
// secret cannot leak through ordinary formatting.
func (s Secret) String() string {
	return redactionMarker
}

// GoString implements fmt.GoStringer for %#v formatting.
func (s Secret) GoString() string {
	return "tokenauth.Secret{" + redactionMarker + "}"
}

// MarshalText implements encoding.TextMarshaler, returning the redaction
// marker rather than the secret.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(redactionMarker), nil
}

// MarshalJSON implements json.Marshaler, returning the redaction marker
// rather than the secret.
func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redactionMarker + `"`), nil
}
