// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package tokenauth

import (
	"strings"

	"github.com/opentofu/svctoken"
)

// Credential is an immutable pairing of a client identifier and its secret,
// used to authenticate an application against an authorization server with
// the client-credentials grant.
//
// A Credential is constructed once with [NewCredential] and never mutated.
// The secret is reachable only through the redacting [Secret] wrapper.
type Credential struct {
	clientID string
	secret   Secret
}

// NewCredential validates and constructs a credential.
//
// The secret is checked before the client identifier, so that a missing
// secret is always the first problem reported. Both checks fail with a
// [*svctoken.ConfigurationError].
func NewCredential(clientID string, secret Secret) (Credential, error) {
	if secret.IsZero() {
		return Credential{}, &svctoken.ConfigurationError{Setting: "client secret"}
	}
	if strings.TrimSpace(clientID) == "" {
		return Credential{}, &svctoken.ConfigurationError{Setting: "client id"}
	}
	return Credential{clientID: clientID, secret: secret}, nil
}

// ClientID returns the client identifier. Unlike the secret, the client
// identifier is not sensitive and may appear in error messages.
func (c Credential) ClientID() string {
	return c.clientID
}

// Secret returns the redacting wrapper around the client secret.
func (c Credential) Secret() Secret {
	return c.secret
}
