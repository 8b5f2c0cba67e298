// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package svctoken

import (
	"fmt"
	"net/url"
)

// Environment describes the fixed endpoints of a service environment that
// tokens are obtained from and scoped to.
//
// An Environment is supplied by the caller and treated as immutable. Both
// URL fields are required for any token provider to be constructed.
type Environment struct {
	// AuthenticationEndpoint is the base URL of the environment's
	// authorization server, ending wherever a tenant domain should be
	// appended to form an authority.
	AuthenticationEndpoint string

	// TokenAudience is the identifier of the resource that issued tokens
	// are scoped to.
	TokenAudience string

	// ValidateAuthority requests that derived authorities be checked
	// against the environment's instance discovery endpoint before use.
	ValidateAuthority bool
}

// AuthorityContext is the result of resolving a tenant domain against an
// [Environment]. It is created once at provider construction and is
// immutable afterward.
type AuthorityContext struct {
	// Domain is the comparison form of the tenant domain the authority
	// was resolved for.
	Domain Domain

	// Authority is the token-issuing endpoint for the tenant. It is the
	// literal concatenation of the environment's authentication endpoint
	// and the domain: authorization servers are sensitive to this exact
	// string, so no slash normalization is applied.
	Authority string

	// Audience is the environment's token audience.
	Audience string

	// ValidateAuthority is carried over from the environment.
	ValidateAuthority bool
}

// ResolveAuthority validates the given tenant domain and environment and
// derives the authority that tokens for that tenant are issued by.
//
// All validation failures are reported as a [*ConfigurationError] naming the
// first offending setting, checked in order: domain, authentication
// endpoint, token audience.
func ResolveAuthority(domain string, env Environment) (AuthorityContext, error) {
	if domain == "" {
		return AuthorityContext{}, &ConfigurationError{Setting: "domain"}
	}
	d, err := ForComparison(domain)
	if err != nil {
		return AuthorityContext{}, &ConfigurationError{Setting: "domain", Err: err}
	}
	if env.AuthenticationEndpoint == "" {
		return AuthorityContext{}, &ConfigurationError{Setting: "environment authentication endpoint"}
	}
	endpointURL, err := url.Parse(env.AuthenticationEndpoint)
	if err != nil {
		return AuthorityContext{}, &ConfigurationError{Setting: "environment authentication endpoint", Err: err}
	}
	if endpointURL.Scheme != "https" && endpointURL.Scheme != "http" {
		return AuthorityContext{}, &ConfigurationError{
			Setting: "environment authentication endpoint",
			Err:     fmt.Errorf("unsupported scheme %q", endpointURL.Scheme),
		}
	}
	if env.TokenAudience == "" {
		return AuthorityContext{}, &ConfigurationError{Setting: "environment token audience"}
	}

	return AuthorityContext{
		Domain:            d,
		Authority:         env.AuthenticationEndpoint + d.String(),
		Audience:          env.TokenAudience,
		ValidateAuthority: env.ValidateAuthority,
	}, nil
}
