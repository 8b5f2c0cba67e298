// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

// Package svctoken provides the core value types for obtaining access tokens
// for OpenTofu-native services using the OAuth2 client-credentials grant.
//
// The root package defines how a tenant domain and a service environment
// combine into a token "authority": the authorization-server endpoint that
// issues tokens for that tenant. The subdirectory packages build on these
// types: tokenauth holds credentials and the token cache, apptoken obtains
// and caches tokens, discovery validates authorities, and pipeline attaches
// tokens to outgoing HTTP requests.
//
// The API of this package is currently experimental and primarily intended
// for use in OpenTofu CLI itself, rather than external consumption. We may
// make breaking changes to the API before blessing this module with a stable
// version number, so third-party callers should be prepared to make
// adjustments if they choose to use this library before then.
package svctoken

import (
	"errors"
	"strings"

	"golang.org/x/net/idna"
)

// Domain represents a tenant domain in its "comparison form": lowercased
// and, for internationalized names, converted to punycode. Values of this
// type can be compared for equality directly.
//
// Obtain a Domain with [ForComparison]; the zero value is not valid.
type Domain string

// domainProfile is a very liberal IDNA profile, designed to avoid rejecting
// anything a registry might plausibly accept while still producing a single
// canonical form for comparison and cache keying.
var domainProfile = idna.New(
	idna.MapForLookup(),
	idna.Transitional(true),
	idna.StrictDomainName(false),
)

// displayProfile is the profile used for converting a comparison-form domain
// back into a form suitable for display in the UI.
var displayProfile = idna.New(
	idna.MapForLookup(),
	idna.Transitional(true),
)

// ForComparison takes a tenant domain as given by a user and produces its
// comparison form, or an error if the given string cannot serve as a domain.
//
// Ports, paths and schemes are not permitted: a domain names a tenant, not
// a network endpoint.
func ForComparison(given string) (Domain, error) {
	if strings.TrimSpace(given) == "" {
		return Domain(""), errors.New("empty string is not a valid domain")
	}
	if strings.ContainsAny(given, ":/?#@ ") {
		return Domain(""), errors.New("a domain may not contain a scheme, port, path, or spaces")
	}
	result, err := domainProfile.ToASCII(given)
	if err != nil {
		return Domain(""), err
	}
	if strings.HasPrefix(result, ".") || strings.HasSuffix(result, ".") {
		return Domain(""), errors.New("a domain may not begin or end with a period")
	}
	return Domain(result), nil
}

// ForDisplay returns a form of the domain suitable for display in the UI,
// with punycode labels converted back to their unicode form where possible.
func (d Domain) ForDisplay() string {
	result, err := displayProfile.ToUnicode(string(d))
	if err != nil {
		// A domain that came from ForComparison should never hit this, but
		// the comparison form is itself displayable if it somehow does.
		return string(d)
	}
	return result
}

// String returns the comparison form of the domain.
func (d Domain) String() string {
	return string(d)
}
