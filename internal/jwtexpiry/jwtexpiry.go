// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

// Package jwtexpiry extracts the expiration time from JWT-shaped access
// tokens, for authorization servers that omit expires_in from their token
// responses.
package jwtexpiry

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// FromToken returns the "exp" claim of raw, if raw parses as a JWT and
// carries one. The signature is deliberately not verified: the token was
// just issued to us directly and only the expiry hint is of interest here.
//
// Tokens that are not JWTs, or that carry no expiry, simply report false.
func FromToken(raw string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
