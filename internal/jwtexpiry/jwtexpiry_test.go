// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package jwtexpiry

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestFromToken(t *testing.T) {
	expiresAt := time.Now().Add(time.Hour).Truncate(time.Second)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": expiresAt.Unix(),
	}).SignedString([]byte("test-signing-key"))
	if err != nil {
		t.Fatalf("failed to build test JWT: %s", err)
	}

	got, ok := FromToken(signed)
	if !ok {
		t.Fatal("no expiry found; want one")
	}
	if !got.Equal(expiresAt) {
		t.Errorf("wrong expiry %s; want %s", got, expiresAt)
	}
}

func TestFromTokenNoExpiry(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "abc",
	}).SignedString([]byte("test-signing-key"))
	if err != nil {
		t.Fatalf("failed to build test JWT: %s", err)
	}

	if _, ok := FromToken(signed); ok {
		t.Error("found an expiry in a token without one")
	}
}

func TestFromTokenNotAJWT(t *testing.T) {
	for _, raw := range []string{"", "opaque-token", "a.b", "a.b.c"} {
		if _, ok := FromToken(raw); ok {
			t.Errorf("found an expiry in %q", raw)
		}
	}
}
