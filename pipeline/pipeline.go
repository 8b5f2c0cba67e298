// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

// Package pipeline lets HTTP clients compose with a token provider instead
// of extending some base client type: any client that accepts an
// http.RoundTripper can have tokens attached to its outgoing requests by
// wrapping its transport in a [Transport].
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// TokenSource supplies access tokens for outbound requests.
// [*apptoken.Provider] implements it.
type TokenSource interface {
	// AccessToken returns a currently valid access token.
	AccessToken(ctx context.Context) (string, error)

	// TokenType returns the scheme the token should be presented with,
	// e.g. "Bearer". An empty result is treated as "Bearer".
	TokenType() string
}

// Transport is an http.RoundTripper that attaches an Authorization header
// to each request before delegating to a base transport.
type Transport struct {
	// Base is the underlying transport. If nil, http.DefaultTransport
	// is used.
	Base http.RoundTripper

	// Source provides the tokens to attach.
	Source TokenSource
}

// NewTransport wraps base so that every request carries a token obtained
// from source. A nil base means http.DefaultTransport.
func NewTransport(source TokenSource, base http.RoundTripper) *Transport {
	return &Transport{Base: base, Source: source}
}

// RoundTrip implements http.RoundTripper. The token is fetched with the
// request's context, so cancelling the request cancels an in-flight
// acquisition too. The given request is cloned, never modified.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Source == nil {
		return nil, errors.New("pipeline: no token source configured")
	}

	clone := req.Clone(req.Context())
	if err := PrepareRequest(req.Context(), t.Source, clone); err != nil {
		return nil, err
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}

// PrepareRequest modifies the given request in-place to carry an
// Authorization header with a token from source, for callers that manage
// their own transport.
func PrepareRequest(ctx context.Context, source TokenSource, req *http.Request) error {
	token, err := source.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to obtain access token: %w", err)
	}
	tokenType := source.TokenType()
	if tokenType == "" {
		tokenType = "Bearer"
	}
	if req.Header == nil {
		req.Header = http.Header{}
	}
	req.Header.Set("Authorization", tokenType+" "+token)
	return nil
}
