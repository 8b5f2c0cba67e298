// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package apptoken

import (
	"context"

	svctoken "github.com/opentofu/svctoken"
)

// TokenTrace allows a caller of [Provider.AccessToken] to be notified about
// potentially-interesting events during token acquisition, in case they
// want to generate log messages, telemetry traces, or similar.
//
// Use [ContextWithTokenTrace] to derive a [context.Context] containing an
// instance of this type, and use that context when calling
// [Provider.AccessToken] or [Provider.Validate].
//
// All of the function-typed fields may either be left as nil or set to a
// function with the specified signature, unless otherwise stated. If nil
// then the call for the corresponding event will be skipped.
//
// "Start" functions return their own [context.Context] that should be
// either exactly the context given or a child of that context. This can
// be used to track per-request values such as distributed tracing spans.
type TokenTrace struct {
	// AcquireStart is called when a token acquisition round-trip is about
	// to begin for the given tenant domain.
	//
	// This should return a [context.Context] to be used for the token
	// request, and it will then be passed as the context to either
	// AcquireSuccess or AcquireFailure once the request is complete to
	// allow terminating distributed tracing spans, etc.
	AcquireStart func(ctx context.Context, domain svctoken.Domain) context.Context

	// AcquireSuccess is called after an acquisition round-trip is complete
	// if a validated token was obtained and stored.
	//
	// The given context has the same values as the one returned by the
	// earlier call to AcquireStart.
	AcquireSuccess func(ctx context.Context, domain svctoken.Domain)

	// AcquireFailure is called after an acquisition round-trip is complete
	// if the request or its validation failed.
	//
	// The given context has the same values as the one returned by the
	// earlier call to AcquireStart.
	AcquireFailure func(ctx context.Context, domain svctoken.Domain, err error)

	// CacheHit is called instead of AcquireStart and its completion
	// callbacks if a request for a token is served from the cache rather
	// than by an acquisition round-trip.
	CacheHit func(ctx context.Context, domain svctoken.Domain)
}

func ContextWithTokenTrace(parent context.Context, trace *TokenTrace) context.Context {
	return context.WithValue(parent, tokenTraceKey, trace)
}

func (t *TokenTrace) acquireStart(ctx context.Context, domain svctoken.Domain) context.Context {
	if t.AcquireStart == nil {
		return ctx
	}
	return t.AcquireStart(ctx, domain)
}

func (t *TokenTrace) acquireSuccess(ctx context.Context, domain svctoken.Domain) {
	if t.AcquireSuccess == nil {
		return
	}
	t.AcquireSuccess(ctx, domain)
}

func (t *TokenTrace) acquireFailure(ctx context.Context, domain svctoken.Domain, err error) {
	if t.AcquireFailure == nil {
		return
	}
	t.AcquireFailure(ctx, domain, err)
}

func (t *TokenTrace) cacheHit(ctx context.Context, domain svctoken.Domain) {
	if t.CacheHit == nil {
		return
	}
	t.CacheHit(ctx, domain)
}

func tokenTraceFromContext(ctx context.Context) *TokenTrace {
	trace, ok := ctx.Value(tokenTraceKey).(*TokenTrace)
	if !ok {
		trace = noTrace
	}
	return trace
}

type tokenTraceKeyType string

const tokenTraceKey = tokenTraceKeyType("")

var noTrace = &TokenTrace{}
