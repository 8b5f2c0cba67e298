// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package apptoken

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	svctoken "github.com/opentofu/svctoken"
)

func TestTokenTrace(t *testing.T) {
	type TraceEvent struct {
		Event      string
		Domain     string
		Err        string
		CorrectCtx bool
	}
	type ctxKey string
	var gotEvents []TraceEvent

	isDerivedCtx := func(ctx context.Context) bool {
		return ctx.Value(ctxKey("derivedInAcquireStart")) != nil
	}

	ctx := ContextWithTokenTrace(context.Background(), &TokenTrace{
		AcquireStart: func(ctx context.Context, domain svctoken.Domain) context.Context {
			gotEvents = append(gotEvents, TraceEvent{
				Event:      "AcquireStart",
				Domain:     domain.ForDisplay(),
				CorrectCtx: true,
			})
			return context.WithValue(ctx, ctxKey("derivedInAcquireStart"), true)
		},
		AcquireSuccess: func(ctx context.Context, domain svctoken.Domain) {
			gotEvents = append(gotEvents, TraceEvent{
				Event:      "AcquireSuccess",
				Domain:     domain.ForDisplay(),
				CorrectCtx: isDerivedCtx(ctx),
			})
		},
		AcquireFailure: func(ctx context.Context, domain svctoken.Domain, err error) {
			gotEvents = append(gotEvents, TraceEvent{
				Event:      "AcquireFailure",
				Domain:     domain.ForDisplay(),
				Err:        err.Error(),
				CorrectCtx: isDerivedCtx(ctx),
			})
		},
		CacheHit: func(_ context.Context, domain svctoken.Domain) {
			gotEvents = append(gotEvents, TraceEvent{
				Event:      "CacheHit",
				Domain:     domain.ForDisplay(),
				CorrectCtx: true,
			})
		},
	})

	var fail atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if fail.Load() {
			_, _ = w.Write([]byte(`{"token_type":"Bearer"}`))
			return
		}
		writeTokenResponse(w, "tok1", 3600)
	}))
	defer server.Close()

	provider, err := New("contoso.com", "abc", "s3cr3t", testEnv(server.URL))
	if err != nil {
		t.Fatalf("unexpected construction error: %s", err)
	}

	// Cold call: a full acquisition round-trip.
	if _, err := provider.AccessToken(ctx); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	// Warm call: served from the cache.
	if _, err := provider.AccessToken(ctx); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	// Failed acquisition on a separate provider with an empty cache.
	fail.Store(true)
	failing, err := New("contoso.com", "xyz", "s3cr3t", testEnv(server.URL))
	if err != nil {
		t.Fatalf("unexpected construction error: %s", err)
	}
	if _, err := failing.AccessToken(ctx); err == nil {
		t.Fatal("acquisition succeeded; want error")
	}

	wantEvents := []TraceEvent{
		{
			Event:      "AcquireStart",
			Domain:     "contoso.com",
			CorrectCtx: true,
		},
		{
			Event:      "AcquireSuccess",
			Domain:     "contoso.com",
			CorrectCtx: true,
		},
		{
			Event:      "CacheHit",
			Domain:     "contoso.com",
			CorrectCtx: true,
		},
		{
			Event:      "AcquireStart",
			Domain:     "contoso.com",
			CorrectCtx: true,
		},
		{
			Event:      "AcquireFailure",
			Domain:     "contoso.com",
			Err:        `authentication failed for client "xyz": authorization server returned no access token`,
			CorrectCtx: true,
		},
	}
	if diff := cmp.Diff(wantEvents, gotEvents); diff != "" {
		t.Errorf("wrong trace events\n%s", diff)
	}

	for _, event := range gotEvents {
		if strings.Contains(event.Err, "s3cr3t") {
			t.Errorf("trace event leaks the client secret: %+v", event)
		}
	}
}
