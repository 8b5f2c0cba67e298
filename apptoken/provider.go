// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

// Package apptoken obtains and caches access tokens for applications
// authenticating with the OAuth2 client-credentials grant.
//
// A [Provider] is created for one (domain, client, environment)
// configuration and serves tokens for it for as long as the owning client
// lives. Construction is two-phase: [New] validates the configuration and
// resolves the token authority without touching the network, and
// [Provider.Validate] performs the first acquisition so that a bad
// credential is reported immediately rather than on first use.
// [NewValidated] composes the two for callers that want the single-call
// fail-fast behavior.
package apptoken

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	cleanhttp "github.com/hashicorp/go-cleanhttp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"

	svctoken "github.com/opentofu/svctoken"
	"github.com/opentofu/svctoken/discovery"
	"github.com/opentofu/svctoken/internal/jwtexpiry"
	"github.com/opentofu/svctoken/tokenauth"
)

// defaultTokenPath is appended to the authority to form the token endpoint,
// unless overridden with [WithTokenPath].
const defaultTokenPath = "/oauth2/token"

// Provider obtains access tokens for a single client configuration,
// consulting a shared token cache before going to the network.
//
// Provider is safe for concurrent use. The credential and resolved
// authority are immutable after construction; the injected cache is the
// only shared mutable state.
type Provider struct {
	authority svctoken.AuthorityContext
	env       svctoken.Environment
	cred      tokenauth.Credential

	cache      tokenauth.Cache
	httpClient *http.Client
	disco      *discovery.Discovery
	conf       *clientcredentials.Config

	tokenPath   string
	extraParams url.Values
	leeway      time.Duration
	now         func() time.Time

	mu        sync.Mutex // guards tokenType
	tokenType string

	flight singleflight.Group
}

// New validates the given configuration and resolves the token authority,
// without performing any network requests.
//
// Validation failures are reported as [*svctoken.ConfigurationError],
// checked in order: client secret, client id, then domain and environment.
//
// Use [WithCache] to share a token cache between providers; if none is
// given the provider gets a private [tokenauth.MemoryCache]. Use
// [WithHTTPClient] to control the transport used for acquisitions.
func New(domain, clientID, secret string, env svctoken.Environment, opts ...Option) (*Provider, error) {
	cred, err := tokenauth.NewCredential(clientID, tokenauth.NewSecret(secret))
	if err != nil {
		return nil, err
	}
	authority, err := svctoken.ResolveAuthority(domain, env)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		authority: authority,
		env:       env,
		cred:      cred,
		tokenPath: defaultTokenPath,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt.applyOption(p)
	}
	if p.cache == nil {
		p.cache = tokenauth.NewMemoryCache()
	}
	if p.httpClient == nil {
		p.httpClient = cleanhttp.DefaultPooledClient()
	}
	if p.authority.ValidateAuthority && p.disco == nil {
		p.disco = discovery.New(discovery.WithHTTPClient(p.httpClient))
	}

	params := url.Values{}
	params.Set("audience", p.authority.Audience)
	for k, vs := range p.extraParams {
		params[k] = vs
	}
	p.conf = &clientcredentials.Config{
		ClientID:       cred.ClientID(),
		ClientSecret:   cred.Secret().Value(),
		TokenURL:       p.authority.Authority + p.tokenPath,
		EndpointParams: params,
		AuthStyle:      oauth2.AuthStyleInParams,
	}

	return p, nil
}

// NewValidated constructs a provider and immediately performs the first
// acquisition, so that a provider is never returned in an unusable state.
// If the acquisition fails, the error is returned and no provider is.
func NewValidated(ctx context.Context, domain, clientID, secret string, env svctoken.Environment, opts ...Option) (*Provider, error) {
	p, err := New(domain, clientID, secret, env, opts...)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate proves that the configured credential can obtain a token,
// performing one acquisition and storing the result in the cache. When the
// environment requests authority validation, the authority is checked
// against the instance discovery endpoint first.
//
// A failed Validate leaves the provider intact; a later call may succeed.
func (p *Provider) Validate(ctx context.Context) error {
	if p.authority.ValidateAuthority {
		if _, err := p.disco.Validate(ctx, p.authority.Authority, p.env); err != nil {
			return err
		}
	}
	_, err := p.acquire(ctx)
	return err
}

// Authority returns the resolved authority context the provider acquires
// tokens from.
func (p *Provider) Authority() svctoken.AuthorityContext {
	return p.authority
}

// ClientID returns the client identifier the provider authenticates as.
func (p *Provider) ClientID() string {
	return p.cred.ClientID()
}

// TokenType returns the token type reported by the most recent successful
// acquisition, e.g. "Bearer". It is empty until one has completed, which
// cannot be observed through [NewValidated].
func (p *Provider) TokenType() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tokenType
}

// AccessToken returns a valid access token for the provider's audience.
//
// The shared cache is consulted first; a usable cached token is returned
// without any network activity. Otherwise one client-credentials round-trip
// is made against the token endpoint, its result validated and stored, and
// the new token returned. Failures are surfaced to the caller without
// internal retry; retrying belongs to the caller's request pipeline.
//
// Cancelling ctx while the round-trip is in flight aborts it, surfaces the
// context error, and leaves the cache untouched.
func (p *Provider) AccessToken(ctx context.Context) (string, error) {
	cached, err := p.cache.Lookup(ctx, p.cacheKey())
	if err != nil {
		return "", fmt.Errorf("token cache lookup failed: %w", err)
	}
	// Caller-supplied caches are trusted to drop expired entries, but the
	// re-check costs nothing and keeps the contract even when they don't.
	if cached != nil && !cached.Expired(p.now(), p.leeway) {
		tokenTraceFromContext(ctx).cacheHit(ctx, p.authority.Domain)
		return cached.AccessToken, nil
	}

	token, err := p.acquire(ctx)
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

func (p *Provider) cacheKey() tokenauth.CacheKey {
	return tokenauth.CacheKey{
		Authority: p.authority.Authority,
		ClientID:  p.cred.ClientID(),
		Audience:  p.authority.Audience,
	}
}

// acquire performs one network round-trip to the token endpoint and stores
// the validated result. Concurrent callers for the same cache key share a
// single in-flight request; the request runs on the initiating caller's
// context, so overlapping acquisitions are deduplicated but a lone caller's
// cancellation still aborts the round-trip.
func (p *Provider) acquire(ctx context.Context) (*tokenauth.CachedToken, error) {
	key := p.cacheKey()
	trace := tokenTraceFromContext(ctx)

	result, err, _ := p.flight.Do(flightKey(key), func() (any, error) {
		reqCtx := trace.acquireStart(ctx, p.authority.Domain)
		token, err := p.requestToken(reqCtx)
		if err != nil {
			trace.acquireFailure(reqCtx, p.authority.Domain, err)
			return nil, err
		}
		if err := p.cache.Store(reqCtx, key, token); err != nil {
			err = fmt.Errorf("token cache store failed: %w", err)
			trace.acquireFailure(reqCtx, p.authority.Domain, err)
			return nil, err
		}
		trace.acquireSuccess(reqCtx, p.authority.Domain)
		return token, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*tokenauth.CachedToken), nil
}

func flightKey(key tokenauth.CacheKey) string {
	return key.Authority + "\x00" + key.ClientID + "\x00" + key.Audience
}

// requestToken executes the client-credentials grant and validates the
// raw result.
func (p *Provider) requestToken(ctx context.Context) (*tokenauth.CachedToken, error) {
	// clientcredentials reads its HTTP client from the context.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	token, err := p.conf.Token(ctx)
	if err != nil {
		return nil, p.classifyTokenError(ctx, err)
	}
	return p.validateResult(token)
}

// classifyTokenError sorts acquisition failures into the error taxonomy:
// context errors surface as themselves, responses the server did send but
// that carry no usable token become an [*AuthenticationError], and
// transport failures pass through unmodified.
func (p *Provider) classifyTokenError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return &AuthenticationError{ClientID: p.cred.ClientID(), err: err}
	}
	// The oauth2 package reports a 2xx response without an access token as
	// an untyped error, so matching on the message is the only option.
	if strings.Contains(err.Error(), "missing access_token") {
		return &AuthenticationError{ClientID: p.cred.ClientID()}
	}

	return err
}

// validateResult accepts a raw authentication result only if it is non-nil
// and carries an access token, and records the token type for later use.
func (p *Provider) validateResult(token *oauth2.Token) (*tokenauth.CachedToken, error) {
	if token == nil || token.AccessToken == "" {
		return nil, &AuthenticationError{ClientID: p.cred.ClientID()}
	}

	expiresAt := token.Expiry
	if expiresAt.IsZero() {
		// No expires_in from the server; a JWT access token may still
		// carry its own expiry.
		if exp, ok := jwtexpiry.FromToken(token.AccessToken); ok {
			expiresAt = exp
		}
	}

	p.mu.Lock()
	p.tokenType = token.Type()
	p.mu.Unlock()

	return &tokenauth.CachedToken{
		AccessToken: token.AccessToken,
		TokenType:   token.Type(),
		ExpiresAt:   expiresAt,
	}, nil
}
