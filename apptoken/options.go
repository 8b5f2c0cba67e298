// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package apptoken

import (
	"net/http"
	"net/url"
	"time"

	"github.com/opentofu/svctoken/discovery"
	"github.com/opentofu/svctoken/tokenauth"
)

type Option interface {
	applyOption(p *Provider)
}

type option func(p *Provider)

func (o option) applyOption(p *Provider) {
	o(p)
}

// WithHTTPClient sets the HTTP client used for token acquisition requests.
func WithHTTPClient(client *http.Client) Option {
	return option(func(p *Provider) {
		p.httpClient = client
	})
}

// WithCache injects the token cache the provider consults and updates.
// Passing the same cache to several providers shares it by reference.
func WithCache(cache tokenauth.Cache) Option {
	return option(func(p *Provider) {
		p.cache = cache
	})
}

// WithExpiryLeeway makes the provider treat tokens as expired once they are
// within d of their expiry, to compensate for clock skew against the
// authorization server. The default is zero: a strict comparison.
func WithExpiryLeeway(d time.Duration) Option {
	return option(func(p *Provider) {
		p.leeway = d
	})
}

// WithTokenPath overrides the path appended to the authority to form the
// token endpoint. The default is "/oauth2/token".
func WithTokenPath(path string) Option {
	return option(func(p *Provider) {
		p.tokenPath = path
	})
}

// WithEndpointParams adds extra parameters to the token request, or
// overrides the default ones. A server that expects the audience under the
// "resource" key, say, can be accommodated this way.
func WithEndpointParams(params url.Values) Option {
	return option(func(p *Provider) {
		p.extraParams = params
	})
}

// WithDiscovery sets the validator used when the environment requests
// authority validation, allowing its cache to be shared across providers.
func WithDiscovery(d *discovery.Discovery) Option {
	return option(func(p *Provider) {
		p.disco = d
	})
}

// WithClock overrides the provider's time source. For testing.
func WithClock(now func() time.Time) Option {
	return option(func(p *Provider) {
		p.now = now
	})
}
