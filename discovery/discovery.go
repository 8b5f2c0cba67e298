// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

// Package discovery validates token authorities against the instance
// discovery document published by a service environment.
//
// Authorization servers for multi-instance environments publish a small
// document describing which authorities they recognize. When an
// [svctoken.Environment] has ValidateAuthority set, the apptoken package
// uses this package to confirm that a derived authority is trusted before
// sending a credential to it.
package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"sync"
	"time"

	cleanhttp "github.com/hashicorp/go-cleanhttp"
	version "github.com/hashicorp/go-version"

	svctoken "github.com/opentofu/svctoken"
)

const (
	// Fixed path to the instance discovery document, relative to the
	// environment's authentication endpoint.
	instancePath = "common/discovery/instance"

	// The discovery protocol version this package speaks.
	requestAPIVersion = "1.1"

	// Arbitrary-but-small number to prevent runaway redirect loops. This
	// is used only when the caller doesn't provide their own HTTP client.
	maxRedirects = 3

	// Arbitrary-but-small time limit to prevent UI "hangs" during
	// validation. This is used only when the caller doesn't provide their
	// own HTTP client.
	discoveryTimeout = 11 * time.Second

	// 1MB - to prevent abusive services from using loads of our memory.
	maxInstanceDocBytes = 1 * 1024 * 1024
)

// supportedAPIVersions constrains the document versions this package is
// able to interpret.
var supportedAPIVersions = version.MustConstraints(version.NewConstraint(">= 1.0, < 2.0"))

// Discovery validates authorities against their environment's instance
// discovery endpoint and caches the results by authority to avoid repeated
// requests for the same information.
type Discovery struct {
	// must lock "mu" while interacting with this map
	cache map[string]*Instance
	mu    sync.Mutex

	httpClient *http.Client
}

// Instance describes one validated authority, as reported by the instance
// discovery endpoint.
type Instance struct {
	// TenantDiscoveryEndpoint is the tenant-specific metadata document for
	// the validated authority, when the environment publishes one.
	TenantDiscoveryEndpoint string `json:"tenant_discovery_endpoint"`

	// APIVersions lists the discovery protocol versions the environment
	// supports. An empty list means the environment predates versioned
	// discovery and is accepted as version 1.0.
	APIVersions []string `json:"api_versions"`
}

// ErrAuthorityNotTrusted indicates that the instance discovery endpoint
// refused to vouch for the authority, so no credential should be sent to it.
type ErrAuthorityNotTrusted struct {
	Authority string
}

// Error returns a customized error message.
func (e *ErrAuthorityNotTrusted) Error() string {
	return fmt.Sprintf("authority %s is not trusted by the environment's instance discovery endpoint", e.Authority)
}

// ErrUnsupportedAPIVersion indicates that the environment publishes its
// discovery document only in protocol versions this package cannot
// interpret.
type ErrUnsupportedAPIVersion struct {
	Versions []string
}

// Error returns a customized error message.
func (e *ErrUnsupportedAPIVersion) Error() string {
	return fmt.Sprintf("instance discovery document supports api versions %v, but this client requires %s", e.Versions, supportedAPIVersions)
}

// ErrDiscoveryNetworkRequest represents the error that occurs when instance
// discovery fails for an unknown network problem.
type ErrDiscoveryNetworkRequest struct {
	err error
}

func (e ErrDiscoveryNetworkRequest) Error() string {
	return fmt.Errorf("failed to request instance discovery document: %w", e.err).Error()
}

// Unwrap returns another [error] value representing the underlying problem.
//
// This is intended for use with the standard library errors package, and its
// "Is", "As", and "Unwrap" functions.
func (e ErrDiscoveryNetworkRequest) Unwrap() error {
	return e.err
}

// New returns a new validator initialized with the given options.
//
// Use [WithHTTPClient] to specify an HTTP client to use when making
// discovery requests. If no client is provided then one will be created
// automatically, but the details of its behavior are subject to change in
// future versions.
func New(options ...Option) *Discovery {
	ret := &Discovery{
		cache: make(map[string]*Instance),
	}
	for _, opt := range options {
		opt.applyOption(ret)
	}

	if ret.httpClient == nil {
		client := cleanhttp.DefaultPooledClient()
		client.Timeout = discoveryTimeout
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return errors.New("too many redirects") // this error will never actually be seen
			}
			return nil
		}
		ret.httpClient = client
	}

	return ret
}

// Validate checks the given authority against the environment's instance
// discovery endpoint, returning its instance metadata if the environment
// trusts it. Successful validations are cached by authority; failed ones
// are not, so the caller may retry the failing operation.
func (d *Discovery) Validate(ctx context.Context, authority string, env svctoken.Environment) (*Instance, error) {
	d.mu.Lock()
	if instance, cached := d.cache[authority]; cached {
		d.mu.Unlock()
		return instance, nil
	}
	d.mu.Unlock()

	instance, err := d.validate(ctx, authority, env)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.cache[authority] = instance
	d.mu.Unlock()

	return instance, nil
}

// validate implements the actual discovery request, with its result cached
// by the public-facing Validate method.
//
// This must be called _without_ d.mu locked. d.mu is there only to protect
// the integrity of the cache map, and not to prevent multiple concurrent
// validation requests for the same authority.
func (d *Discovery) validate(ctx context.Context, authority string, env svctoken.Environment) (*Instance, error) {
	// The discovery endpoint hangs off the same authentication endpoint the
	// authority was derived from, so the same literal concatenation applies.
	requestURL, err := url.Parse(env.AuthenticationEndpoint + instancePath)
	if err != nil {
		return nil, fmt.Errorf("invalid instance discovery URL: %w", err)
	}
	query := requestURL.Query()
	query.Set("authorization_endpoint", authority)
	query.Set("api-version", requestAPIVersion)
	requestURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", requestURL.String(), nil)
	if err != nil {
		// Should not get in here because everything about the request args is under our control.
		return nil, fmt.Errorf("invalid instance discovery request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, ErrDiscoveryNetworkRequest{err}
	}
	defer resp.Body.Close()

	// The discovery endpoint answers 400 for authorities it does not
	// recognize, as opposed to e.g. 404 for a misconfigured endpoint.
	if resp.StatusCode == http.StatusBadRequest {
		return nil, &ErrAuthorityNotTrusted{Authority: authority}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to request instance discovery document: %s", resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("instance discovery URL has a malformed Content-Type %q", contentType)
	}
	if mediaType != "application/json" {
		return nil, fmt.Errorf("instance discovery URL returned an unsupported Content-Type %q", mediaType)
	}

	// This doesn't catch chunked encoding, because ContentLength is -1 in that case.
	if resp.ContentLength > maxInstanceDocBytes {
		return nil, fmt.Errorf(
			"instance discovery response is too large (got %d bytes; limit %d)",
			resp.ContentLength, maxInstanceDocBytes,
		)
	}

	// If the response is using chunked encoding then we can't predict its
	// size, but we'll at least prevent reading the entire thing into memory.
	lr := io.LimitReader(resp.Body, maxInstanceDocBytes)

	body, err := io.ReadAll(lr)
	if err != nil {
		return nil, fmt.Errorf("error reading instance discovery document body: %v", err)
	}

	var instance Instance
	if err := json.Unmarshal(body, &instance); err != nil {
		return nil, fmt.Errorf("failed to decode instance discovery document as a JSON object: %v", err)
	}

	if err := checkAPIVersions(instance.APIVersions); err != nil {
		return nil, err
	}

	return &instance, nil
}

// checkAPIVersions confirms that at least one of the advertised document
// versions is one this package can interpret. Versions that don't parse are
// skipped, so that environments can introduce new version syntax later.
func checkAPIVersions(versions []string) error {
	if len(versions) == 0 {
		return nil
	}
	for _, raw := range versions {
		v, err := version.NewVersion(raw)
		if err != nil {
			continue
		}
		if supportedAPIVersions.Check(v) {
			return nil
		}
	}
	return &ErrUnsupportedAPIVersion{Versions: versions}
}

// Forget invalidates any cached record of the given authority. If the
// authority has no cache entry then this is a no-op.
func (d *Discovery) Forget(authority string) {
	d.mu.Lock()
	delete(d.cache, authority)
	d.mu.Unlock()
}

// ForgetAll is like Forget, but for all of the authorities that have cache
// entries.
func (d *Discovery) ForgetAll() {
	d.mu.Lock()
	d.cache = make(map[string]*Instance)
	d.mu.Unlock()
}
