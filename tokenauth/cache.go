// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package tokenauth

import (
	"context"
	"sync"
	"time"
)

// CacheKey identifies one cached token entry. Tokens are scoped to the
// combination of the authority that issued them, the client they were issued
// to, and the audience they are valid for.
type CacheKey struct {
	Authority string
	ClientID  string
	Audience  string
}

// CachedToken is a single access token previously obtained from an
// authorization server, together with the metadata needed to use and
// expire it.
type CachedToken struct {
	AccessToken string
	TokenType   string

	// ExpiresAt is the UTC instant the token stops being usable. The zero
	// value means the expiry is unknown and the token never expires from
	// the cache's point of view.
	ExpiresAt time.Time
}

// Expired reports whether the token is unusable at the given instant. A
// token is treated as expired once it is within leeway of its expiry, so a
// zero leeway gives a strict comparison.
func (t *CachedToken) Expired(now time.Time, leeway time.Duration) bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(t.ExpiresAt.Add(-leeway))
}

// Cache is an associative store of access tokens that may be shared, by
// reference, across multiple token providers.
//
// Implementations may be backed by persistent storage; see
// [CachedToken.ToStore] and [CachedTokenFromStore] for a serialization
// format. Implementations must be safe for concurrent use, and a reader
// must never observe a partially written entry.
type Cache interface {
	// Lookup returns the token stored under key, or (nil, nil) if there is
	// no usable entry. Implementations must not return expired entries.
	Lookup(ctx context.Context, key CacheKey) (*CachedToken, error)

	// Store replaces any existing entry for key with the given token,
	// atomically from the perspective of concurrent Lookup calls. A nil
	// token removes the entry.
	Store(ctx context.Context, key CacheKey, token *CachedToken) error
}

// MemoryCache is the default in-process [Cache] implementation. Expired
// entries are dropped lazily on lookup.
//
// A single MemoryCache may serve several providers at once, for example
// the same tenant with different client configurations.
type MemoryCache struct {
	mu     sync.Mutex
	tokens map[CacheKey]*CachedToken
	leeway time.Duration
	now    func() time.Time
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache creates an empty cache that compares expiry strictly
// against the current UTC time.
func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheWithLeeway(0)
}

// NewMemoryCacheWithLeeway creates an empty cache that treats entries as
// expired once they are within leeway of their expiry, to compensate for
// clock skew against the authorization server.
func NewMemoryCacheWithLeeway(leeway time.Duration) *MemoryCache {
	return &MemoryCache{
		tokens: make(map[CacheKey]*CachedToken),
		leeway: leeway,
		now:    time.Now,
	}
}

// Lookup implements [Cache]. The returned token is a copy, so the caller
// cannot corrupt the cached entry.
func (c *MemoryCache) Lookup(_ context.Context, key CacheKey) (*CachedToken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	token, ok := c.tokens[key]
	if !ok {
		return nil, nil
	}
	if token.Expired(c.now(), c.leeway) {
		delete(c.tokens, key)
		return nil, nil
	}
	ret := *token
	return &ret, nil
}

// Store implements [Cache].
func (c *MemoryCache) Store(_ context.Context, key CacheKey, token *CachedToken) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if token == nil {
		delete(c.tokens, key)
		return nil
	}
	ret := *token
	c.tokens[key] = &ret
	return nil
}

// Forget discards any entry stored under key. It does nothing if there is
// no such entry.
func (c *MemoryCache) Forget(key CacheKey) {
	c.mu.Lock()
	delete(c.tokens, key)
	c.mu.Unlock()
}

// Count returns the number of entries currently held, including entries
// that have expired but not yet been dropped.
func (c *MemoryCache) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tokens)
}
