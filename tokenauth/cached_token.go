// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package tokenauth

import (
	"fmt"
	"time"

	"github.com/zclconf/go-cty/cty"
)

// ToStore returns a cty.Value, always of an object type, representing data
// that can be serialized to represent this token in persistent storage.
//
// The resulting value uses only cty values that can be accepted by the cty
// JSON encoder, though the caller may elect to instead store it in some
// other format that has a JSON-compatible type system.
func (t *CachedToken) ToStore() cty.Value {
	expiresAt := cty.NullVal(cty.String)
	if !t.ExpiresAt.IsZero() {
		expiresAt = cty.StringVal(t.ExpiresAt.UTC().Format(time.RFC3339))
	}
	return cty.ObjectVal(map[string]cty.Value{
		"access_token": cty.StringVal(t.AccessToken),
		"token_type":   cty.StringVal(t.TokenType),
		"expires_at":   expiresAt,
	})
}

// CachedTokenFromStore is the inverse of [CachedToken.ToStore], rebuilding a
// token from a previously stored object value.
func CachedTokenFromStore(v cty.Value) (*CachedToken, error) {
	if v.IsNull() || !v.Type().IsObjectType() {
		return nil, fmt.Errorf("stored token must be an object")
	}
	ty := v.Type()

	if !ty.HasAttribute("access_token") {
		return nil, fmt.Errorf("stored token is missing access_token")
	}
	accessToken := v.GetAttr("access_token")
	if accessToken.IsNull() || accessToken.Type() != cty.String {
		return nil, fmt.Errorf("stored token has invalid access_token")
	}

	ret := &CachedToken{
		AccessToken: accessToken.AsString(),
	}
	if ty.HasAttribute("token_type") {
		tokenType := v.GetAttr("token_type")
		if !tokenType.IsNull() && tokenType.Type() == cty.String {
			ret.TokenType = tokenType.AsString()
		}
	}
	if ty.HasAttribute("expires_at") {
		expiresAt := v.GetAttr("expires_at")
		if !expiresAt.IsNull() {
			if expiresAt.Type() != cty.String {
				return nil, fmt.Errorf("stored token has invalid expires_at")
			}
			ts, err := time.Parse(time.RFC3339, expiresAt.AsString())
			if err != nil {
				return nil, fmt.Errorf("stored token has invalid expires_at: %w", err)
			}
			ret.ExpiresAt = ts
		}
	}
	return ret, nil
}
