// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package tokenauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	svctoken "github.com/opentofu/svctoken"
)

func TestNewCredential(t *testing.T) {
	cred, err := NewCredential("abc", NewSecret("s3cr3t"))
	require.NoError(t, err)
	assert.Equal(t, "abc", cred.ClientID())
	assert.Equal(t, "s3cr3t", cred.Secret().Value())
}

func TestNewCredentialValidationOrder(t *testing.T) {
	tests := []struct {
		name        string
		clientID    string
		secret      string
		wantSetting string
	}{
		{"empty secret", "abc", "", "client secret"},
		{"whitespace secret", "abc", "   ", "client secret"},
		{"empty client id", "", "s3cr3t", "client id"},
		{"whitespace client id", "  ", "s3cr3t", "client id"},

		// The secret is checked first, so it wins when both are missing.
		{"both empty", "", "", "client secret"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewCredential(test.clientID, NewSecret(test.secret))
			require.Error(t, err)

			var configErr *svctoken.ConfigurationError
			require.ErrorAs(t, err, &configErr)
			assert.Equal(t, test.wantSetting, configErr.Setting)
		})
	}
}
