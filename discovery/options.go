// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"net/http"
)

type Option interface {
	applyOption(d *Discovery)
}

type option func(d *Discovery)

func (o option) applyOption(d *Discovery) {
	o(d)
}

func WithHTTPClient(client *http.Client) Option {
	return option(func(d *Discovery) {
		d.httpClient = client
	})
}
