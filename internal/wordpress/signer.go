// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package wordpress

import "net/http"

// Signer attaches credentials to an outgoing content source request.
type Signer interface {
	Sign(r *http.Request)
}

// NoAuth leaves requests unsigned. Public posts need no credentials.
type NoAuth struct{}

// Sign implements Signer.
func (NoAuth) Sign(*http.Request) {}

// BasicAuth signs requests with a WordPress application password.
type BasicAuth struct {
	Username string
	Password string
}

// Sign implements Signer.
func (b BasicAuth) Sign(r *http.Request) {
	r.SetBasicAuth(b.Username, b.Password)
}

// BearerAuth signs requests with a bearer token (JWT or OAuth plugins).
type BearerAuth struct {
	Token string
}

// Sign implements Signer.
func (b BearerAuth) Sign(r *http.Request) {
	r.Header.Set("Authorization", "Bearer "+b.Token)
}
