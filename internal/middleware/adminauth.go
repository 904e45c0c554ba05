// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"crypto/sha256"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/olegiv/wpbridge/internal/auth"
	"github.com/olegiv/wpbridge/internal/util"
)

// AdminAuth checks "Authorization: Bearer <token>" against an argon2id hash.
// Verified tokens are remembered by their SHA-256 digest so argon2 runs once
// per distinct token.
type AdminAuth struct {
	hash   string
	logger *slog.Logger

	mu       sync.RWMutex
	verified map[[sha256.Size]byte]bool
}

// NewAdminAuth creates an admin authenticator. An empty hash rejects every
// request.
func NewAdminAuth(hash string, logger *slog.Logger) *AdminAuth {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminAuth{
		hash:     hash,
		logger:   logger,
		verified: make(map[[sha256.Size]byte]bool),
	}
}

// Enabled reports whether a token hash is configured.
func (a *AdminAuth) Enabled() bool {
	return a.hash != ""
}

// Middleware rejects requests without a valid bearer token with a 401.
func (a *AdminAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="wpbridge"`)
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Missing bearer token", nil)
				return
			}
			if !a.check(token) {
				a.logger.Warn("invalid admin token",
					"ip", util.ClientIP(r),
					"path", r.URL.Path,
					"category", "auth",
				)
				w.Header().Set("WWW-Authenticate", `Bearer realm="wpbridge", error="invalid_token"`)
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid bearer token", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (a *AdminAuth) check(token string) bool {
	if a.hash == "" {
		return false
	}

	digest := sha256.Sum256([]byte(token))
	a.mu.RLock()
	ok, seen := a.verified[digest]
	a.mu.RUnlock()
	if seen {
		return ok
	}

	valid, err := auth.VerifyToken(token, a.hash)
	if err != nil {
		a.logger.Error("admin token hash unusable", "error", err, "category", "auth")
		return false
	}

	// Only successes are cached.
	if valid {
		a.mu.Lock()
		a.verified[digest] = true
		a.mu.Unlock()
	}
	return valid
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
