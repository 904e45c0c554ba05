// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"net/url"

	"filippo.io/csrf/gorilla"
)

// CSRFConfig holds configuration for CSRF protection.
// filippo.io/csrf/gorilla checks Fetch metadata headers rather than
// cookies, so the AuthKey is only kept for API compatibility.
type CSRFConfig struct {
	AuthKey []byte

	// TrustedOrigins are host[:port] values allowed to post cross-origin,
	// normally the front end origins.
	TrustedOrigins []string

	Logger *slog.Logger
}

// TrustedHosts converts origin URLs such as https://www.example.com into
// the host-only form the csrf package expects. Invalid entries are skipped.
func TrustedHosts(origins []string) []string {
	var hosts []string
	for _, o := range origins {
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			continue
		}
		hosts = append(hosts, u.Host)
	}
	return hosts
}

// CSRF returns a middleware that rejects cross-site unsafe requests with a
// 403 JSON error.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := []csrf.Option{
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reason := "unknown"
			if err := csrf.FailureReason(r); err != nil {
				reason = err.Error()
			}
			logger.Warn("CSRF validation failed",
				"reason", reason,
				"method", r.Method,
				"path", r.URL.Path,
				"origin", r.Header.Get("Origin"),
				"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"),
				"category", "auth",
			)
			WriteAPIError(w, http.StatusForbidden, "csrf_failed", "Cross-site request rejected", nil)
		})),
	}
	if len(cfg.TrustedOrigins) > 0 {
		opts = append(opts, csrf.TrustedOrigins(cfg.TrustedOrigins))
	}

	return csrf.Protect(cfg.AuthKey, opts...)
}
