package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/wpbridge/internal/auth"
	"github.com/olegiv/wpbridge/internal/testutil"
)

const testAdminToken = "0123456789abcdef0123456789abcdef"

func TestAdminAuth(t *testing.T) {
	hash, err := auth.HashToken(testAdminToken)
	require.NoError(t, err)

	a := NewAdminAuth(hash, testutil.DiscardLogger())
	require.True(t, a.Enabled())

	handler := a.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "valid token", header: "Bearer " + testAdminToken, want: http.StatusNoContent},
		{name: "scheme case insensitive", header: "bearer " + testAdminToken, want: http.StatusNoContent},
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + testAdminToken, want: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer   ", want: http.StatusUnauthorized},
		{name: "wrong token", header: "Bearer not-the-token-at-all-0000000000", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/settings", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.want, rr.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Contains(t, rr.Header().Get("WWW-Authenticate"), "Bearer")
				assert.Contains(t, rr.Body.String(), `"unauthorized"`)
			}
		})
	}
}

func TestAdminAuth_NoHashRejectsAll(t *testing.T) {
	a := NewAdminAuth("", testutil.DiscardLogger())
	assert.False(t, a.Enabled())

	handler := a.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/settings", nil)
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminAuth_CachesVerifiedToken(t *testing.T) {
	hash, err := auth.HashToken(testAdminToken)
	require.NoError(t, err)

	a := NewAdminAuth(hash, testutil.DiscardLogger())
	assert.True(t, a.check(testAdminToken))
	assert.Len(t, a.verified, 1)
	assert.True(t, a.check(testAdminToken))

	assert.False(t, a.check("another-token-that-is-long-enough"))
	assert.Len(t, a.verified, 1)
}
