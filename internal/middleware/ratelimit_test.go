package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/olegiv/wpbridge/internal/testutil"
)

func TestIPRateLimiter(t *testing.T) {
	rl := NewIPRateLimiter(0.001, 2, testutil.DiscardLogger())
	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	request := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/blog/posts", nil)
		req.RemoteAddr = ip + ":12345"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	assert.Equal(t, http.StatusOK, request("203.0.113.1").Code)
	assert.Equal(t, http.StatusOK, request("203.0.113.1").Code)

	rr := request("203.0.113.1")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
	assert.Contains(t, rr.Body.String(), "rate_limit_exceeded")

	// Other clients have their own bucket.
	assert.Equal(t, http.StatusOK, request("203.0.113.2").Code)
}

func TestLimiterCache_ClearIfExceeds(t *testing.T) {
	lc := newLimiterCache[string](1, 1)
	lc.get("a")
	lc.get("b")
	lc.get("a")

	assert.Equal(t, 2, lc.size())
	assert.False(t, lc.clearIfExceeds(2))
	assert.True(t, lc.clearIfExceeds(1))
	assert.Equal(t, 0, lc.size())
}

func TestIPRateLimiter_CleanupStops(t *testing.T) {
	rl := NewIPRateLimiter(1, 1, testutil.DiscardLogger())
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		rl.Cleanup(time.Millisecond, done)
		close(stopped)
	}()

	close(done)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Cleanup did not return after done was closed")
	}
}
