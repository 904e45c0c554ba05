// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package wordpress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL+"/wp-json/wp/v2", opts...)
	require.NoError(t, err)
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func samplePosts(n int, startID int64) []map[string]any {
	posts := make([]map[string]any, n)
	for i := range posts {
		id := startID + int64(i)
		posts[i] = map[string]any{
			"id":         id,
			"slug":       fmt.Sprintf("post-%d", id),
			"date":       "2024-03-05T16:00:00",
			"date_gmt":   "2024-03-05T14:00:00",
			"link":       fmt.Sprintf("https://example.com/post-%d/", id),
			"title":      map[string]string{"rendered": fmt.Sprintf("Post %d", id)},
			"excerpt":    map[string]string{"rendered": "<p>Short excerpt &amp; more [&hellip;]</p>\n"},
			"content":    map[string]string{"rendered": "<p>Body</p>"},
			"categories": []int64{5},
			"tags":       []int64{9},
		}
	}
	return posts
}

func TestNew_InvalidBaseURL(t *testing.T) {
	_, err := New("not a url")
	require.Error(t, err)

	_, err = New("ftp://example.com/wp-json/wp/v2")
	require.Error(t, err)
}

func TestListPosts_FiltersAndTotals(t *testing.T) {
	var got map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wp/v2/posts", r.URL.Path)
		q := r.URL.Query()
		got = map[string]string{
			"page":       q.Get("page"),
			"per_page":   q.Get("per_page"),
			"categories": q.Get("categories"),
			"tags":       q.Get("tags"),
			"search":     q.Get("search"),
			"_embed":     q.Get("_embed"),
		}
		w.Header().Set("X-WP-Total", "14")
		w.Header().Set("X-WP-TotalPages", "3")
		writeJSON(t, w, samplePosts(6, 1))
	})

	page, err := c.ListPosts(context.Background(), PostQuery{
		Page:       2,
		PerPage:    6,
		Categories: []int64{5},
		Tags:       []int64{9, 11},
		Search:     "go",
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"page":       "2",
		"per_page":   "6",
		"categories": "5",
		"tags":       "9,11",
		"search":     "go",
		"_embed":     "author,wp:featuredmedia",
	}, got)
	assert.Len(t, page.Posts, 6)
	assert.Equal(t, 14, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasTotals)
}

func TestListPosts_TotalsDerivedWithoutHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-WP-Total", "garbage")
		writeJSON(t, w, samplePosts(4, 1))
	})

	page, err := c.ListPosts(context.Background(), PostQuery{PerPage: 6})
	require.NoError(t, err)
	assert.False(t, page.HasTotals)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 1, page.TotalPages)
}

func TestListPosts_HeaderlessTotalsFollowPage(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		posts      int
		total      int
		totalPages int
	}{
		{"full first page", 1, 6, 6, 2},
		{"full second page", 2, 6, 12, 3},
		{"partial third page", 3, 2, 14, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, strconv.Itoa(tt.page), r.URL.Query().Get("page"))
				writeJSON(t, w, samplePosts(tt.posts, 1))
			})

			page, err := c.ListPosts(context.Background(), PostQuery{Page: tt.page, PerPage: 6})
			require.NoError(t, err)
			assert.False(t, page.HasTotals)
			assert.Equal(t, tt.total, page.Total)
			assert.Equal(t, tt.totalPages, page.TotalPages)
			assert.GreaterOrEqual(t, page.TotalPages, tt.page)
		})
	}
}

func TestListPosts_Empty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-WP-Total", "0")
		w.Header().Set("X-WP-TotalPages", "0")
		_, _ = w.Write([]byte("[]"))
	})

	page, err := c.ListPosts(context.Background(), PostQuery{PerPage: 6})
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
	assert.Equal(t, 0, page.Total)
}

func TestListPosts_MalformedResponse(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"html page with 200", http.StatusOK, "<!DOCTYPE html><html><body>Blog</body></html>"},
		{"php notice before json", http.StatusOK, "<b>Notice</b>: Undefined index\n[]"},
		{"object instead of array", http.StatusOK, `{"posts":[]}`},
		{"html 404 from wrong base", http.StatusNotFound, "<html>Not Found</html>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.ListPosts(context.Background(), PostQuery{PerPage: 6})
			var wpErr *Error
			require.ErrorAs(t, err, &wpErr)
			assert.Equal(t, KindMalformed, wpErr.Kind)
			assert.NotEqual(t, KindNetwork, wpErr.Kind)
		})
	}
}

func TestListPosts_StatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"code":"rest_forbidden","message":"Sorry, you are not allowed to do that.","data":{"status":403}}`))
	})

	_, err := c.ListPosts(context.Background(), PostQuery{PerPage: 6})
	var wpErr *Error
	require.ErrorAs(t, err, &wpErr)
	assert.Equal(t, KindStatus, wpErr.Kind)
	assert.Equal(t, http.StatusForbidden, wpErr.StatusCode)
	assert.Equal(t, "rest_forbidden", wpErr.Code)
	assert.Equal(t, "Sorry, you are not allowed to do that.", wpErr.Message)
	assert.False(t, errors.Is(err, ErrInvalidPage))
}

func TestListPosts_GatewayError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>502 Bad Gateway</html>"))
	})

	_, err := c.ListPosts(context.Background(), PostQuery{PerPage: 6})
	var wpErr *Error
	require.ErrorAs(t, err, &wpErr)
	assert.Equal(t, KindStatus, wpErr.Kind)
	assert.Equal(t, "Bad Gateway", wpErr.Message)
}

func TestListPosts_InvalidPage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"rest_post_invalid_page_number","message":"The page number requested is larger than the number of pages available.","data":{"status":400}}`))
	})

	_, err := c.ListPosts(context.Background(), PostQuery{Page: 99, PerPage: 6})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPage)
}

func TestListPosts_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL + "/wp-json/wp/v2"
	srv.Close()

	c, err := New(base)
	require.NoError(t, err)

	_, err = c.ListPosts(context.Background(), PostQuery{PerPage: 6})
	var wpErr *Error
	require.ErrorAs(t, err, &wpErr)
	assert.Equal(t, KindNetwork, wpErr.Kind)
	assert.False(t, wpErr.Timeout)
}

func TestListPosts_Timeout(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, WithTimeout(50*time.Millisecond))
	defer close(release)

	_, err := c.ListPosts(context.Background(), PostQuery{PerPage: 6})
	var wpErr *Error
	require.ErrorAs(t, err, &wpErr)
	assert.Equal(t, KindNetwork, wpErr.Kind)
	assert.True(t, wpErr.Timeout)
}

func TestPostBySlug(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("slug") == "post-7" {
			writeJSON(t, w, samplePosts(1, 7))
			return
		}
		_, _ = w.Write([]byte("[]"))
	})

	post, err := c.PostBySlug(context.Background(), "post-7", "")
	require.NoError(t, err)
	assert.Equal(t, int64(7), post.ID)

	_, err = c.PostBySlug(context.Background(), "missing", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCategories_AggregatesPagesInOrder(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		// Later pages answer faster to prove ordering does not follow arrival.
		time.Sleep(time.Duration(4-page) * 10 * time.Millisecond)
		w.Header().Set("X-WP-Total", "3")
		w.Header().Set("X-WP-TotalPages", "3")
		writeJSON(t, w, []map[string]any{{
			"id":    page,
			"name":  fmt.Sprintf("Tips &amp; Tricks %d", page),
			"slug":  fmt.Sprintf("tips-%d", page),
			"count": page * 2,
		}})
	})

	cats, err := c.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 3)
	for i, cat := range cats {
		assert.Equal(t, int64(i+1), cat.ID)
		assert.Equal(t, fmt.Sprintf("Tips & Tricks %d", i+1), cat.Name)
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestTags_PageFailureFailsAll(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("X-WP-TotalPages", "2")
		writeJSON(t, w, []map[string]any{{"id": 1, "name": "go", "slug": "go"}})
	})

	_, err := c.Tags(context.Background())
	var wpErr *Error
	require.ErrorAs(t, err, &wpErr)
	assert.Equal(t, KindStatus, wpErr.Kind)
}

func TestTags_ConcurrentCallersShareFetch(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		time.Sleep(50 * time.Millisecond)
		writeJSON(t, w, []map[string]any{{"id": 1, "name": "go", "slug": "go"}})
	})

	errs := make(chan error, 5)
	for range 5 {
		go func() {
			_, err := c.Tags(context.Background())
			errs <- err
		}()
	}
	for range 5 {
		require.NoError(t, <-errs)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestSigners(t *testing.T) {
	tests := []struct {
		name   string
		signer Signer
		want   string
	}{
		{"no auth", NoAuth{}, ""},
		{"basic", BasicAuth{Username: "editor", Password: "app pass"}, "Basic ZWRpdG9yOmFwcCBwYXNz"},
		{"bearer", BearerAuth{Token: "tok"}, "Bearer tok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get("Authorization")
				_, _ = w.Write([]byte("[]"))
			}, WithSigner(tt.signer))

			require.NoError(t, c.Ping(context.Background()))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestObserver(t *testing.T) {
	var ops []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	}, WithObserver(func(op string, d time.Duration, err error) {
		ops = append(ops, op)
		assert.NoError(t, err)
	}))

	_, err := c.ListPosts(context.Background(), PostQuery{})
	require.NoError(t, err)
	require.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, []string{"list posts", "ping"}, ops)
}
