// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/wpbridge/internal/auth"
	"github.com/olegiv/wpbridge/internal/blog"
	"github.com/olegiv/wpbridge/internal/cache"
	"github.com/olegiv/wpbridge/internal/middleware"
	"github.com/olegiv/wpbridge/internal/store"
	"github.com/olegiv/wpbridge/internal/testutil"
	"github.com/olegiv/wpbridge/internal/wordpress"
)

const testToken = "test-admin-token-0123456789abcdef"

// fakePost is a post as the fake WordPress site stores it.
type fakePost struct {
	ID         int64
	Slug       string
	Title      string
	Categories []int64
	Tags       []int64
	Sticky     bool
}

// fakeWordPress serves /wp-json/wp/v2 with WordPress paging and filter
// semantics for the parameters the client sends.
type fakeWordPress struct {
	mu       sync.Mutex
	posts    []fakePost
	cats     []map[string]any
	tags     []map[string]any
	requests []string
	html     bool
}

func newFakeWordPress(n int) *fakeWordPress {
	f := &fakeWordPress{
		cats: []map[string]any{
			{"id": 1, "name": "News", "slug": "news", "count": 3},
			{"id": 2, "name": "Guides", "slug": "guides", "count": 2},
		},
		tags: []map[string]any{
			{"id": 8, "name": "go", "slug": "go", "count": 4},
		},
	}
	for i := n; i >= 1; i-- {
		f.posts = append(f.posts, fakePost{
			ID:         int64(i),
			Slug:       fmt.Sprintf("post-%d", i),
			Title:      fmt.Sprintf("Post %d", i),
			Categories: []int64{int64(i%2) + 1},
			Tags:       []int64{8},
		})
	}
	return f
}

func idSet(raw string) map[int64]bool {
	set := map[int64]bool{}
	for part := range strings.SplitSeq(raw, ",") {
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			set[id] = true
		}
	}
	return set
}

func anyIn(ids []int64, set map[int64]bool) bool {
	for _, id := range ids {
		if set[id] {
			return true
		}
	}
	return false
}

// update mutates the site under its lock.
func (f *fakeWordPress) update(fn func(f *fakeWordPress)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeWordPress) requestLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func (f *fakeWordPress) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.URL.RequestURI())

	if f.html {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<!doctype html><html><body>Blog</body></html>")
		return
	}

	q := r.URL.Query()
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")

	switch strings.TrimPrefix(r.URL.Path, "/wp-json/wp/v2") {
	case "/categories":
		w.Header().Set("X-WP-Total", strconv.Itoa(len(f.cats)))
		w.Header().Set("X-WP-TotalPages", "1")
		_ = json.NewEncoder(w).Encode(f.cats)
	case "/tags":
		w.Header().Set("X-WP-Total", strconv.Itoa(len(f.tags)))
		w.Header().Set("X-WP-TotalPages", "1")
		_ = json.NewEncoder(w).Encode(f.tags)
	case "/posts":
		f.servePosts(w, q)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"code":"rest_no_route","message":"No route was found matching the URL and request method."}`)
	}
}

func (f *fakeWordPress) servePosts(w http.ResponseWriter, q map[string][]string) {
	get := func(k string) string {
		if v := q[k]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	cats, tags, exclude := idSet(get("categories")), idSet(get("tags")), idSet(get("exclude"))
	var matched []fakePost
	for _, p := range f.posts {
		switch {
		case get("slug") != "" && p.Slug != get("slug"):
		case len(cats) > 0 && !anyIn(p.Categories, cats):
		case len(tags) > 0 && !anyIn(p.Tags, tags):
		case exclude[p.ID]:
		case get("sticky") == "true" && !p.Sticky:
		case get("search") != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(get("search"))):
		default:
			matched = append(matched, p)
		}
	}

	perPage, _ := strconv.Atoi(get("per_page"))
	if perPage < 1 {
		perPage = 10
	}
	page, _ := strconv.Atoi(get("page"))
	if page < 1 {
		page = 1
	}
	pages := int(math.Ceil(float64(len(matched)) / float64(perPage)))
	if page > 1 && page > pages {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"code":"rest_post_invalid_page_number","message":"The page number requested is larger than the number of pages available."}`)
		return
	}

	start := min((page-1)*perPage, len(matched))
	end := min(start+perPage, len(matched))
	out := make([]map[string]any, 0, end-start)
	for _, p := range matched[start:end] {
		out = append(out, map[string]any{
			"id":         p.ID,
			"slug":       p.Slug,
			"date":       "2024-03-05T16:00:00",
			"date_gmt":   "2024-03-05T14:00:00",
			"link":       "https://blog.example.com/" + p.Slug + "/",
			"title":      map[string]string{"rendered": p.Title},
			"excerpt":    map[string]string{"rendered": "<p>Excerpt of " + p.Title + "</p>"},
			"content":    map[string]string{"rendered": "<p>Body</p>"},
			"categories": p.Categories,
			"tags":       p.Tags,
			"sticky":     p.Sticky,
		})
	}
	w.Header().Set("X-WP-Total", strconv.Itoa(len(matched)))
	w.Header().Set("X-WP-TotalPages", strconv.Itoa(pages))
	_ = json.NewEncoder(w).Encode(out)
}

type recordingNotifier struct {
	mu       sync.Mutex
	contacts []store.Contact
	testTo   []string
	testErr  error
}

func (n *recordingNotifier) NotifyContactAsync(_ context.Context, c store.Contact) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.contacts = append(n.contacts, c)
}

func (n *recordingNotifier) SendTest(_ context.Context, to string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.testTo = append(n.testTo, to)
	return n.testErr
}

type staticGeo string

func (g staticGeo) Country(string) string { return string(g) }

type countingCounter struct{ n int }

func (c *countingCounter) ContactCreated() { c.n++ }

// testEnv is a fully wired router backed by a temp database and a fake
// WordPress site.
type testEnv struct {
	t        *testing.T
	router   http.Handler
	queries  *store.Queries
	wp       *fakeWordPress
	wpServer *httptest.Server
	notifier *recordingNotifier
	counter  *countingCounter
	settings *cache.SettingsCache
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	wp := newFakeWordPress(14)
	srv := httptest.NewServer(wp)
	t.Cleanup(srv.Close)

	db, queries := testutil.TestQueries(t)
	logger := testutil.DiscardLogger()

	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = mem.Close() })

	defaults := blog.Settings{SourceURL: srv.URL + "/wp-json/wp/v2", PerPage: 6, DefaultAuthor: "Team"}
	settings := cache.NewSettingsCache(mem, queries, defaults, time.Minute, logger)

	factory := func(baseURL string) (blog.Source, error) {
		return wordpress.New(baseURL, wordpress.WithTimeout(2*time.Second))
	}
	svc := blog.NewService(settings, factory, blog.WithLogger(logger))

	hash, err := auth.HashToken(testToken)
	require.NoError(t, err)

	env := &testEnv{
		t:        t,
		queries:  queries,
		wp:       wp,
		wpServer: srv,
		notifier: &recordingNotifier{},
		counter:  &countingCounter{},
		settings: settings,
	}

	h := NewHandler(Deps{
		DB:       db,
		Blog:     svc,
		Settings: settings,
		Monitor:  blog.NewMonitor(svc, logger),
		Notifier: env.notifier,
		Geo:      staticGeo("DE"),
		Counter:  env.counter,
		Logger:   logger,
	})

	r := chi.NewRouter()
	h.Routes(r, RouteConfig{
		AdminAuth: middleware.NewAdminAuth(hash, logger).Middleware(),
	})
	env.router = r
	return env
}

// do sends a request; admin requests carry the bearer token.
func (e *testEnv) do(method, target string, body any) *httptest.ResponseRecorder {
	e.t.Helper()

	var rd io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rd = strings.NewReader(b)
		default:
			buf, err := json.Marshal(b)
			require.NoError(e.t, err)
			rd = bytes.NewReader(buf)
		}
	}

	req := httptest.NewRequest(method, target, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.HasPrefix(target, "/api/v1/admin") {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.RemoteAddr = "203.0.113.7:4321"

	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// envelope is a decoded API response.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  map[string]any  `json:"meta"`
	Error *ErrorDetail    `json:"error"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), "body: %s", rr.Body.String())
	return env
}

func decodeData[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &v), "body: %s", rr.Body.String())
	return v
}
