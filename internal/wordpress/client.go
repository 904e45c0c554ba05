// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package wordpress is a client for the WordPress REST API (wp/v2) used as
// the blog content source. It maps transport, decoding and status failures
// onto *Error so callers can classify them without inspecting strings.
package wordpress

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/olegiv/wpbridge/internal/config"
	"github.com/olegiv/wpbridge/internal/model"
)

const (
	// DefaultTimeout bounds one call when WithTimeout is not given.
	DefaultTimeout = 10 * time.Second

	// termPageSize is the largest per_page WordPress accepts for terms.
	termPageSize = config.MaxPerPage

	// termFetchConcurrency bounds parallel page fetches for large taxonomies.
	termFetchConcurrency = 4

	maxBodySize = 10 << 20
)

// Observer is notified after every content source call.
type Observer func(op string, d time.Duration, err error)

// Client talks to one WordPress REST base such as https://example.com/wp-json/wp/v2.
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	signer     Signer
	timeout    time.Duration
	observer   Observer
	logger     *slog.Logger
	userAgent  string

	terms singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithSigner sets the request signer.
func WithSigner(s Signer) Option {
	return func(c *Client) {
		if s != nil {
			c.signer = s
		}
	}
}

// WithTimeout bounds every call. Zero disables the per-call deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithObserver registers a callback for call metrics.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithLogger sets the logger for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// New creates a client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if err := config.ValidateSourceURL(baseURL); err != nil {
		return nil, fmt.Errorf("content source: %w", err)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		signer:     NoAuth{},
		timeout:    DefaultTimeout,
		logger:     slog.Default(),
		userAgent:  "wpbridge",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the REST base the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// PostQuery selects posts. Zero values are omitted from the request, and
// all set filters are combined with AND by WordPress.
type PostQuery struct {
	Page       int
	PerPage    int
	Categories []int64
	Tags       []int64
	Search     string
	Slug       string
	Exclude    []int64
	StickyOnly bool
	ImageSize  string
}

func (q PostQuery) values() url.Values {
	v := url.Values{}
	v.Set("_embed", "author,wp:featuredmedia")
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if len(q.Categories) > 0 {
		v.Set("categories", joinIDs(q.Categories))
	}
	if len(q.Tags) > 0 {
		v.Set("tags", joinIDs(q.Tags))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Slug != "" {
		v.Set("slug", q.Slug)
	}
	if len(q.Exclude) > 0 {
		v.Set("exclude", joinIDs(q.Exclude))
	}
	if q.StickyOnly {
		v.Set("sticky", "true")
	}
	return v
}

// PostPage is one page of posts with the totals reported by the source.
// HasTotals is false when the X-WP-Total headers were missing or invalid
// and the totals were derived from the page itself.
type PostPage struct {
	Posts      []model.Post
	Total      int
	TotalPages int
	HasTotals  bool
}

// ListPosts fetches one page of posts.
func (c *Client) ListPosts(ctx context.Context, q PostQuery) (*PostPage, error) {
	var raw []wpPost
	header, err := c.get(ctx, "list posts", "/posts", q.values(), &raw)
	if err != nil {
		return nil, err
	}

	page := &PostPage{Posts: make([]model.Post, 0, len(raw))}
	for _, p := range raw {
		page.Posts = append(page.Posts, p.toPost(q.ImageSize))
	}

	total, okTotal := headerInt(header, "X-WP-Total")
	pages, okPages := headerInt(header, "X-WP-TotalPages")
	if okTotal && okPages {
		page.Total, page.TotalPages, page.HasTotals = total, pages, true
		return page, nil
	}

	// Without headers only the pages up to this one are known. A full page
	// may have a successor, so one more page is offered.
	n := len(page.Posts)
	perPage := q.PerPage
	if perPage <= 0 {
		perPage = n
	}
	current := max(q.Page, 1)
	page.Total = (current-1)*perPage + n
	page.TotalPages = model.NewPagination(current, perPage, page.Total).TotalPages
	if n > 0 && n == perPage {
		page.TotalPages++
	}
	return page, nil
}

// PostBySlug fetches a single post, returning ErrNotFound when no post has
// that slug.
func (c *Client) PostBySlug(ctx context.Context, slug, imageSize string) (*model.Post, error) {
	page, err := c.ListPosts(ctx, PostQuery{Slug: slug, PerPage: 1, ImageSize: imageSize})
	if err != nil {
		return nil, err
	}
	if len(page.Posts) == 0 {
		return nil, ErrNotFound
	}
	return &page.Posts[0], nil
}

// Categories returns every category in source order.
func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	terms, err := c.allTerms(ctx, "categories", "/categories")
	if err != nil {
		return nil, err
	}
	out := make([]model.Category, len(terms))
	for i, t := range terms {
		out[i] = t.toCategory()
	}
	return out, nil
}

// Tags returns every tag in source order.
func (c *Client) Tags(ctx context.Context) ([]model.Tag, error) {
	terms, err := c.allTerms(ctx, "tags", "/tags")
	if err != nil {
		return nil, err
	}
	out := make([]model.Tag, len(terms))
	for i, t := range terms {
		out[i] = t.toTag()
	}
	return out, nil
}

// Ping performs the cheapest meaningful request against the source.
func (c *Client) Ping(ctx context.Context) error {
	v := url.Values{"per_page": {"1"}, "_fields": {"id"}}
	var raw []struct {
		ID int64 `json:"id"`
	}
	_, err := c.get(ctx, "ping", "/posts", v, &raw)
	return err
}

// allTerms reads page 1 and, when the source reports more pages, fetches
// the rest concurrently. Pages are concatenated in page order. Concurrent
// callers share one upstream fetch; the shared fetch is detached from any
// single caller's cancellation.
func (c *Client) allTerms(ctx context.Context, op, path string) ([]wpTerm, error) {
	ch := c.terms.DoChan(path, func() (any, error) {
		return c.fetchTerms(context.WithoutCancel(ctx), op, path)
	})

	select {
	case <-ctx.Done():
		return nil, networkError(op, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]wpTerm), nil
	}
}

func (c *Client) fetchTerms(ctx context.Context, op, path string) ([]wpTerm, error) {
	pageValues := func(page int) url.Values {
		return url.Values{
			"per_page": {strconv.Itoa(termPageSize)},
			"page":     {strconv.Itoa(page)},
		}
	}

	var first []wpTerm
	header, err := c.get(ctx, op, path, pageValues(1), &first)
	if err != nil {
		return nil, err
	}

	totalPages, ok := headerInt(header, "X-WP-TotalPages")
	if !ok || totalPages <= 1 {
		return first, nil
	}

	pages := make([][]wpTerm, totalPages)
	pages[0] = first

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(termFetchConcurrency)
	for n := 2; n <= totalPages; n++ {
		g.Go(func() error {
			var terms []wpTerm
			if _, err := c.get(gctx, op, path, pageValues(n), &terms); err != nil {
				return err
			}
			pages[n-1] = terms
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := make([]wpTerm, 0, len(first)*totalPages)
	for _, p := range pages {
		all = append(all, p...)
	}
	return all, nil
}

// get performs a GET against the REST base and decodes a 2xx body into out.
func (c *Client) get(ctx context.Context, op, path string, values url.Values, out any) (http.Header, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	header, err := c.do(ctx, op, path, values, out)
	if c.observer != nil {
		c.observer(op, time.Since(start), err)
	}
	if err != nil {
		c.logger.Debug("content source call failed", "op", op, "path", path, "error", err)
	}
	return header, err
}

func (c *Client) do(ctx context.Context, op, path string, values url.Values, out any) (http.Header, error) {
	endpoint := c.baseURL + path
	if len(values) > 0 {
		endpoint += "?" + values.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindNetwork, Message: "invalid request URL", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	c.signer.Sign(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, networkError(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, networkError(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var wpErr wpError
		if json.Unmarshal(body, &wpErr) == nil && wpErr.Code != "" {
			return resp.Header, statusError(op, resp.StatusCode, wpErr.Code, wpErr.Message)
		}
		// Gateways answer 5xx with HTML; a 4xx HTML page means the base URL
		// does not point at a REST API at all.
		if resp.StatusCode >= 500 {
			return resp.Header, statusError(op, resp.StatusCode, "", "")
		}
		return resp.Header, malformedError(op, resp.StatusCode, fmt.Errorf("unexpected %s body", contentType(resp)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return resp.Header, malformedError(op, resp.StatusCode, err)
	}
	return resp.Header, nil
}

func contentType(resp *http.Response) string {
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "untyped"
}

func headerInt(h http.Header, key string) (int, bool) {
	raw := strings.TrimSpace(h.Get(key))
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
