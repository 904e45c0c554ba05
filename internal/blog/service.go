// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package blog is the content pipeline behind the marketing site blog:
// post lists with combined filters, single posts, related and featured
// posts, reference data, and the list cursor that drives them.
package blog

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/olegiv/wpbridge/internal/config"
	"github.com/olegiv/wpbridge/internal/model"
	"github.com/olegiv/wpbridge/internal/util"
	"github.com/olegiv/wpbridge/internal/wordpress"
)

// Related post limits.
const (
	DefaultRelatedLimit = 3
	MaxRelatedLimit     = 20
)

// Source is the content source the pipeline reads from.
// *wordpress.Client implements it.
type Source interface {
	ListPosts(ctx context.Context, q wordpress.PostQuery) (*wordpress.PostPage, error)
	PostBySlug(ctx context.Context, slug, imageSize string) (*model.Post, error)
	Categories(ctx context.Context) ([]model.Category, error)
	Tags(ctx context.Context) ([]model.Tag, error)
	Ping(ctx context.Context) error
}

// SourceFactory builds a Source for a base URL.
type SourceFactory func(baseURL string) (Source, error)

// Service runs the pipeline against the source named in the current
// settings. A new Source is built only when the configured URL changes.
type Service struct {
	settings  SettingsProvider
	factory   SourceFactory
	sanitizer *sanitizer
	logger    *slog.Logger

	mu        sync.Mutex
	source    Source
	sourceURL string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithSanitizedHTML scrubs titles, excerpts and content with bluemonday.
func WithSanitizedHTML(enabled bool) ServiceOption {
	return func(s *Service) {
		if enabled {
			s.sanitizer = newSanitizer()
		}
	}
}

// WithLogger sets the logger used for failure reports.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a pipeline service.
func NewService(settings SettingsProvider, factory SourceFactory, opts ...ServiceOption) *Service {
	s := &Service{
		settings: settings,
		factory:  factory,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// resolve returns the source for the current settings.
func (s *Service) resolve(ctx context.Context) (Source, Settings, *Failure) {
	set, err := s.settings.BlogSettings(ctx)
	if err != nil {
		return nil, set, &Failure{Class: ClassConfig, Message: "Blog settings are unavailable.", Retryable: true, Err: err}
	}
	if set.SourceURL == "" {
		return nil, set, &Failure{Class: ClassConfig, Message: "No blog source URL is configured."}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source != nil && s.sourceURL == set.SourceURL {
		return s.source, set, nil
	}
	src, err := s.factory(set.SourceURL)
	if err != nil {
		return nil, set, &Failure{Class: ClassConfig, Message: "The configured blog source URL is invalid.", Err: err}
	}
	s.source, s.sourceURL = src, set.SourceURL
	return src, set, nil
}

// ListPosts fetches one page of posts matching all filters in c.
// pageSize 0 uses the configured page size.
func (s *Service) ListPosts(ctx context.Context, c Criteria, pageSize int) Outcome[[]model.Post] {
	src, set, fail := s.resolve(ctx)
	if fail != nil {
		return failed[[]model.Post](s.logFailure("list posts", fail, "criteria", c.String()))
	}

	if pageSize <= 0 {
		pageSize = set.PerPage
	}
	pageSize = clamp(pageSize, 1, config.MaxPerPage)
	page := c.PageOrFirst()

	q := wordpress.PostQuery{
		Page:      page,
		PerPage:   pageSize,
		Search:    NormalizeSearch(c.Search),
		ImageSize: set.ImageSize,
	}
	if c.CategoryID != nil {
		q.Categories = []int64{*c.CategoryID}
	}
	if c.TagID != nil {
		q.Tags = []int64{*c.TagID}
	}

	res, err := src.ListPosts(ctx, q)
	if errors.Is(err, wordpress.ErrInvalidPage) {
		out := empty([]model.Post{})
		out.Pagination = &model.Pagination{Page: page, PerPage: pageSize}
		out.OutOfRange = true
		return out
	}
	if err != nil {
		return failed[[]model.Post](s.logFailure("list posts", Classify(err), "criteria", c.String()))
	}

	pagination := model.NewPagination(page, pageSize, res.Total)
	if !res.HasTotals {
		pagination.TotalPages = max(pagination.TotalPages, res.TotalPages)
	}
	posts := s.finish(res.Posts, set)
	if len(posts) > pageSize {
		posts = posts[:pageSize]
	}

	var out Outcome[[]model.Post]
	if len(posts) == 0 {
		out = empty(posts)
	} else {
		out = success(posts)
	}
	out.Pagination = &pagination
	return out
}

// GetPost resolves one post by slug. No match is KindNotFound.
func (s *Service) GetPost(ctx context.Context, slug string) Outcome[model.Post] {
	if !util.IsValidPostSlug(slug) {
		return failed[model.Post](&Failure{Class: ClassInvalid, Message: "Invalid post slug."})
	}

	src, set, fail := s.resolve(ctx)
	if fail != nil {
		return failed[model.Post](s.logFailure("get post", fail, "slug", slug))
	}

	post, err := src.PostBySlug(ctx, slug, set.ImageSize)
	if errors.Is(err, wordpress.ErrNotFound) {
		return notFound[model.Post]()
	}
	if err != nil {
		return failed[model.Post](s.logFailure("get post", Classify(err), "slug", slug))
	}
	return success(s.finish([]model.Post{*post}, set)[0])
}

// RelatedPosts returns up to limit other posts sharing a category with
// postID. An empty category list yields an empty result without I/O.
func (s *Service) RelatedPosts(ctx context.Context, postID int64, categoryIDs []int64, limit int) Outcome[[]model.Post] {
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}
	limit = min(limit, MaxRelatedLimit)

	categoryIDs = uniqueIDs(categoryIDs)
	if len(categoryIDs) == 0 {
		return empty([]model.Post{})
	}

	src, set, fail := s.resolve(ctx)
	if fail != nil {
		return failed[[]model.Post](s.logFailure("related posts", fail, "post_id", postID))
	}

	q := wordpress.PostQuery{
		PerPage:    limit,
		Categories: categoryIDs,
		Exclude:    []int64{postID},
		ImageSize:  set.ImageSize,
	}
	res, err := src.ListPosts(ctx, q)
	if err != nil {
		return failed[[]model.Post](s.logFailure("related posts", Classify(err), "post_id", postID))
	}

	related := make([]model.Post, 0, limit)
	for _, p := range res.Posts {
		if p.ID == postID {
			continue
		}
		related = append(related, p)
		if len(related) == limit {
			break
		}
	}
	related = s.finish(related, set)
	if len(related) == 0 {
		return empty(related)
	}
	return success(related)
}

// FeaturedPost picks the post to highlight: the newest post in the
// configured featured category and/or tag, then the newest sticky post,
// then the newest post. Steps that match nothing fall through; a failing
// step aborts with its failure.
func (s *Service) FeaturedPost(ctx context.Context) Outcome[model.Post] {
	src, set, fail := s.resolve(ctx)
	if fail != nil {
		return failed[model.Post](s.logFailure("featured post", fail))
	}

	var steps []wordpress.PostQuery
	if set.FeaturedCategoryID > 0 || set.FeaturedTagID > 0 {
		q := wordpress.PostQuery{PerPage: 1, ImageSize: set.ImageSize}
		if set.FeaturedCategoryID > 0 {
			q.Categories = []int64{set.FeaturedCategoryID}
		}
		if set.FeaturedTagID > 0 {
			q.Tags = []int64{set.FeaturedTagID}
		}
		steps = append(steps, q)
	}
	steps = append(steps,
		wordpress.PostQuery{PerPage: 1, StickyOnly: true, ImageSize: set.ImageSize},
		wordpress.PostQuery{PerPage: 1, ImageSize: set.ImageSize},
	)

	for _, q := range steps {
		res, err := src.ListPosts(ctx, q)
		if err != nil {
			return failed[model.Post](s.logFailure("featured post", Classify(err)))
		}
		if len(res.Posts) > 0 {
			return success(s.finish(res.Posts[:1], set)[0])
		}
	}
	return empty(model.Post{})
}

// Categories returns every category in source order.
func (s *Service) Categories(ctx context.Context) Outcome[[]model.Category] {
	src, _, fail := s.resolve(ctx)
	if fail != nil {
		return failed[[]model.Category](s.logFailure("categories", fail))
	}
	cats, err := src.Categories(ctx)
	if err != nil {
		return failed[[]model.Category](s.logFailure("categories", Classify(err)))
	}
	if len(cats) == 0 {
		return empty([]model.Category{})
	}
	return success(cats)
}

// Tags returns every tag in source order.
func (s *Service) Tags(ctx context.Context) Outcome[[]model.Tag] {
	src, _, fail := s.resolve(ctx)
	if fail != nil {
		return failed[[]model.Tag](s.logFailure("tags", fail))
	}
	tags, err := src.Tags(ctx)
	if err != nil {
		return failed[[]model.Tag](s.logFailure("tags", Classify(err)))
	}
	if len(tags) == 0 {
		return empty([]model.Tag{})
	}
	return success(tags)
}

// Overview is everything the blog landing view needs. Sections fail
// independently.
type Overview struct {
	Featured   Outcome[model.Post]
	Posts      Outcome[[]model.Post]
	Categories Outcome[[]model.Category]
	Tags       Outcome[[]model.Tag]
}

// Overview loads categories, tags, the featured post and the first page
// of c concurrently.
func (s *Service) Overview(ctx context.Context, c Criteria, pageSize int) Overview {
	var (
		ov Overview
		g  errgroup.Group
	)
	g.Go(func() error { ov.Featured = s.FeaturedPost(ctx); return nil })
	g.Go(func() error { ov.Posts = s.ListPosts(ctx, c, pageSize); return nil })
	g.Go(func() error { ov.Categories = s.Categories(ctx); return nil })
	g.Go(func() error { ov.Tags = s.Tags(ctx); return nil })
	_ = g.Wait()
	return ov
}

// Ping checks the configured source and reports its URL and latency.
func (s *Service) Ping(ctx context.Context) (string, time.Duration, *Failure) {
	src, set, fail := s.resolve(ctx)
	if fail != nil {
		return set.SourceURL, 0, fail
	}
	start := time.Now()
	err := src.Ping(ctx)
	return set.SourceURL, time.Since(start), Classify(err)
}

// finish applies the default author and optional sanitizing.
func (s *Service) finish(posts []model.Post, set Settings) []model.Post {
	author := set.DefaultAuthor
	if author == "" {
		author = model.DefaultAuthor
	}
	for i := range posts {
		if posts[i].Author == "" {
			posts[i].Author = author
		}
		if s.sanitizer != nil {
			s.sanitizer.post(&posts[i])
		}
	}
	return posts
}

func (s *Service) logFailure(op string, f *Failure, attrs ...any) *Failure {
	if errors.Is(f.Err, context.Canceled) {
		return f
	}
	args := append([]any{
		"category", model.EventCategorySource,
		"op", op,
		"class", string(f.Class),
		"error", f.Error(),
	}, attrs...)
	s.logger.Warn("blog source call failed", args...)
	return f
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id < 1 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
