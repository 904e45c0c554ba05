// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package blog

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/olegiv/wpbridge/internal/model"
	"github.com/olegiv/wpbridge/internal/wordpress"
)

// fakeSource is an in-memory content source with WordPress paging and
// filter semantics: within one taxonomy IDs match any, across filters all.
type fakeSource struct {
	mu         sync.Mutex
	posts      []model.Post
	categories []model.Category
	tags       []model.Tag
	queries    []wordpress.PostQuery
	listErr    error
	termsErr   error
	pingErr    error
	hook       func(ctx context.Context, q wordpress.PostQuery) (*wordpress.PostPage, error)
}

// newFakeSource returns n posts, newest first. Post i is in category
// (i%3)+1 and carries tag 8 or 9 by parity; every fifth post mentions
// "Go" in its title.
func newFakeSource(n int) *fakeSource {
	f := &fakeSource{}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := n; i >= 1; i-- {
		title := fmt.Sprintf("Post %d", i)
		if i%5 == 0 {
			title += " about Go"
		}
		f.posts = append(f.posts, model.Post{
			ID:         int64(i),
			Slug:       fmt.Sprintf("post-%d", i),
			Title:      title,
			Date:       base.AddDate(0, 0, i),
			Categories: []int64{int64(i%3) + 1},
			Tags:       []int64{int64(8 + i%2)},
		})
	}
	return f
}

func (f *fakeSource) ListPosts(ctx context.Context, q wordpress.PostQuery) (*wordpress.PostPage, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	hook, listErr := f.hook, f.listErr
	f.mu.Unlock()

	if hook != nil {
		return hook(ctx, q)
	}
	if listErr != nil {
		return nil, listErr
	}

	var matched []model.Post
	for _, p := range f.posts {
		if q.Slug != "" && p.Slug != q.Slug {
			continue
		}
		if len(q.Categories) > 0 && !anyIn(p.Categories, q.Categories) {
			continue
		}
		if len(q.Tags) > 0 && !anyIn(p.Tags, q.Tags) {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(q.Search)) {
			continue
		}
		if anyIn([]int64{p.ID}, q.Exclude) {
			continue
		}
		if q.StickyOnly && !p.Sticky {
			continue
		}
		matched = append(matched, p)
	}

	perPage := q.PerPage
	if perPage <= 0 {
		perPage = 10
	}
	page := max(q.Page, 1)
	total := len(matched)
	pages := (total + perPage - 1) / perPage
	if page > 1 && page > pages {
		return nil, &wordpress.Error{
			Op:         "list posts",
			Kind:       wordpress.KindStatus,
			StatusCode: http.StatusBadRequest,
			Code:       "rest_post_invalid_page_number",
			Message:    "The page number requested is larger than the number of pages available.",
		}
	}

	start := (page - 1) * perPage
	end := min(start+perPage, total)
	out := make([]model.Post, end-start)
	copy(out, matched[start:end])
	return &wordpress.PostPage{Posts: out, Total: total, TotalPages: pages, HasTotals: true}, nil
}

func (f *fakeSource) PostBySlug(ctx context.Context, slug, imageSize string) (*model.Post, error) {
	page, err := f.ListPosts(ctx, wordpress.PostQuery{Slug: slug, PerPage: 1, ImageSize: imageSize})
	if err != nil {
		return nil, err
	}
	if len(page.Posts) == 0 {
		return nil, wordpress.ErrNotFound
	}
	return &page.Posts[0], nil
}

func (f *fakeSource) Categories(context.Context) ([]model.Category, error) {
	if f.termsErr != nil {
		return nil, f.termsErr
	}
	return f.categories, nil
}

func (f *fakeSource) Tags(context.Context) ([]model.Tag, error) {
	if f.termsErr != nil {
		return nil, f.termsErr
	}
	return f.tags, nil
}

func (f *fakeSource) Ping(context.Context) error {
	return f.pingErr
}

func (f *fakeSource) calls() []wordpress.PostQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]wordpress.PostQuery(nil), f.queries...)
}

func anyIn(have, want []int64) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}

func newTestService(src Source, opts ...ServiceOption) *Service {
	settings := StaticSettings{SourceURL: "https://blog.example.com/wp-json/wp/v2", PerPage: 6, DefaultAuthor: "Team"}
	return newTestServiceWith(src, settings, opts...)
}

func newTestServiceWith(src Source, settings SettingsProvider, opts ...ServiceOption) *Service {
	factory := func(string) (Source, error) { return src, nil }
	return NewService(settings, factory, opts...)
}
