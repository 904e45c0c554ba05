// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package blog

import (
	"context"
	"sync"

	"github.com/olegiv/wpbridge/internal/model"
)

// Lister fetches post pages. *Service implements it.
type Lister interface {
	ListPosts(ctx context.Context, c Criteria, pageSize int) Outcome[[]model.Post]
}

// RenderFunc receives the outcome of the newest list request.
type RenderFunc func(c Criteria, out Outcome[[]model.Post])

// Browser drives a blog list view: each cursor transition issues a fetch,
// and render only ever sees the outcome of the newest one. Responses to
// superseded requests are dropped on arrival.
//
// render runs with no Browser lock held and may call any transition.
// It must not call Close.
type Browser struct {
	composer *Composer
	lister   Lister
	render   RenderFunc
	pageSize int

	// nav serializes every cursor change with the Begin or Commit that
	// follows it, so the composer always describes the newest ticket.
	nav      sync.Mutex
	renderMu sync.Mutex
	latest   Latest
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewBrowser creates a browser positioned on page 1 with no filters.
// Nothing is fetched until the first transition or Refresh.
func NewBrowser(ctx context.Context, lister Lister, pageSize int, render RenderFunc) *Browser {
	ctx, cancel := context.WithCancel(ctx)
	return &Browser{
		composer: NewComposer(),
		lister:   lister,
		render:   render,
		pageSize: pageSize,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// State returns the current cursor.
func (b *Browser) State() Criteria { return b.composer.State() }

// Refresh refetches the current cursor.
func (b *Browser) Refresh() {
	_ = b.move(func() (Criteria, error) { return b.composer.State(), nil })
}

// SelectCategory sets the category filter and fetches page 1.
func (b *Browser) SelectCategory(id *int64) {
	_ = b.move(func() (Criteria, error) { return b.composer.SelectCategory(id), nil })
}

// SelectTag sets the tag filter and fetches page 1.
func (b *Browser) SelectTag(id *int64) {
	_ = b.move(func() (Criteria, error) { return b.composer.SelectTag(id), nil })
}

// Search sets the search term and fetches page 1.
func (b *Browser) Search(q string) {
	_ = b.move(func() (Criteria, error) { return b.composer.Search(q), nil })
}

// ClearAll drops all filters and fetches page 1.
func (b *Browser) ClearAll() {
	_ = b.move(func() (Criteria, error) { return b.composer.ClearAll(), nil })
}

// GoToPage fetches page n if it is within the known pagination.
func (b *Browser) GoToPage(n int) error {
	return b.move(func() (Criteria, error) { return b.composer.GoToPage(n) })
}

// Wait blocks until every issued fetch has returned.
func (b *Browser) Wait() { b.wg.Wait() }

// Close cancels the in-flight request; its outcome is never rendered.
func (b *Browser) Close() {
	b.nav.Lock()
	b.latest.Cancel()
	b.cancel()
	b.nav.Unlock()
	b.wg.Wait()
}

func (b *Browser) move(step func() (Criteria, error)) error {
	b.nav.Lock()
	defer b.nav.Unlock()
	c, err := step()
	if err != nil {
		return err
	}
	b.fetchLocked(c)
	return nil
}

// fetchLocked issues a request for c. b.nav must be held.
func (b *Browser) fetchLocked(c Criteria) {
	if b.ctx.Err() != nil {
		return
	}
	t := b.latest.Begin(b.ctx)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		out := b.lister.ListPosts(t.Ctx, c, b.pageSize)
		if !b.commit(t, c, out) {
			return
		}

		b.renderMu.Lock()
		defer b.renderMu.Unlock()
		if b.latest.IsCurrent(t) {
			b.render(c, out)
		}
	}()
}

// commit records the pagination of out and reports whether out should be
// rendered. When the cursor had to move, the new cursor is fetched instead.
func (b *Browser) commit(t Ticket, c Criteria, out Outcome[[]model.Post]) bool {
	b.nav.Lock()
	defer b.nav.Unlock()

	moved := false
	if !b.latest.Commit(t, func() {
		switch {
		case out.OutOfRange:
			moved = b.composer.PastLast(c.PageOrFirst())
		case out.Pagination != nil:
			_, moved = b.composer.UpdatePagination(*out.Pagination)
		}
	}) {
		return false
	}
	if moved {
		b.fetchLocked(b.composer.State())
		return false
	}
	return true
}
