// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package blog

import (
	"errors"
	"sync"

	"github.com/olegiv/wpbridge/internal/model"
)

// ErrPageOutOfRange is returned by GoToPage for a page outside the last
// known pagination.
var ErrPageOutOfRange = errors.New("page out of range")

// Composer owns the list cursor {page, category, tag, search}. Every filter
// change resets the page to 1, and page moves are checked against the last
// pagination reported for the current filters. It performs no I/O.
type Composer struct {
	mu         sync.Mutex
	state      Criteria
	pagination *model.Pagination
}

// NewComposer returns a composer on page 1 with no filters.
func NewComposer() *Composer {
	return &Composer{state: Criteria{Page: 1}}
}

// NewComposerFrom starts from parsed criteria, e.g. a deep link.
func NewComposerFrom(c Criteria) *Composer {
	c.Page = c.PageOrFirst()
	return &Composer{state: c}
}

// State returns a snapshot of the current criteria.
func (c *Composer) State() Criteria {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Pagination returns the last known pagination, if any.
func (c *Composer) Pagination() (model.Pagination, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pagination == nil {
		return model.Pagination{}, false
	}
	return *c.pagination, true
}

// SelectCategory sets or clears (nil) the category filter.
func (c *Composer) SelectCategory(id *int64) Criteria {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.CategoryID = copyID(id)
	return c.filterChanged()
}

// SelectTag sets or clears (nil) the tag filter.
func (c *Composer) SelectTag(id *int64) Criteria {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.TagID = copyID(id)
	return c.filterChanged()
}

// Search sets the search term. A blank term clears the filter.
func (c *Composer) Search(q string) Criteria {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Search = NormalizeSearch(q)
	return c.filterChanged()
}

// ClearAll drops every filter and returns to page 1.
func (c *Composer) ClearAll() Criteria {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Criteria{Page: 1}
	c.pagination = nil
	return c.snapshot()
}

// GoToPage moves to page n, leaving filters untouched. Before any
// pagination is known every n >= 1 is accepted.
func (c *Composer) GoToPage(n int) (Criteria, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n < 1 {
		return c.snapshot(), ErrPageOutOfRange
	}
	if c.pagination != nil {
		last := c.pagination.TotalPages
		if last < 1 {
			last = 1
		}
		if n > last {
			return c.snapshot(), ErrPageOutOfRange
		}
	}
	c.state.Page = n
	return c.snapshot(), nil
}

// UpdatePagination records the pagination of the latest result. When the
// result set shrank below the current page, the page is clamped to the
// last one and clamped is true so the caller can refetch.
func (c *Composer) UpdatePagination(p model.Pagination) (state Criteria, clamped bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pagination = &p
	if p.TotalPages > 0 && c.state.Page > p.TotalPages {
		c.state.Page = p.TotalPages
		clamped = true
	}
	return c.snapshot(), clamped
}

// PastLast records that page lies beyond the last page of the current
// results. The stale pagination is dropped and, when the cursor is still on
// that page, it returns to page 1 and moved is true.
func (c *Composer) PastLast(page int) (moved bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pagination = nil
	if page > 1 && c.state.Page == page {
		c.state.Page = 1
		moved = true
	}
	return moved
}

// filterChanged resets the cursor after any filter transition. The old
// pagination described a different result set, so it is discarded too.
func (c *Composer) filterChanged() Criteria {
	c.state.Page = 1
	c.pagination = nil
	return c.snapshot()
}

func (c *Composer) snapshot() Criteria {
	s := c.state
	s.CategoryID = copyID(s.CategoryID)
	s.TagID = copyID(s.TagID)
	return s
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
