// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package blog

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MaxSearchLength bounds the search term in runes.
const MaxSearchLength = 200

// ErrInvalidCriteria is wrapped by ParseCriteria errors.
var ErrInvalidCriteria = errors.New("invalid filter criteria")

// Criteria is the filter and page cursor for a post-list request.
// Nil IDs and an empty Search mean "no filter".
type Criteria struct {
	CategoryID *int64
	TagID      *int64
	Search     string
	Page       int
}

// NormalizeSearch trims, collapses whitespace and NFC-normalizes a query.
func NormalizeSearch(q string) string {
	return norm.NFC.String(strings.Join(strings.Fields(q), " "))
}

// HasFilters reports whether any filter is active.
func (c Criteria) HasFilters() bool {
	return c.CategoryID != nil || c.TagID != nil || c.Search != ""
}

// PageOrFirst returns Page, or 1 when unset.
func (c Criteria) PageOrFirst() int {
	if c.Page < 1 {
		return 1
	}
	return c.Page
}

// Equal compares criteria by value.
func (c Criteria) Equal(o Criteria) bool {
	return eqID(c.CategoryID, o.CategoryID) && eqID(c.TagID, o.TagID) &&
		c.Search == o.Search && c.PageOrFirst() == o.PageOrFirst()
}

// Query encodes the criteria as list URL parameters. Page 1 is omitted.
func (c Criteria) Query() url.Values {
	v := url.Values{}
	if c.CategoryID != nil {
		v.Set("category", strconv.FormatInt(*c.CategoryID, 10))
	}
	if c.TagID != nil {
		v.Set("tag", strconv.FormatInt(*c.TagID, 10))
	}
	if c.Search != "" {
		v.Set("search", c.Search)
	}
	if p := c.PageOrFirst(); p > 1 {
		v.Set("page", strconv.Itoa(p))
	}
	return v
}

func (c Criteria) String() string {
	if q := c.Query().Encode(); q != "" {
		return q
	}
	return "page=1"
}

// ParseCriteria reads category, tag, search and page parameters.
// A page below 1 is clamped to 1; non-numeric values are rejected.
func ParseCriteria(v url.Values) (Criteria, error) {
	c := Criteria{Page: 1}

	var err error
	if c.CategoryID, err = parseID(v.Get("category")); err != nil {
		return c, fmt.Errorf("%w: category %v", ErrInvalidCriteria, err)
	}
	if c.TagID, err = parseID(v.Get("tag")); err != nil {
		return c, fmt.Errorf("%w: tag %v", ErrInvalidCriteria, err)
	}

	c.Search = NormalizeSearch(v.Get("search"))
	if len([]rune(c.Search)) > MaxSearchLength {
		return c, fmt.Errorf("%w: search longer than %d characters", ErrInvalidCriteria, MaxSearchLength)
	}

	if raw := strings.TrimSpace(v.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return c, fmt.Errorf("%w: page must be a number", ErrInvalidCriteria)
		}
		if page > 1 {
			c.Page = page
		}
	}
	return c, nil
}

func parseID(raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return nil, errors.New("must be a positive integer")
	}
	return &id, nil
}

func eqID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ID returns a pointer to id, for building Criteria literals.
func ID(id int64) *int64 {
	return &id
}
