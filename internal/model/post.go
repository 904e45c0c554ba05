// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model contains domain models and constants for the application.
package model

import (
	"time"
)

// DisplayDateLayout is how post dates are shown to readers.
const DisplayDateLayout = "January 2, 2006"

// DefaultAuthor is used when the content source does not embed an author.
const DefaultAuthor = "Editorial Team"

// Post is one blog article as mirrored from the content source.
// Title, Excerpt and Content are HTML fragments.
type Post struct {
	ID             int64     `json:"id"`
	Slug           string    `json:"slug"`
	Title          string    `json:"title"`
	Excerpt        string    `json:"excerpt"`
	Content        string    `json:"content"`
	PlainExcerpt   string    `json:"plain_excerpt"`
	Date           time.Time `json:"date"`
	Modified       time.Time `json:"modified"`
	Categories     []int64   `json:"categories"`
	Tags           []int64   `json:"tags"`
	FeaturedImage  string    `json:"featured_image,omitempty"`
	Author         string    `json:"author"`
	Link           string    `json:"link"`
	Sticky         bool      `json:"sticky"`
	ReadingMinutes int       `json:"reading_minutes"`
}

// DisplayDate formats the publish date for readers.
func (p Post) DisplayDate() string {
	if p.Date.IsZero() {
		return ""
	}
	return p.Date.Format(DisplayDateLayout)
}

// InCategory reports whether the post is filed under category id.
func (p Post) InCategory(id int64) bool {
	for _, c := range p.Categories {
		if c == id {
			return true
		}
	}
	return false
}

// HasTag reports whether the post carries tag id.
func (p Post) HasTag(id int64) bool {
	for _, t := range p.Tags {
		if t == id {
			return true
		}
	}
	return false
}

// Category is a content source category. Read-only.
type Category struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Count  int    `json:"count"`
	Parent int64  `json:"parent,omitempty"`
}

// Tag is a content source tag. Read-only.
type Tag struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// Pagination describes one page of a filtered result set.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination derives TotalPages as ceil(total/perPage).
func NewPagination(page, perPage, total int) Pagination {
	p := Pagination{Page: page, PerPage: perPage, Total: total}
	if perPage > 0 && total > 0 {
		p.TotalPages = (total + perPage - 1) / perPage
	}
	return p
}

// Contains reports whether page lies in [1, TotalPages].
func (p Pagination) Contains(page int) bool {
	return page >= 1 && page <= p.TotalPages
}

// HasNext reports whether a page follows the current one.
func (p Pagination) HasNext() bool {
	return p.Page < p.TotalPages
}

// HasPrev reports whether a page precedes the current one.
func (p Pagination) HasPrev() bool {
	return p.Page > 1
}
