// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package wordpress

import (
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/olegiv/wpbridge/internal/model"
	"github.com/olegiv/wpbridge/internal/util"
)

// PlainExcerptLength is the rune limit of Post.PlainExcerpt.
const PlainExcerptLength = 160

// WordsPerMinute is the reading speed behind Post.ReadingMinutes.
const WordsPerMinute = 200

// wpTimeLayout is the site-local timestamp format WordPress uses for date
// and date_gmt (no zone suffix).
const wpTimeLayout = "2006-01-02T15:04:05"

var textPolicy = bluemonday.StrictPolicy()

type rendered struct {
	Rendered string `json:"rendered"`
}

type wpPost struct {
	ID          int64     `json:"id"`
	Date        string    `json:"date"`
	DateGMT     string    `json:"date_gmt"`
	Modified    string    `json:"modified"`
	ModifiedGMT string    `json:"modified_gmt"`
	Slug        string    `json:"slug"`
	Link        string    `json:"link"`
	Title       rendered  `json:"title"`
	Excerpt     rendered  `json:"excerpt"`
	Content     rendered  `json:"content"`
	Categories  []int64   `json:"categories"`
	Tags        []int64   `json:"tags"`
	Sticky      bool      `json:"sticky"`
	Embedded    *embedded `json:"_embedded,omitempty"`
}

type embedded struct {
	Author        []wpAuthor `json:"author"`
	FeaturedMedia []wpMedia  `json:"wp:featuredmedia"`
}

// wpAuthor and wpMedia carry a Code when WordPress embeds an error object
// in place of the resource (private author, deleted attachment).
type wpAuthor struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type wpMedia struct {
	Code         string `json:"code"`
	SourceURL    string `json:"source_url"`
	MediaDetails struct {
		Sizes map[string]struct {
			SourceURL string `json:"source_url"`
		} `json:"sizes"`
	} `json:"media_details"`
}

type wpTerm struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Count  int    `json:"count"`
	Parent int64  `json:"parent"`
}

type wpError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// toPost resolves embedded author and media and derives the plain-text
// helpers. imageSize selects a media size, falling back to the original file.
func (p wpPost) toPost(imageSize string) model.Post {
	post := model.Post{
		ID:         p.ID,
		Slug:       p.Slug,
		Title:      p.Title.Rendered,
		Excerpt:    p.Excerpt.Rendered,
		Content:    p.Content.Rendered,
		Date:       parseTime(p.DateGMT, p.Date),
		Modified:   parseTime(p.ModifiedGMT, p.Modified),
		Categories: nonNil(p.Categories),
		Tags:       nonNil(p.Tags),
		Link:       p.Link,
		Sticky:     p.Sticky,
	}

	if p.Embedded != nil {
		if len(p.Embedded.Author) > 0 && p.Embedded.Author[0].Code == "" {
			post.Author = strings.TrimSpace(p.Embedded.Author[0].Name)
		}
		if len(p.Embedded.FeaturedMedia) > 0 {
			post.FeaturedImage = p.Embedded.FeaturedMedia[0].url(imageSize)
		}
	}

	post.PlainExcerpt = PlainExcerpt(post.Excerpt)
	if post.PlainExcerpt == "" {
		post.PlainExcerpt = PlainExcerpt(post.Content)
	}
	post.ReadingMinutes = ReadingMinutes(post.Content)
	return post
}

func (m wpMedia) url(size string) string {
	if m.Code != "" {
		return ""
	}
	if size != "" {
		if s, ok := m.MediaDetails.Sizes[size]; ok && s.SourceURL != "" {
			return s.SourceURL
		}
	}
	return m.SourceURL
}

// slug falls back to one derived from the name; some term export plugins
// drop the field.
func (t wpTerm) slug() string {
	if t.Slug != "" {
		return t.Slug
	}
	return util.Slugify(html.UnescapeString(t.Name))
}

func (t wpTerm) toCategory() model.Category {
	return model.Category{ID: t.ID, Name: html.UnescapeString(t.Name), Slug: t.slug(), Count: t.Count, Parent: t.Parent}
}

func (t wpTerm) toTag() model.Tag {
	return model.Tag{ID: t.ID, Name: html.UnescapeString(t.Name), Slug: t.slug(), Count: t.Count}
}

// parseTime prefers the GMT field; the local field is read as UTC when the
// GMT one is missing (drafts and some proxies omit it).
func parseTime(gmt, local string) time.Time {
	for _, v := range []string{gmt, local} {
		if v == "" {
			continue
		}
		if t, err := time.ParseInLocation(wpTimeLayout, v, time.UTC); err == nil {
			return t
		}
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

// PlainText strips tags from an HTML fragment and decodes entities.
// Whitespace runs collapse to one space.
func PlainText(fragment string) string {
	text := html.UnescapeString(textPolicy.Sanitize(fragment))
	return strings.Join(strings.Fields(text), " ")
}

// PlainExcerpt turns an excerpt fragment into at most PlainExcerptLength
// runes of text without the "[…]" read-more marker WordPress appends.
func PlainExcerpt(fragment string) string {
	text := PlainText(fragment)
	for _, marker := range []string{"[…]", "[...]", "…"} {
		text = strings.TrimSpace(strings.TrimSuffix(text, marker))
	}
	return truncate(text, PlainExcerptLength)
}

// ReadingMinutes estimates reading time at WordsPerMinute, never below one.
func ReadingMinutes(content string) int {
	words := len(strings.Fields(PlainText(content)))
	minutes := (words + WordsPerMinute - 1) / WordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

// truncate cuts s to max runes on a word boundary and appends an ellipsis.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:max-1])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
