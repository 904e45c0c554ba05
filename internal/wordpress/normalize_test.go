// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package wordpress

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const embeddedPost = `{
	"id": 42,
	"slug": "launch",
	"date": "2024-03-05T16:00:00",
	"date_gmt": "2024-03-05T14:00:00",
	"modified_gmt": "2024-03-06T09:30:00",
	"link": "https://example.com/launch/",
	"title": {"rendered": "We&#8217;re live"},
	"excerpt": {"rendered": "<p>Our new site is here.</p>"},
	"content": {"rendered": "<p>Hello</p>"},
	"categories": [5, 3],
	"tags": [],
	"sticky": true,
	"_embedded": {
		"author": [{"name": "Jane Doe"}],
		"wp:featuredmedia": [{
			"source_url": "https://example.com/full.jpg",
			"media_details": {"sizes": {"medium": {"source_url": "https://example.com/medium.jpg"}}}
		}]
	}
}`

func decodePost(t *testing.T, raw string) wpPost {
	t.Helper()
	var p wpPost
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	return p
}

func TestToPost(t *testing.T) {
	post := decodePost(t, embeddedPost).toPost("medium")

	assert.Equal(t, int64(42), post.ID)
	assert.Equal(t, "Jane Doe", post.Author)
	assert.Equal(t, "https://example.com/medium.jpg", post.FeaturedImage)
	assert.Equal(t, []int64{5, 3}, post.Categories)
	assert.Equal(t, []int64{}, post.Tags)
	assert.True(t, post.Sticky)
	assert.Equal(t, time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC), post.Date)
	assert.Equal(t, time.Date(2024, 3, 6, 9, 30, 0, 0, time.UTC), post.Modified)
	assert.Equal(t, "We&#8217;re live", post.Title, "title HTML passes through")
	assert.Equal(t, "Our new site is here.", post.PlainExcerpt)
	assert.Equal(t, 1, post.ReadingMinutes)
}

func TestToPost_ImageSizeFallback(t *testing.T) {
	post := decodePost(t, embeddedPost).toPost("thumbnail")
	assert.Equal(t, "https://example.com/full.jpg", post.FeaturedImage)

	post = decodePost(t, embeddedPost).toPost("")
	assert.Equal(t, "https://example.com/full.jpg", post.FeaturedImage)
}

func TestToPost_EmbeddedErrors(t *testing.T) {
	raw := `{
		"id": 1,
		"date": "2024-01-01T00:00:00",
		"_embedded": {
			"author": [{"code": "rest_user_invalid_id", "message": "Invalid user ID."}],
			"wp:featuredmedia": [{"code": "rest_post_invalid_id"}]
		}
	}`
	post := decodePost(t, raw).toPost("medium")
	assert.Empty(t, post.Author)
	assert.Empty(t, post.FeaturedImage)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), post.Date, "local date used without date_gmt")
}

func TestPlainExcerpt(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"strips tags", "<p>Hello <strong>world</strong></p>", "Hello world"},
		{"decodes entities", "<p>Fish &amp; chips</p>", "Fish & chips"},
		{"removes read more marker", "<p>Intro text [&hellip;]</p>\n", "Intro text"},
		{"removes ascii marker", "<p>Intro text [...]</p>", "Intro text"},
		{"collapses whitespace", "<p>a\n\n   b</p>", "a b"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainExcerpt(tt.input))
		})
	}
}

func TestPlainExcerpt_Truncates(t *testing.T) {
	long := "<p>" + strings.Repeat("word ", 100) + "</p>"
	got := PlainExcerpt(long)

	assert.LessOrEqual(t, utf8.RuneCountInString(got), PlainExcerptLength)
	assert.True(t, strings.HasSuffix(got, "word…"), "cut on a word boundary: %q", got)
}

func TestReadingMinutes(t *testing.T) {
	assert.Equal(t, 1, ReadingMinutes(""))
	assert.Equal(t, 1, ReadingMinutes("<p>"+strings.Repeat("w ", 200)+"</p>"))
	assert.Equal(t, 2, ReadingMinutes("<p>"+strings.Repeat("w ", 201)+"</p>"))
}

func TestTermSlugFallback(t *testing.T) {
	var term wpTerm
	require.NoError(t, json.Unmarshal([]byte(`{"id":3,"name":"Caf&eacute; &amp; Design","count":2}`), &term))

	cat := term.toCategory()
	assert.Equal(t, "Café & Design", cat.Name)
	assert.Equal(t, "cafe-design", cat.Slug)

	term.Slug = "kept"
	assert.Equal(t, "kept", term.toTag().Slug)
}
