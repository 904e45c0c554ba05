// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides slug normalization and client address helpers.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxPostSlugLength is the longest post slug accepted by PostBySlug.
const MaxPostSlugLength = 200

var (
	slugRegex       = regexp.MustCompile(`[^a-z0-9-]+`)
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// Slugify converts a term name such as "Web Design" into the slug
// WordPress would generate for it ("web-design").
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)

	result = strings.ToLower(result)
	result = strings.ReplaceAll(result, " ", "-")
	result = strings.ReplaceAll(result, "_", "-")
	result = slugRegex.ReplaceAllString(result, "")
	result = multipleHyphens.ReplaceAllString(result, "-")

	return strings.Trim(result, "-")
}

// IsValidPostSlug reports whether s can be sent to the content source as a
// post slug. WordPress keeps percent-encoded non-ASCII slugs, so this is
// looser than a canonical slug: any non-empty value without whitespace or '/'
// up to MaxPostSlugLength bytes.
func IsValidPostSlug(s string) bool {
	if s == "" || len(s) > MaxPostSlugLength {
		return false
	}
	for _, r := range s {
		if r == '/' || unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
	}
	return true
}
