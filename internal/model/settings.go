// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "regexp"

// Blog setting keys read by the content pipeline.
const (
	SettingBlogSourceURL          = "blog.source_url"
	SettingBlogPerPage            = "blog.per_page"
	SettingBlogFeaturedCategoryID = "blog.featured_category_id"
	SettingBlogFeaturedTagID      = "blog.featured_tag_id"
	SettingBlogDefaultAuthor      = "blog.default_author"
	SettingBlogImageSize          = "blog.image_size"
)

// MaxSettingValueLength bounds a single setting value.
const MaxSettingValueLength = 4096

var settingKeyRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z0-9_]+)*$`)

// IsValidSettingKey checks a settings key such as "blog.per_page" or "theme.primary_color".
func IsValidSettingKey(key string) bool {
	return len(key) <= 100 && settingKeyRegex.MatchString(key)
}

// BlogSettingKeys returns the keys interpreted by the blog pipeline.
func BlogSettingKeys() []string {
	return []string{
		SettingBlogSourceURL,
		SettingBlogPerPage,
		SettingBlogFeaturedCategoryID,
		SettingBlogFeaturedTagID,
		SettingBlogDefaultAuthor,
		SettingBlogImageSize,
	}
}
