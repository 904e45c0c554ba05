// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package blog

import (
	"context"
	"strconv"
	"strings"

	"github.com/olegiv/wpbridge/internal/config"
	"github.com/olegiv/wpbridge/internal/model"
)

// Settings is the part of the site configuration the pipeline reads.
type Settings struct {
	SourceURL          string `json:"source_url"`
	PerPage            int    `json:"per_page"`
	FeaturedCategoryID int64  `json:"featured_category_id,omitempty"`
	FeaturedTagID      int64  `json:"featured_tag_id,omitempty"`
	DefaultAuthor      string `json:"default_author"`
	ImageSize          string `json:"image_size,omitempty"`
}

// SettingsProvider supplies the current blog settings.
type SettingsProvider interface {
	BlogSettings(ctx context.Context) (Settings, error)
}

// StaticSettings is a SettingsProvider that never changes.
type StaticSettings Settings

// BlogSettings implements SettingsProvider.
func (s StaticSettings) BlogSettings(context.Context) (Settings, error) {
	return Settings(s), nil
}

// DefaultSettings derives settings from the environment configuration.
func DefaultSettings(cfg *config.Config) Settings {
	return Settings{
		SourceURL:     cfg.WPBaseURL,
		PerPage:       cfg.WPPerPage,
		DefaultAuthor: model.DefaultAuthor,
	}
}

// SettingsFromMap overlays stored blog.* settings on defaults. Values that
// do not parse are ignored so one bad admin edit cannot take the blog down.
func SettingsFromMap(values map[string]string, defaults Settings) Settings {
	s := defaults

	if v := strings.TrimSpace(values[model.SettingBlogSourceURL]); v != "" {
		if config.ValidateSourceURL(v) == nil {
			s.SourceURL = v
		}
	}
	if n, err := strconv.Atoi(values[model.SettingBlogPerPage]); err == nil && n >= 1 && n <= config.MaxPerPage {
		s.PerPage = n
	}
	if id, err := strconv.ParseInt(values[model.SettingBlogFeaturedCategoryID], 10, 64); err == nil && id > 0 {
		s.FeaturedCategoryID = id
	}
	if id, err := strconv.ParseInt(values[model.SettingBlogFeaturedTagID], 10, 64); err == nil && id > 0 {
		s.FeaturedTagID = id
	}
	if v := strings.TrimSpace(values[model.SettingBlogDefaultAuthor]); v != "" {
		s.DefaultAuthor = v
	}
	if v := strings.TrimSpace(values[model.SettingBlogImageSize]); v != "" {
		s.ImageSize = v
	}
	return s
}
