// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/olegiv/wpbridge/internal/blog"
	"github.com/olegiv/wpbridge/internal/model"
	"github.com/olegiv/wpbridge/internal/store"
)

const settingsKey = "settings:all"

// SettingsLoader reads the persisted settings.
type SettingsLoader interface {
	ListSettings(ctx context.Context) ([]store.Setting, error)
}

// SettingsCache caches the settings table as one map and derives the blog
// settings from it. It implements blog.SettingsProvider.
type SettingsCache struct {
	cache    *TypedCache[map[string]string]
	loader   SettingsLoader
	defaults blog.Settings
	logger   *slog.Logger
	group    singleflight.Group
}

// NewSettingsCache creates a SettingsCache. defaults apply to every blog
// key that is absent or invalid in the store.
func NewSettingsCache(c Cacher, loader SettingsLoader, defaults blog.Settings, ttl time.Duration, logger *slog.Logger) *SettingsCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsCache{
		cache:    NewTypedCache[map[string]string](c, ttl),
		loader:   loader,
		defaults: defaults,
		logger:   logger,
	}
}

// All returns every stored setting keyed by name.
func (s *SettingsCache) All(ctx context.Context) (map[string]string, error) {
	if values, ok := s.cache.Get(ctx, settingsKey); ok {
		return values, nil
	}

	v, err, _ := s.group.Do(settingsKey, func() (any, error) {
		rows, err := s.loader.ListSettings(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading settings: %w", err)
		}
		values := make(map[string]string, len(rows))
		for _, r := range rows {
			values[r.Key] = r.Value
		}
		if err := s.cache.Set(ctx, settingsKey, values); err != nil {
			s.logger.Warn("settings cache write failed", "error", err, "category", model.EventCategoryCache)
		}
		return values, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]string), nil
}

// BlogSettings implements blog.SettingsProvider. When the store cannot be
// read the defaults are served so the blog stays up.
func (s *SettingsCache) BlogSettings(ctx context.Context) (blog.Settings, error) {
	values, err := s.All(ctx)
	if err != nil {
		s.logger.Warn("serving default blog settings", "error", err, "category", model.EventCategorySettings)
		return s.defaults, nil
	}
	return blog.SettingsFromMap(values, s.defaults), nil
}

// Invalidate drops the cached settings; the next read reloads them.
func (s *SettingsCache) Invalidate(ctx context.Context) error {
	return s.cache.Delete(ctx, settingsKey)
}

var _ blog.SettingsProvider = (*SettingsCache)(nil)
