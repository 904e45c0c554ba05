package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/olegiv/wpbridge/internal/blog"
	"github.com/olegiv/wpbridge/internal/config"
	"github.com/olegiv/wpbridge/internal/model"
	"github.com/olegiv/wpbridge/internal/store"
)

// SettingsResponse lists stored settings and the blog settings in effect.
type SettingsResponse struct {
	Settings map[string]string `json:"settings"`
	Blog     blog.Settings     `json:"blog"`
}

// UpdateSettingsRequest sets keys to values. A null value deletes the key.
type UpdateSettingsRequest struct {
	Settings map[string]*string `json:"settings"`
}

// Validate checks keys and the blog.* values the pipeline interprets.
func (req UpdateSettingsRequest) Validate() error {
	if len(req.Settings) == 0 {
		return validation.Errors{"settings": errors.New("at least one setting is required")}
	}

	errs := validation.Errors{}
	for key, value := range req.Settings {
		if !model.IsValidSettingKey(key) {
			errs[key] = errors.New("invalid setting key")
			continue
		}
		if value == nil {
			continue
		}
		if err := validateSettingValue(key, *value); err != nil {
			errs[key] = err
		}
	}
	return errs.Filter()
}

func nonNegativeID(value any) error {
	s, _ := value.(string)
	if id, err := strconv.ParseInt(s, 10, 64); err != nil || id < 0 {
		return errors.New("must be a non-negative integer")
	}
	return nil
}

func validateSettingValue(key, value string) error {
	rules := []validation.Rule{validation.Length(0, model.MaxSettingValueLength)}
	switch key {
	case model.SettingBlogSourceURL:
		rules = append(rules, validation.Required, validation.By(func(any) error {
			return config.ValidateSourceURL(strings.TrimSpace(value))
		}))
	case model.SettingBlogPerPage:
		rules = append(rules, validation.Required, validation.By(func(any) error {
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 || n > config.MaxPerPage {
				return fmt.Errorf("must be between 1 and %d", config.MaxPerPage)
			}
			return nil
		}))
	case model.SettingBlogFeaturedCategoryID, model.SettingBlogFeaturedTagID:
		rules = append(rules, validation.By(nonNegativeID))
	case model.SettingBlogDefaultAuthor:
		rules = append(rules, validation.Length(0, 100))
	case model.SettingBlogImageSize:
		rules = append(rules, validation.Length(0, 50))
	}
	return validation.Validate(value, rules...)
}

func (h *Handler) settingsResponse(ctx context.Context) (SettingsResponse, error) {
	rows, err := h.queries.ListSettings(ctx)
	if err != nil {
		return SettingsResponse{}, err
	}
	values := make(map[string]string, len(rows))
	for _, s := range rows {
		values[s.Key] = s.Value
	}
	set, err := h.settings.BlogSettings(ctx)
	if err != nil {
		return SettingsResponse{}, err
	}
	return SettingsResponse{Settings: values, Blog: set}, nil
}

// GetSettings handles GET /api/v1/admin/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	resp, err := h.settingsResponse(r.Context())
	if err != nil {
		h.logger.Error("failed to load settings", "error", err)
		WriteInternalError(w, "Failed to load settings")
		return
	}
	WriteSuccess(w, resp, nil)
}

// UpdateSettings handles PUT /api/v1/admin/settings
// All changes apply in one transaction, then the settings cache is invalidated.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if !decodeJSON(w, r, &req) || !validate(w, req) {
		return
	}

	ctx := r.Context()
	now := h.now()
	keys := make([]string, 0, len(req.Settings))
	for k := range req.Settings {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	err := store.RunInTx(ctx, h.db, func(q *store.Queries) error {
		for _, key := range keys {
			value := req.Settings[key]
			if value == nil {
				if _, err := q.DeleteSetting(ctx, key); err != nil {
					return fmt.Errorf("deleting %s: %w", key, err)
				}
				continue
			}
			if _, err := q.UpsertSetting(ctx, store.UpsertSettingParams{
				Key:       key,
				Value:     strings.TrimSpace(*value),
				UpdatedAt: now,
			}); err != nil {
				return fmt.Errorf("saving %s: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		h.logger.Error("failed to update settings", "error", err)
		WriteInternalError(w, "Failed to update settings")
		return
	}

	if err := h.settings.Invalidate(ctx); err != nil {
		h.logger.Warn("failed to invalidate settings cache", "error", err, "category", model.EventCategoryCache)
	}
	h.logger.Info("settings updated", "keys", keys, "category", model.EventCategorySettings)

	resp, err := h.settingsResponse(ctx)
	if err != nil {
		WriteInternalError(w, "Failed to load settings")
		return
	}
	WriteSuccess(w, resp, nil)
}
