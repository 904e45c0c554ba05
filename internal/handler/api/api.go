// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the REST API handlers for the blog pipeline and the
// admin configuration surface.
package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/olegiv/wpbridge/internal/blog"
	"github.com/olegiv/wpbridge/internal/cache"
	"github.com/olegiv/wpbridge/internal/scheduler"
	"github.com/olegiv/wpbridge/internal/store"
	"github.com/olegiv/wpbridge/internal/version"
)

// ContactNotifier sends the new-lead notification.
type ContactNotifier interface {
	NotifyContactAsync(ctx context.Context, c store.Contact)
	SendTest(ctx context.Context, to string) error
}

// CountryLookup resolves a visitor IP to an ISO country code.
type CountryLookup interface {
	Country(ip string) string
}

// JobRunner lists and triggers scheduled jobs.
type JobRunner interface {
	Jobs() []scheduler.JobInfo
	Trigger(ctx context.Context, name string) error
}

// ContactCounter counts captured leads.
type ContactCounter interface {
	ContactCreated()
}

// Deps are the collaborators of the API handlers. Notifier, Geo, Jobs and
// Counter are optional.
type Deps struct {
	DB       *sql.DB
	Blog     *blog.Service
	Settings *cache.SettingsCache
	Monitor  *blog.Monitor
	Notifier ContactNotifier
	Geo      CountryLookup
	Jobs     JobRunner
	Counter  ContactCounter
	Logger   *slog.Logger
	Version  version.Info
}

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	db       *sql.DB
	queries  *store.Queries
	blog     *blog.Service
	settings *cache.SettingsCache
	monitor  *blog.Monitor
	notifier ContactNotifier
	geo      CountryLookup
	jobs     JobRunner
	counter  ContactCounter
	logger   *slog.Logger
	version  version.Info

	startTime time.Time
	now       func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		db:        d.DB,
		queries:   store.New(d.DB),
		blog:      d.Blog,
		settings:  d.Settings,
		monitor:   d.Monitor,
		notifier:  d.Notifier,
		geo:       d.Geo,
		jobs:      d.Jobs,
		counter:   d.Counter,
		logger:    logger,
		version:   d.Version,
		startTime: time.Now(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Response is the standard API response wrapper. Data is always present so
// an absent featured post is sent as null.
type Response struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta carries the outcome state and, for lists, pagination.
type Meta struct {
	State string `json:"state,omitempty"`
	*PageMeta
}

// PageMeta contains pagination metadata.
type PageMeta struct {
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Pages   int   `json:"pages"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]any) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]any) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// WriteValidationError writes a 422 Unprocessable Entity response with field errors.
func WriteValidationError(w http.ResponseWriter, fieldErrors map[string]any) {
	WriteError(w, http.StatusUnprocessableEntity, "validation_error", "Validation failed", fieldErrors)
}
