// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/wpbridge/internal/blog"
	"github.com/olegiv/wpbridge/internal/model"
)

// Outcome states reported in meta.state.
const (
	StateSuccess    = "success"
	StateEmpty      = "empty"
	StateOutOfRange = "out_of_range"
)

// failureResponse maps a pipeline failure onto an HTTP status and error body.
func failureResponse(f *blog.Failure) (int, ErrorDetail) {
	d := ErrorDetail{
		Message: f.Message,
		Details: map[string]any{
			"class":     string(f.Class),
			"retryable": f.Retryable,
		},
	}

	status := http.StatusBadGateway
	switch f.Class {
	case blog.ClassNetwork:
		d.Code = "source_unreachable"
		if f.Timeout {
			status, d.Code = http.StatusGatewayTimeout, "source_timeout"
		}
	case blog.ClassMalformed:
		d.Code = "source_malformed"
		d.Details["hint"] = f.Hint
	case blog.ClassUpstream:
		d.Code = "source_error"
		if f.StatusCode != 0 {
			d.Details["source_status"] = f.StatusCode
		}
	case blog.ClassConfig:
		status, d.Code = http.StatusServiceUnavailable, "source_misconfigured"
	case blog.ClassInvalid:
		status, d.Code = http.StatusBadRequest, "bad_request"
		d.Details = nil
	default:
		d.Code = "source_error"
	}
	return status, d
}

func writeFailure(w http.ResponseWriter, f *blog.Failure) {
	status, d := failureResponse(f)
	WriteJSON(w, status, ErrorResponse{Error: d})
}

func pageMeta(p *model.Pagination) *PageMeta {
	if p == nil {
		return nil
	}
	return &PageMeta{
		Total:   int64(p.Total),
		Page:    p.Page,
		PerPage: p.PerPage,
		Pages:   p.TotalPages,
	}
}

func outcomeState[T any](out blog.Outcome[T]) string {
	switch {
	case out.OutOfRange:
		return StateOutOfRange
	case out.Kind == blog.KindEmpty:
		return StateEmpty
	default:
		return StateSuccess
	}
}

// writeList writes a list outcome with pagination meta and total headers.
func writeList[T any](w http.ResponseWriter, out blog.Outcome[[]T]) {
	switch out.Kind {
	case blog.KindError:
		writeFailure(w, out.Failure)
		return
	case blog.KindNotFound:
		WriteNotFound(w, "Not found")
		return
	}

	meta := &Meta{State: outcomeState(out), PageMeta: pageMeta(out.Pagination)}
	if meta.PageMeta != nil {
		w.Header().Set("X-Total-Count", strconv.FormatInt(meta.Total, 10))
		w.Header().Set("X-Total-Pages", strconv.Itoa(meta.Pages))
	}
	data := out.Value
	if data == nil {
		data = []T{}
	}
	WriteSuccess(w, data, meta)
}

// ListPosts handles GET /api/v1/blog/posts
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	c, err := blog.ParseCriteria(r.URL.Query())
	if err != nil {
		WriteBadRequest(w, err.Error(), nil)
		return
	}
	perPage := parsePerPage(r, 0, 100)
	writeList(w, h.blog.ListPosts(r.Context(), c, perPage))
}

// GetPost handles GET /api/v1/blog/posts/{slug}
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	out := h.blog.GetPost(r.Context(), chi.URLParam(r, "slug"))
	switch out.Kind {
	case blog.KindError:
		writeFailure(w, out.Failure)
	case blog.KindNotFound:
		WriteNotFound(w, "Post not found")
	default:
		WriteSuccess(w, out.Value, &Meta{State: StateSuccess})
	}
}

// RelatedPosts handles GET /api/v1/blog/posts/{id}/related
func (h *Handler) RelatedPosts(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid post ID", nil)
		return
	}
	categories, err := parseIDList(r.URL.Query().Get("categories"))
	if err != nil {
		WriteBadRequest(w, "Invalid categories", map[string]any{"categories": err.Error()})
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 1 {
			WriteBadRequest(w, "Invalid limit", nil)
			return
		}
	}
	writeList(w, h.blog.RelatedPosts(r.Context(), id, categories, limit))
}

// FeaturedPost handles GET /api/v1/blog/featured
// No post at all is data: null with meta.state "empty".
func (h *Handler) FeaturedPost(w http.ResponseWriter, r *http.Request) {
	out := h.blog.FeaturedPost(r.Context())
	switch out.Kind {
	case blog.KindError:
		writeFailure(w, out.Failure)
	case blog.KindEmpty, blog.KindNotFound:
		WriteSuccess(w, nil, &Meta{State: StateEmpty})
	default:
		WriteSuccess(w, out.Value, &Meta{State: StateSuccess})
	}
}

// Categories handles GET /api/v1/blog/categories
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	writeList(w, h.blog.Categories(r.Context()))
}

// Tags handles GET /api/v1/blog/tags
func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	writeList(w, h.blog.Tags(r.Context()))
}

// Section is one independently loaded part of the overview.
type Section struct {
	State      string       `json:"state"`
	Data       any          `json:"data"`
	Pagination *PageMeta    `json:"pagination,omitempty"`
	Error      *ErrorDetail `json:"error,omitempty"`
}

func section[T any](out blog.Outcome[T], empty any) Section {
	switch out.Kind {
	case blog.KindError:
		_, d := failureResponse(out.Failure)
		return Section{State: string(blog.KindError), Data: empty, Error: &d}
	case blog.KindNotFound, blog.KindEmpty:
		return Section{State: outcomeState(out), Data: empty, Pagination: pageMeta(out.Pagination)}
	}
	return Section{State: StateSuccess, Data: out.Value, Pagination: pageMeta(out.Pagination)}
}

// OverviewResponse is the blog landing payload.
type OverviewResponse struct {
	Featured   Section `json:"featured"`
	Posts      Section `json:"posts"`
	Categories Section `json:"categories"`
	Tags       Section `json:"tags"`
}

// Overview handles GET /api/v1/blog/overview
// Sections load concurrently and fail independently, so the response is
// always 200.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	c, err := blog.ParseCriteria(r.URL.Query())
	if err != nil {
		WriteBadRequest(w, err.Error(), nil)
		return
	}
	ov := h.blog.Overview(r.Context(), c, parsePerPage(r, 0, 100))

	WriteSuccess(w, OverviewResponse{
		Featured:   section(ov.Featured, nil),
		Posts:      section(ov.Posts, []model.Post{}),
		Categories: section(ov.Categories, []model.Category{}),
		Tags:       section(ov.Tags, []model.Tag{}),
	}, nil)
}
