package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/olegiv/wpbridge/internal/model"
	"github.com/olegiv/wpbridge/internal/store"
)

// TrackingCodeResponse represents a tracking code in admin responses.
type TrackingCodeResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Provider  string    `json:"provider"`
	Code      string    `json:"code"`
	Placement string    `json:"placement"`
	Active    bool      `json:"active"`
	Position  int64     `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PublicTrackingCode is what the front end injects.
type PublicTrackingCode struct {
	ID        int64  `json:"id"`
	Provider  string `json:"provider"`
	Code      string `json:"code"`
	Placement string `json:"placement"`
}

func trackingCodeResponse(tc store.TrackingCode) TrackingCodeResponse {
	return TrackingCodeResponse{
		ID:        tc.ID,
		Name:      tc.Name,
		Provider:  tc.Provider,
		Code:      tc.Code,
		Placement: tc.Placement,
		Active:    tc.Active,
		Position:  tc.Position,
		CreatedAt: tc.CreatedAt,
		UpdatedAt: tc.UpdatedAt,
	}
}

// TrackingCodeRequest is the body for creating or replacing a tracking code.
// Active defaults to true.
type TrackingCodeRequest struct {
	Name      string `json:"name"`
	Provider  string `json:"provider"`
	Code      string `json:"code"`
	Placement string `json:"placement"`
	Active    *bool  `json:"active"`
	Position  int64  `json:"position"`
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// Validate implements validation.Validatable.
func (req TrackingCodeRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.Provider, validation.Required, validation.In(stringsToAny(model.TrackingProviders())...)),
		validation.Field(&req.Code, validation.Required, validation.Length(1, 20000)),
		validation.Field(&req.Placement, validation.Required, validation.In(stringsToAny(model.TrackingPlacements())...)),
		validation.Field(&req.Position, validation.Min(int64(0))),
	)
}

func (req *TrackingCodeRequest) normalize() {
	req.Name = strings.TrimSpace(req.Name)
	req.Code = strings.TrimSpace(req.Code)
	if req.Placement == "" {
		req.Placement = model.PlacementHead
	}
}

func (req TrackingCodeRequest) active() bool {
	return req.Active == nil || *req.Active
}

// ListPublicTrackingCodes handles GET /api/v1/tracking-codes
// Only active codes are returned, optionally for one placement.
func (h *Handler) ListPublicTrackingCodes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	placement := r.URL.Query().Get("placement")

	var (
		codes []store.TrackingCode
		err   error
	)
	switch {
	case placement == "":
		codes, err = h.queries.ListActiveTrackingCodes(ctx)
	case model.IsValidPlacement(placement):
		codes, err = h.queries.ListActiveTrackingCodesByPlacement(ctx, placement)
	default:
		WriteBadRequest(w, "Invalid placement", map[string]any{"allowed": model.TrackingPlacements()})
		return
	}
	if err != nil {
		h.logger.Error("failed to list tracking codes", "error", err)
		WriteInternalError(w, "Failed to list tracking codes")
		return
	}

	resp := make([]PublicTrackingCode, 0, len(codes))
	for _, tc := range codes {
		resp = append(resp, PublicTrackingCode{ID: tc.ID, Provider: tc.Provider, Code: tc.Code, Placement: tc.Placement})
	}
	WriteSuccess(w, resp, nil)
}

// ListTrackingCodes handles GET /api/v1/admin/tracking-codes
func (h *Handler) ListTrackingCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.queries.ListTrackingCodes(r.Context())
	if err != nil {
		h.logger.Error("failed to list tracking codes", "error", err)
		WriteInternalError(w, "Failed to list tracking codes")
		return
	}
	resp := make([]TrackingCodeResponse, 0, len(codes))
	for _, tc := range codes {
		resp = append(resp, trackingCodeResponse(tc))
	}
	WriteSuccess(w, resp, nil)
}

// GetTrackingCode handles GET /api/v1/admin/tracking-codes/{id}
func (h *Handler) GetTrackingCode(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireEntityByID(w, r, "tracking code", func(id int64) (store.TrackingCode, error) {
		return h.queries.GetTrackingCode(r.Context(), id)
	})
	if !ok {
		return
	}
	WriteSuccess(w, trackingCodeResponse(tc), nil)
}

// CreateTrackingCode handles POST /api/v1/admin/tracking-codes
func (h *Handler) CreateTrackingCode(w http.ResponseWriter, r *http.Request) {
	var req TrackingCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.normalize()
	if !validate(w, req) {
		return
	}

	now := h.now()
	tc, err := h.queries.CreateTrackingCode(r.Context(), store.CreateTrackingCodeParams{
		Name:      req.Name,
		Provider:  req.Provider,
		Code:      req.Code,
		Placement: req.Placement,
		Active:    req.active(),
		Position:  req.Position,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		h.logger.Error("failed to create tracking code", "error", err)
		WriteInternalError(w, "Failed to create tracking code")
		return
	}

	h.logTrackingChange(r.Context(), "tracking code created", tc)
	WriteCreated(w, trackingCodeResponse(tc))
}

// UpdateTrackingCode handles PUT /api/v1/admin/tracking-codes/{id}
func (h *Handler) UpdateTrackingCode(w http.ResponseWriter, r *http.Request) {
	existing, ok := requireEntityByID(w, r, "tracking code", func(id int64) (store.TrackingCode, error) {
		return h.queries.GetTrackingCode(r.Context(), id)
	})
	if !ok {
		return
	}

	var req TrackingCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.normalize()
	if !validate(w, req) {
		return
	}

	tc, err := h.queries.UpdateTrackingCode(r.Context(), store.UpdateTrackingCodeParams{
		ID:        existing.ID,
		Name:      req.Name,
		Provider:  req.Provider,
		Code:      req.Code,
		Placement: req.Placement,
		Active:    req.active(),
		Position:  req.Position,
		UpdatedAt: h.now(),
	})
	if err != nil {
		h.logger.Error("failed to update tracking code", "error", err, "id", existing.ID)
		WriteInternalError(w, "Failed to update tracking code")
		return
	}

	h.logTrackingChange(r.Context(), "tracking code updated", tc)
	WriteSuccess(w, trackingCodeResponse(tc), nil)
}

// DeleteTrackingCode handles DELETE /api/v1/admin/tracking-codes/{id}
func (h *Handler) DeleteTrackingCode(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireEntityByID(w, r, "tracking code", func(id int64) (store.TrackingCode, error) {
		return h.queries.GetTrackingCode(r.Context(), id)
	})
	if !ok {
		return
	}

	if _, err := h.queries.DeleteTrackingCode(r.Context(), tc.ID); err != nil {
		h.logger.Error("failed to delete tracking code", "error", err, "id", tc.ID)
		WriteInternalError(w, "Failed to delete tracking code")
		return
	}

	h.logTrackingChange(r.Context(), "tracking code deleted", tc)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) logTrackingChange(ctx context.Context, msg string, tc store.TrackingCode) {
	h.logger.InfoContext(ctx, msg,
		"id", tc.ID,
		"provider", tc.Provider,
		"placement", tc.Placement,
		"active", tc.Active,
		"category", model.EventCategorySettings,
	)
}
