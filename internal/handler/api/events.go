package api

import (
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/olegiv/wpbridge/internal/model"
	"github.com/olegiv/wpbridge/internal/store"
)

// EventResponse represents an event log entry.
type EventResponse struct {
	ID        int64           `json:"id"`
	Level     string          `json:"level"`
	Category  string          `json:"category"`
	Message   string          `json:"message"`
	Metadata  json.RawMessage `json:"metadata"`
	CreatedAt time.Time       `json:"created_at"`
}

func eventResponse(e store.Event) EventResponse {
	md := json.RawMessage(e.Metadata)
	if !json.Valid(md) {
		md = json.RawMessage("{}")
	}
	return EventResponse{
		ID:        e.ID,
		Level:     e.Level,
		Category:  e.Category,
		Message:   e.Message,
		Metadata:  md,
		CreatedAt: e.CreatedAt,
	}
}

var eventLevels = []string{model.EventLevelInfo, model.EventLevelWarning, model.EventLevelError}

// ListEvents handles GET /api/v1/admin/events
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	level := r.URL.Query().Get("level")
	if level != "" && !slices.Contains(eventLevels, level) {
		WriteBadRequest(w, "Invalid level", map[string]any{"allowed": eventLevels})
		return
	}

	page := parsePage(r)
	perPage := parsePerPage(r, 50, 200)
	filter := store.EventFilter{
		Level:    level,
		Category: r.URL.Query().Get("category"),
		Limit:    uint64(perPage),
		Offset:   uint64((page - 1) * perPage),
	}

	events, err := h.queries.ListEvents(ctx, filter)
	if err != nil {
		h.logger.Error("failed to list events", "error", err)
		WriteInternalError(w, "Failed to list events")
		return
	}
	total, err := h.queries.CountEvents(ctx, filter)
	if err != nil {
		WriteInternalError(w, "Failed to count events")
		return
	}

	resp := make([]EventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, eventResponse(e))
	}
	WriteSuccess(w, resp, &Meta{PageMeta: &PageMeta{
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Pages:   totalPages(total, perPage),
	}})
}
