// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/mileusna/useragent"

	"github.com/olegiv/wpbridge/internal/model"
	"github.com/olegiv/wpbridge/internal/store"
	"github.com/olegiv/wpbridge/internal/util"
)

// ContactResponse represents a contact in admin responses.
type ContactResponse struct {
	ID         int64     `json:"id"`
	Reference  string    `json:"reference"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Company    string    `json:"company,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Service    string    `json:"service,omitempty"`
	Budget     string    `json:"budget,omitempty"`
	Message    string    `json:"message"`
	Status     string    `json:"status"`
	Notes      string    `json:"notes"`
	Browser    string    `json:"browser"`
	OS         string    `json:"os"`
	DeviceType string    `json:"device_type"`
	Country    string    `json:"country,omitempty"`
	IP         string    `json:"ip"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func contactResponse(c store.Contact) ContactResponse {
	return ContactResponse{
		ID:         c.ID,
		Reference:  c.Reference,
		Name:       c.Name,
		Email:      c.Email,
		Company:    c.Company,
		Phone:      c.Phone,
		Service:    c.Service,
		Budget:     c.Budget,
		Message:    c.Message,
		Status:     c.Status,
		Notes:      c.Notes,
		Browser:    c.Browser,
		OS:         c.OS,
		DeviceType: c.DeviceType,
		Country:    c.Country,
		IP:         c.IP,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

// CreateContactRequest is the public contact form. Website is a honeypot
// that humans never fill in.
type CreateContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Phone   string `json:"phone"`
	Service string `json:"service"`
	Budget  string `json:"budget"`
	Message string `json:"message"`
	Website string `json:"_website"`
}

// Validate implements validation.Validatable.
func (req CreateContactRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.Email, validation.Required, validation.Length(3, 254), is.EmailFormat),
		validation.Field(&req.Company, validation.Length(0, 100)),
		validation.Field(&req.Phone, validation.Length(0, 40)),
		validation.Field(&req.Service, validation.Length(0, 100)),
		validation.Field(&req.Budget, validation.Length(0, 50)),
		validation.Field(&req.Message, validation.Required, validation.Length(10, 5000)),
	)
}

func (req *CreateContactRequest) normalize() {
	for _, s := range []*string{&req.Name, &req.Email, &req.Company, &req.Phone, &req.Service, &req.Budget, &req.Message} {
		*s = strings.TrimSpace(*s)
	}
	req.Email = strings.ToLower(req.Email)
}

// CreateContactResponse is returned to the visitor.
type CreateContactResponse struct {
	Reference string `json:"reference"`
}

type visitor struct {
	Browser    string
	OS         string
	DeviceType string
}

func parseVisitor(uaString string) visitor {
	ua := useragent.Parse(uaString)

	v := visitor{Browser: ua.Name, OS: ua.OS}
	if v.Browser == "" {
		v.Browser = "Unknown"
	}
	if v.OS == "" {
		v.OS = "Unknown"
	}

	switch {
	case uaString == "":
		v.DeviceType = model.DeviceUnknown
	case ua.Bot:
		v.DeviceType = model.DeviceBot
	case ua.Tablet:
		v.DeviceType = model.DeviceTablet
	case ua.Mobile:
		v.DeviceType = model.DeviceMobile
	default:
		v.DeviceType = model.DeviceDesktop
	}
	return v
}

// CreateContact handles POST /api/v1/contacts
func (h *Handler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var req CreateContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ip := util.ClientIP(r)
	if req.Website != "" {
		// Bot detected, silently pretend success
		h.logger.Info("honeypot triggered", "ip", ip)
		WriteCreated(w, CreateContactResponse{Reference: uuid.NewString()})
		return
	}

	req.normalize()
	if !validate(w, req) {
		return
	}

	v := parseVisitor(r.UserAgent())
	country := ""
	if h.geo != nil {
		country = h.geo.Country(ip)
	}

	now := h.now()
	c, err := h.queries.CreateContact(r.Context(), store.CreateContactParams{
		Reference:  uuid.NewString(),
		Name:       req.Name,
		Email:      req.Email,
		Company:    req.Company,
		Phone:      req.Phone,
		Service:    req.Service,
		Budget:     req.Budget,
		Message:    req.Message,
		Status:     model.ContactStatusNew,
		Browser:    v.Browser,
		OS:         v.OS,
		DeviceType: v.DeviceType,
		Country:    country,
		IP:         ip,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		h.logger.Error("failed to save contact", "error", err, "category", model.EventCategoryContact)
		WriteInternalError(w, "Failed to save contact")
		return
	}

	h.logger.Info("contact received", "reference", c.Reference, "service", c.Service, "country", c.Country)
	if h.counter != nil {
		h.counter.ContactCreated()
	}
	if h.notifier != nil {
		h.notifier.NotifyContactAsync(r.Context(), c)
	}

	WriteCreated(w, CreateContactResponse{Reference: c.Reference})
}

// ContactListMeta adds per-status counts to the pagination meta.
type ContactListMeta struct {
	PageMeta
	StatusCounts map[string]int64 `json:"status_counts"`
}

// ListContacts handles GET /api/v1/admin/contacts
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := r.URL.Query().Get("status")
	if status != "" && !model.IsValidContactStatus(status) {
		WriteBadRequest(w, "Invalid status", map[string]any{"allowed": model.ContactStatuses()})
		return
	}

	page := parsePage(r)
	perPage := parsePerPage(r, 20, 100)
	filter := store.ContactFilter{
		Status: status,
		Query:  r.URL.Query().Get("q"),
		Limit:  uint64(perPage),
		Offset: uint64((page - 1) * perPage),
	}

	contacts, err := h.queries.ListContacts(ctx, filter)
	if err != nil {
		h.logger.Error("failed to list contacts", "error", err)
		WriteInternalError(w, "Failed to list contacts")
		return
	}
	total, err := h.queries.CountContacts(ctx, filter)
	if err != nil {
		WriteInternalError(w, "Failed to count contacts")
		return
	}
	counts, err := h.queries.CountContactsByStatus(ctx)
	if err != nil {
		WriteInternalError(w, "Failed to count contacts")
		return
	}

	resp := make([]ContactResponse, 0, len(contacts))
	for _, c := range contacts {
		resp = append(resp, contactResponse(c))
	}

	WriteJSON(w, http.StatusOK, struct {
		Data []ContactResponse `json:"data"`
		Meta ContactListMeta   `json:"meta"`
	}{
		Data: resp,
		Meta: ContactListMeta{
			PageMeta:     PageMeta{Total: total, Page: page, PerPage: perPage, Pages: totalPages(total, perPage)},
			StatusCounts: counts,
		},
	})
}

// GetContact handles GET /api/v1/admin/contacts/{id}
func (h *Handler) GetContact(w http.ResponseWriter, r *http.Request) {
	c, ok := requireEntityByID(w, r, "contact", func(id int64) (store.Contact, error) {
		return h.queries.GetContact(r.Context(), id)
	})
	if !ok {
		return
	}
	WriteSuccess(w, contactResponse(c), nil)
}

// UpdateContactRequest changes the workflow fields. Nil fields are kept.
type UpdateContactRequest struct {
	Status *string `json:"status"`
	Notes  *string `json:"notes"`
}

// Validate implements validation.Validatable.
func (req UpdateContactRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Status, validation.NilOrNotEmpty, validation.In(stringsToAny(model.ContactStatuses())...)),
		validation.Field(&req.Notes, validation.Length(0, 5000)),
	)
}

// UpdateContact handles PUT /api/v1/admin/contacts/{id}
func (h *Handler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	existing, ok := requireEntityByID(w, r, "contact", func(id int64) (store.Contact, error) {
		return h.queries.GetContact(r.Context(), id)
	})
	if !ok {
		return
	}

	var req UpdateContactRequest
	if !decodeJSON(w, r, &req) || !validate(w, req) {
		return
	}

	params := store.UpdateContactParams{
		ID:        existing.ID,
		Status:    existing.Status,
		Notes:     existing.Notes,
		UpdatedAt: h.now(),
	}
	if req.Status != nil {
		params.Status = *req.Status
	}
	if req.Notes != nil {
		params.Notes = strings.TrimSpace(*req.Notes)
	}

	c, err := h.queries.UpdateContact(r.Context(), params)
	if errors.Is(err, sql.ErrNoRows) {
		WriteNotFound(w, "Contact not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to update contact", "error", err, "id", existing.ID)
		WriteInternalError(w, "Failed to update contact")
		return
	}

	if c.Status != existing.Status {
		h.logger.Info("contact status changed",
			"reference", c.Reference, "from", existing.Status, "to", c.Status)
	}
	WriteSuccess(w, contactResponse(c), nil)
}

// DeleteContact handles DELETE /api/v1/admin/contacts/{id}
func (h *Handler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid contact ID", nil)
		return
	}

	n, err := h.queries.DeleteContact(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to delete contact", "error", err, "id", id)
		WriteInternalError(w, "Failed to delete contact")
		return
	}
	if n == 0 {
		WriteNotFound(w, "Contact not found")
		return
	}

	h.logger.Info("contact deleted", "id", id, "category", model.EventCategoryContact)
	w.WriteHeader(http.StatusNoContent)
}
