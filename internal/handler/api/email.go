package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/olegiv/wpbridge/internal/mailer"
	"github.com/olegiv/wpbridge/internal/model"
	"github.com/olegiv/wpbridge/internal/store"
)

// EmailSettingsResponse is the SMTP configuration without the password.
type EmailSettingsResponse struct {
	Enabled       bool      `json:"enabled"`
	SMTPHost      string    `json:"smtp_host"`
	SMTPPort      int64     `json:"smtp_port"`
	Username      string    `json:"username"`
	PasswordSet   bool      `json:"password_set"`
	FromAddress   string    `json:"from_address"`
	FromName      string    `json:"from_name"`
	NotifyAddress string    `json:"notify_address"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func emailSettingsResponse(s store.EmailSettings) EmailSettingsResponse {
	return EmailSettingsResponse{
		Enabled:       s.Enabled,
		SMTPHost:      s.SMTPHost,
		SMTPPort:      s.SMTPPort,
		Username:      s.Username,
		PasswordSet:   s.Password != "",
		FromAddress:   s.FromAddress,
		FromName:      s.FromName,
		NotifyAddress: s.NotifyAddress,
		UpdatedAt:     s.UpdatedAt,
	}
}

// UpdateEmailSettingsRequest replaces the SMTP configuration. A null or
// absent password keeps the stored one; an empty string clears it.
type UpdateEmailSettingsRequest struct {
	Enabled       bool    `json:"enabled"`
	SMTPHost      string  `json:"smtp_host"`
	SMTPPort      int64   `json:"smtp_port"`
	Username      string  `json:"username"`
	Password      *string `json:"password"`
	FromAddress   string  `json:"from_address"`
	FromName      string  `json:"from_name"`
	NotifyAddress string  `json:"notify_address"`
}

// Validate requires a host and sender only when notifications are enabled.
func (req UpdateEmailSettingsRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.SMTPHost, validation.When(req.Enabled, validation.Required), is.Host),
		validation.Field(&req.SMTPPort, validation.Required, validation.Min(int64(1)), validation.Max(int64(65535))),
		validation.Field(&req.Username, validation.Length(0, 255)),
		validation.Field(&req.FromAddress, validation.When(req.Enabled, validation.Required), is.EmailFormat),
		validation.Field(&req.FromName, validation.Length(0, 100)),
		validation.Field(&req.NotifyAddress, is.EmailFormat),
	)
}

// GetEmailSettings handles GET /api/v1/admin/email-settings
func (h *Handler) GetEmailSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.queries.GetEmailSettings(r.Context())
	if err != nil {
		h.logger.Error("failed to load email settings", "error", err)
		WriteInternalError(w, "Failed to load email settings")
		return
	}
	WriteSuccess(w, emailSettingsResponse(s), nil)
}

// UpdateEmailSettings handles PUT /api/v1/admin/email-settings
func (h *Handler) UpdateEmailSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateEmailSettingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.SMTPHost = strings.TrimSpace(req.SMTPHost)
	req.FromAddress = strings.TrimSpace(req.FromAddress)
	req.NotifyAddress = strings.TrimSpace(req.NotifyAddress)
	if !validate(w, req) {
		return
	}

	var password sql.NullString
	if req.Password != nil {
		password = sql.NullString{String: *req.Password, Valid: true}
	}

	s, err := h.queries.UpdateEmailSettings(r.Context(), store.UpdateEmailSettingsParams{
		Enabled:       req.Enabled,
		SMTPHost:      req.SMTPHost,
		SMTPPort:      req.SMTPPort,
		Username:      strings.TrimSpace(req.Username),
		Password:      password,
		FromAddress:   req.FromAddress,
		FromName:      strings.TrimSpace(req.FromName),
		NotifyAddress: req.NotifyAddress,
		UpdatedAt:     h.now(),
	})
	if err != nil {
		h.logger.Error("failed to update email settings", "error", err)
		WriteInternalError(w, "Failed to update email settings")
		return
	}

	h.logger.Info("email settings updated", "enabled", s.Enabled, "category", model.EventCategorySettings)
	WriteSuccess(w, emailSettingsResponse(s), nil)
}

// TestEmailRequest names the recipient of a test message.
type TestEmailRequest struct {
	To string `json:"to"`
}

// Validate implements validation.Validatable.
func (req TestEmailRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.To, validation.Required, is.EmailFormat),
	)
}

// SendTestEmail handles POST /api/v1/admin/email-settings/test
func (h *Handler) SendTestEmail(w http.ResponseWriter, r *http.Request) {
	if h.notifier == nil {
		WriteError(w, http.StatusConflict, "email_disabled", "Email notifications are not available", nil)
		return
	}

	var req TestEmailRequest
	if !decodeJSON(w, r, &req) || !validate(w, req) {
		return
	}

	err := h.notifier.SendTest(r.Context(), req.To)
	switch {
	case err == nil:
		WriteSuccess(w, map[string]string{"status": "sent"}, nil)
	case errors.Is(err, mailer.ErrDisabled):
		WriteError(w, http.StatusConflict, "email_disabled", "Email notifications are disabled or incomplete", nil)
	default:
		h.logger.Warn("test email failed", "error", err, "category", model.EventCategoryMail)
		WriteError(w, http.StatusBadGateway, "smtp_error", "Failed to send test email", map[string]any{"reason": err.Error()})
	}
}
