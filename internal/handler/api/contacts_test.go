// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/wpbridge/internal/model"
	"github.com/olegiv/wpbridge/internal/store"
)

func validContact() map[string]any {
	return map[string]any{
		"name":    "Ada Lovelace",
		"email":   "  Ada@Example.COM ",
		"company": "Analytical Engines",
		"service": "consulting",
		"message": "We would like a quote for a new site.",
	}
}

func TestCreateContact(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/api/v1/contacts", validContact())
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	ref := decodeData[CreateContactResponse](t, rr).Reference
	require.NotEmpty(t, ref)

	c, err := env.queries.GetContactByReference(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", c.Email)
	assert.Equal(t, model.ContactStatusNew, c.Status)
	assert.Equal(t, "DE", c.Country)
	assert.Equal(t, "203.0.113.7", c.IP)
	assert.Equal(t, "Chrome", c.Browser)
	assert.Equal(t, model.DeviceDesktop, c.DeviceType)

	assert.Equal(t, 1, env.counter.n)
	require.Len(t, env.notifier.contacts, 1)
	assert.Equal(t, ref, env.notifier.contacts[0].Reference)
}

func TestCreateContact_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		edit  func(m map[string]any)
		field string
	}{
		{"missing name", func(m map[string]any) { delete(m, "name") }, "name"},
		{"bad email", func(m map[string]any) { m["email"] = "not-an-email" }, "email"},
		{"short message", func(m map[string]any) { m["message"] = "hi" }, "message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validContact()
			tt.edit(body)
			rr := env.do(http.MethodPost, "/api/v1/contacts", body)
			require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
			assert.Contains(t, decode(t, rr).Error.Details, tt.field)
		})
	}

	n, err := env.queries.CountContacts(context.Background(), store.ContactFilter{})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, env.counter.n)
	assert.Empty(t, env.notifier.contacts)
}

func TestCreateContact_Honeypot(t *testing.T) {
	env := newTestEnv(t)

	body := validContact()
	body["_website"] = "http://spam.example.com"
	rr := env.do(http.MethodPost, "/api/v1/contacts", body)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.NotEmpty(t, decodeData[CreateContactResponse](t, rr).Reference)

	n, err := env.queries.CountContacts(context.Background(), store.ContactFilter{})
	require.NoError(t, err)
	assert.Zero(t, n, "honeypot submissions are not stored")
	assert.Empty(t, env.notifier.contacts)
}

func TestParseVisitor(t *testing.T) {
	tests := []struct {
		ua     string
		device string
	}{
		{"", model.DeviceUnknown},
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1", model.DeviceMobile},
		{"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", model.DeviceBot},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36", model.DeviceDesktop},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.device, parseVisitor(tt.ua).DeviceType, tt.ua)
	}
	assert.Equal(t, "Unknown", parseVisitor("").Browser)
}

func TestAdminContacts(t *testing.T) {
	env := newTestEnv(t)

	for i := range 3 {
		body := validContact()
		body["email"] = "lead" + strconv.Itoa(i) + "@example.com"
		require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/v1/contacts", body).Code)
	}

	rr := env.do(http.MethodGet, "/api/v1/admin/contacts?per_page=2", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.EqualValues(t, 3, body.Meta["total"])
	assert.EqualValues(t, 2, body.Meta["pages"])
	assert.Equal(t, map[string]any{model.ContactStatusNew: float64(3)}, body.Meta["status_counts"])

	list := decodeData[[]ContactResponse](t, rr)
	require.Len(t, list, 2)
	target := list[0]
	path := "/api/v1/admin/contacts/" + strconv.FormatInt(target.ID, 10)

	rr = env.do(http.MethodPut, path, map[string]any{"status": model.ContactStatusQualified, "notes": " call back "})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decodeData[ContactResponse](t, rr)
	assert.Equal(t, model.ContactStatusQualified, updated.Status)
	assert.Equal(t, "call back", updated.Notes)

	// Notes alone keeps the status.
	rr = env.do(http.MethodPut, path, map[string]any{"notes": "sent proposal"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, model.ContactStatusQualified, decodeData[ContactResponse](t, rr).Status)

	assert.Equal(t, http.StatusUnprocessableEntity, env.do(http.MethodPut, path, map[string]any{"status": "won"}).Code)

	filtered := decodeData[[]ContactResponse](t, env.do(http.MethodGet, "/api/v1/admin/contacts?status=qualified", nil))
	require.Len(t, filtered, 1)
	assert.Equal(t, target.ID, filtered[0].ID)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/v1/admin/contacts?status=won", nil).Code)

	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, path, nil).Code)
}
