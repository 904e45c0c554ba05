package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RouteConfig holds the middleware applied to route groups. Nil entries
// are skipped.
type RouteConfig struct {
	// RateLimit guards the public API.
	RateLimit func(http.Handler) http.Handler
	// CSRF guards public form posts.
	CSRF func(http.Handler) http.Handler
	// AdminAuth guards /api/v1/admin.
	AdminAuth func(http.Handler) http.Handler
	// Metrics is served at /metrics when set.
	Metrics http.Handler
}

func optional(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if mw == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return mw
}

// Routes registers every endpoint on r.
func (h *Handler) Routes(r chi.Router, rc RouteConfig) {
	r.Get("/health", h.Health)
	if rc.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", rc.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(optional(rc.RateLimit))

			r.Route("/blog", func(r chi.Router) {
				r.Get("/posts", h.ListPosts)
				r.Get("/posts/{slug}", h.GetPost)
				r.Get("/posts/{id}/related", h.RelatedPosts)
				r.Get("/featured", h.FeaturedPost)
				r.Get("/categories", h.Categories)
				r.Get("/tags", h.Tags)
				r.Get("/overview", h.Overview)
			})

			r.Get("/tracking-codes", h.ListPublicTrackingCodes)
			r.With(optional(rc.CSRF)).Post("/contacts", h.CreateContact)
		})

		r.Route("/admin", func(r chi.Router) {
			// Without an auth middleware the admin surface is not exposed.
			if rc.AdminAuth == nil {
				r.HandleFunc("/*", func(w http.ResponseWriter, _ *http.Request) {
					WriteError(w, http.StatusUnauthorized, "unauthorized", "Admin API is disabled", nil)
				})
				return
			}
			r.Use(rc.AdminAuth)

			r.Get("/settings", h.GetSettings)
			r.Put("/settings", h.UpdateSettings)

			r.Get("/email-settings", h.GetEmailSettings)
			r.Put("/email-settings", h.UpdateEmailSettings)
			r.Post("/email-settings/test", h.SendTestEmail)

			r.Get("/tracking-codes", h.ListTrackingCodes)
			r.Post("/tracking-codes", h.CreateTrackingCode)
			r.Get("/tracking-codes/{id}", h.GetTrackingCode)
			r.Put("/tracking-codes/{id}", h.UpdateTrackingCode)
			r.Delete("/tracking-codes/{id}", h.DeleteTrackingCode)

			r.Get("/contacts", h.ListContacts)
			r.Get("/contacts/{id}", h.GetContact)
			r.Put("/contacts/{id}", h.UpdateContact)
			r.Delete("/contacts/{id}", h.DeleteContact)

			r.Get("/events", h.ListEvents)
			r.Get("/source/status", h.SourceStatus)

			r.Get("/jobs", h.ListJobs)
			r.Post("/jobs/{name}/run", h.RunJob)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteNotFound(w, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
	})
}
