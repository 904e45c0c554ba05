package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/wpbridge/internal/scheduler"
)

// ListJobs handles GET /api/v1/admin/jobs
func (h *Handler) ListJobs(w http.ResponseWriter, _ *http.Request) {
	if h.jobs == nil {
		WriteSuccess(w, []scheduler.JobInfo{}, nil)
		return
	}
	WriteSuccess(w, h.jobs.Jobs(), nil)
}

// RunJob handles POST /api/v1/admin/jobs/{name}/run
// The job runs synchronously; its error is reported in the response.
func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if h.jobs == nil {
		WriteNotFound(w, "Job not found")
		return
	}

	err := h.jobs.Trigger(context.WithoutCancel(r.Context()), name)
	switch {
	case errors.Is(err, scheduler.ErrUnknownJob):
		WriteNotFound(w, "Job not found")
	case err != nil:
		WriteError(w, http.StatusBadGateway, "job_failed", "Job failed", map[string]any{"job": name, "reason": err.Error()})
	default:
		WriteSuccess(w, map[string]string{"job": name, "status": "completed"}, nil)
	}
}
