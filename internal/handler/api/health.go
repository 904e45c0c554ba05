package api

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/olegiv/wpbridge/internal/blog"
)

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo contains system-level information.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
	MemAlloc     string `json:"mem_alloc"`
	MemSys       string `json:"mem_sys"`
}

// HealthStatus is the /health payload.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Started   string           `json:"started"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
	System    *SystemInfo      `json:"system,omitempty"`
}

func (h *Handler) checkDatabase(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.PingContext(ctx)
	latency := time.Since(start)
	if err != nil {
		return Check{Status: "unhealthy", Message: err.Error(), Latency: latency.String()}
	}
	return Check{Status: "healthy", Latency: latency.String()}
}

// checkSource reports the last probe result. The source being down
// degrades the service but does not make it unhealthy.
func (h *Handler) checkSource() Check {
	if h.monitor == nil {
		return Check{Status: "unknown"}
	}
	st, ok := h.monitor.Status()
	if !ok {
		return Check{Status: "unknown", Message: "not probed yet"}
	}
	if !st.OK {
		return Check{
			Status:  "degraded",
			Message: st.Message + " (checked " + humanize.Time(st.CheckedAt) + ")",
		}
	}
	return Check{Status: "healthy", Latency: st.Latency.String()}
}

// Health handles GET /health
// 503 only when the database is unreachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	db := h.checkDatabase(r.Context())
	src := h.checkSource()

	status := "healthy"
	code := http.StatusOK
	switch {
	case db.Status != "healthy":
		status, code = "unhealthy", http.StatusServiceUnavailable
	case src.Status == "degraded":
		status = "degraded"
	}

	resp := HealthStatus{
		Status:    status,
		Timestamp: h.now(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Started:   humanize.Time(h.startTime),
		Version:   h.version.String(),
		Checks: map[string]Check{
			"database": db,
			"source":   src,
		},
	}
	if r.URL.Query().Get("verbose") == "true" {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		resp.System = &SystemInfo{
			GoVersion:    runtime.Version(),
			NumGoroutine: runtime.NumGoroutine(),
			MemAlloc:     humanize.Bytes(m.Alloc),
			MemSys:       humanize.Bytes(m.Sys),
		}
	}
	WriteJSON(w, code, resp)
}

// SourceStatus handles GET /api/v1/admin/source/status
// ?refresh=true probes the source before answering.
func (h *Handler) SourceStatus(w http.ResponseWriter, r *http.Request) {
	if h.monitor == nil {
		WriteError(w, http.StatusServiceUnavailable, "unavailable", "Source monitoring is not configured", nil)
		return
	}

	var (
		st blog.SourceStatus
		ok bool
	)
	if r.URL.Query().Get("refresh") == "true" {
		st, ok = h.monitor.Check(r.Context()), true
	} else {
		st, ok = h.monitor.Status()
	}
	if !ok {
		WriteSuccess(w, nil, &Meta{State: StateEmpty})
		return
	}
	WriteSuccess(w, st, &Meta{State: StateSuccess})
}
