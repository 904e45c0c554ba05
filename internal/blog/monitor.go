// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package blog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/olegiv/wpbridge/internal/model"
)

// Pinger checks the content source. *Service implements it.
type Pinger interface {
	Ping(ctx context.Context) (string, time.Duration, *Failure)
}

// SourceStatus is the result of the latest health probe.
type SourceStatus struct {
	OK        bool          `json:"ok"`
	SourceURL string        `json:"source_url"`
	Class     Class         `json:"class,omitempty"`
	Message   string        `json:"message,omitempty"`
	Hint      string        `json:"hint,omitempty"`
	Latency   time.Duration `json:"-"`
	LatencyMS int64         `json:"latency_ms"`
	CheckedAt time.Time     `json:"checked_at"`
	Failures  int           `json:"consecutive_failures"`
}

// Monitor probes the content source and remembers the last result.
type Monitor struct {
	pinger Pinger
	logger *slog.Logger

	mu     sync.RWMutex
	status *SourceStatus
}

// NewMonitor creates a monitor. logger may be nil.
func NewMonitor(p Pinger, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{pinger: p, logger: logger}
}

// Check probes the source now and records the result. A transition from
// healthy to failing is logged at WARN, recovery at INFO.
func (m *Monitor) Check(ctx context.Context) SourceStatus {
	url, latency, fail := m.pinger.Ping(ctx)
	st := SourceStatus{
		OK:        fail == nil,
		SourceURL: url,
		Latency:   latency,
		LatencyMS: latency.Milliseconds(),
		CheckedAt: time.Now().UTC(),
	}

	m.mu.Lock()
	prev := m.status
	if fail != nil {
		st.Class, st.Message, st.Hint = fail.Class, fail.Message, fail.Hint
		st.Failures = 1
		if prev != nil {
			st.Failures = prev.Failures + 1
		}
	}
	m.status = &st
	m.mu.Unlock()

	switch {
	case fail != nil && (prev == nil || prev.OK):
		m.logger.Warn("blog source unhealthy",
			"category", model.EventCategorySource, "source", url, "class", string(fail.Class), "error", fail.Error())
	case fail == nil && prev != nil && !prev.OK:
		m.logger.Info("blog source recovered", "source", url, "latency", latency)
	}
	return st
}

// Status returns the last probe result, if any probe ran.
func (m *Monitor) Status() (SourceStatus, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.status == nil {
		return SourceStatus{}, false
	}
	return *m.status, true
}
