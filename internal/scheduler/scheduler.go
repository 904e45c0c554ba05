// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the background jobs on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/wpbridge/internal/model"
)

// ErrUnknownJob is returned by Trigger for a name that was never added.
var ErrUnknownJob = errors.New("unknown job")

// Job is one scheduled task.
type Job struct {
	Name        string
	Description string
	Schedule    string // Standard 5-field cron spec or a descriptor such as @daily
	Timeout     time.Duration
	Run         func(ctx context.Context) error
}

// JobInfo is the public view of a job.
type JobInfo struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Schedule    string    `json:"schedule"`
	LastRun     time.Time `json:"last_run,omitzero"`
	LastError   string    `json:"last_error,omitempty"`
	LastElapsed string    `json:"last_elapsed,omitempty"`
	NextRun     time.Time `json:"next_run,omitzero"`
	Runs        int64     `json:"runs"`
}

type registeredJob struct {
	job     Job
	entryID cron.EntryID

	mu          sync.Mutex
	running     bool
	lastRun     time.Time
	lastErr     error
	lastElapsed time.Duration
	runs        int64
}

// Scheduler wraps a cron instance with named jobs that can also be triggered
// by hand. Runs of the same job never overlap.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.RWMutex
	jobs map[string]*registeredJob
}

// New creates a scheduler.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl))),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]*registeredJob),
	}
}

// Add registers a job. The schedule is validated here.
func (s *Scheduler) Add(job Job) error {
	if job.Name == "" || job.Run == nil {
		return errors.New("job needs a name and a run function")
	}
	if _, err := cron.ParseStandard(job.Schedule); err != nil {
		return fmt.Errorf("job %s: invalid schedule %q: %w", job.Name, job.Schedule, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("job %s already registered", job.Name)
	}

	rj := &registeredJob{job: job}
	id, err := s.cron.AddFunc(job.Schedule, func() { _ = s.run(s.ctx, rj) })
	if err != nil {
		return fmt.Errorf("job %s: %w", job.Name, err)
	}
	rj.entryID = id
	s.jobs[job.Name] = rj
	return nil
}

// Start begins running jobs on their schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop cancels running jobs and waits for them until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out")
		return
	}
	s.logger.Info("scheduler stopped")
}

// Trigger runs a job now and returns its error. A run already in progress
// is not duplicated; Trigger then returns nil immediately.
func (s *Scheduler) Trigger(ctx context.Context, name string) error {
	s.mu.RLock()
	rj, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.run(ctx, rj)
}

// Jobs lists the registered jobs ordered by name.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for _, rj := range s.jobs {
		entry := s.cron.Entry(rj.entryID)

		rj.mu.Lock()
		info := JobInfo{
			Name:        rj.job.Name,
			Description: rj.job.Description,
			Schedule:    rj.job.Schedule,
			LastRun:     rj.lastRun,
			NextRun:     entry.Next,
			Runs:        rj.runs,
		}
		if rj.lastErr != nil {
			info.LastError = rj.lastErr.Error()
		}
		if !rj.lastRun.IsZero() {
			info.LastElapsed = rj.lastElapsed.Round(time.Millisecond).String()
		}
		rj.mu.Unlock()

		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Scheduler) run(ctx context.Context, rj *registeredJob) error {
	rj.mu.Lock()
	if rj.running {
		rj.mu.Unlock()
		s.logger.Debug("job still running, skipped", "job", rj.job.Name)
		return nil
	}
	rj.running = true
	rj.mu.Unlock()

	if rj.job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rj.job.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := rj.job.Run(ctx)
	elapsed := time.Since(start)

	rj.mu.Lock()
	rj.running = false
	rj.lastRun = start
	rj.lastErr = err
	rj.lastElapsed = elapsed
	rj.runs++
	rj.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled job failed", "job", rj.job.Name, "error", err, "category", model.EventCategorySystem)
	} else {
		s.logger.Debug("scheduled job finished", "job", rj.job.Name, "elapsed", elapsed)
	}
	return err
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
