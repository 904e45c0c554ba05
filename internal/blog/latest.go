// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package blog

import (
	"context"
	"sync"
)

// Ticket identifies one request issued through Latest.
type Ticket struct {
	seq uint64
	// Ctx is cancelled as soon as a newer ticket is issued.
	Ctx context.Context
}

// Seq returns the ticket's sequence number.
func (t Ticket) Seq() uint64 { return t.seq }

// Latest hands out monotonically increasing tickets and lets only the
// newest one commit its result. Issuing a ticket cancels the previous one.
// The zero value is ready to use.
type Latest struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// Begin issues a new ticket derived from parent and supersedes any
// in-flight one.
func (l *Latest) Begin(parent context.Context) Ticket {
	ctx, cancel := context.WithCancel(parent)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
	l.seq++
	l.cancel = cancel
	return Ticket{seq: l.seq, Ctx: ctx}
}

// IsCurrent reports whether t is still the newest ticket.
func (l *Latest) IsCurrent(t Ticket) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return t.seq == l.seq
}

// Commit runs apply only if t is still the newest ticket and reports
// whether it did. apply runs under the lock, so a newer Begin cannot
// interleave with it. apply must not call back into l.
func (l *Latest) Commit(t Ticket, apply func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t.seq != l.seq {
		return false
	}
	apply()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	return true
}

// Cancel abandons the in-flight ticket so that nothing issued so far can
// commit.
func (l *Latest) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.seq++
}
