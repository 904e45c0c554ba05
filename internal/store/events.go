// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
)

const eventColumns = `id, level, category, message, metadata, created_at`

const createEvent = `
INSERT INTO events (level, category, message, metadata, created_at)
VALUES (?, ?, ?, ?, ?)
RETURNING ` + eventColumns

// CreateEventParams holds the values for CreateEvent.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	Metadata  string
	CreatedAt time.Time
}

// CreateEvent appends an entry to the event log.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (Event, error) {
	if arg.Metadata == "" {
		arg.Metadata = "{}"
	}
	var i Event
	err := q.db.QueryRowContext(ctx, createEvent, arg.Level, arg.Category, arg.Message, arg.Metadata, arg.CreatedAt.UTC()).
		Scan(&i.ID, &i.Level, &i.Category, &i.Message, &i.Metadata, &i.CreatedAt)
	return i, err
}

// EventFilter narrows ListEvents and CountEvents.
type EventFilter struct {
	Level    string
	Category string
	Limit    uint64
	Offset   uint64
}

func (f EventFilter) where(b sq.SelectBuilder) sq.SelectBuilder {
	if f.Level != "" {
		b = b.Where(sq.Eq{"level": f.Level})
	}
	if f.Category != "" {
		b = b.Where(sq.Eq{"category": f.Category})
	}
	return b
}

// ListEvents returns events newest first.
func (q *Queries) ListEvents(ctx context.Context, f EventFilter) ([]Event, error) {
	b := f.where(sq.Select(eventColumns).From("events")).OrderBy("created_at DESC", "id DESC")
	if f.Limit > 0 {
		b = b.Limit(f.Limit).Offset(f.Offset)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Event
	for rows.Next() {
		var i Event
		if err := rows.Scan(&i.ID, &i.Level, &i.Category, &i.Message, &i.Metadata, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// CountEvents counts events matching f.
func (q *Queries) CountEvents(ctx context.Context, f EventFilter) (int64, error) {
	query, args, err := f.where(sq.Select("COUNT(*)").From("events")).ToSql()
	if err != nil {
		return 0, err
	}
	var n int64
	err = q.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

const deleteEventsBefore = `DELETE FROM events WHERE created_at < ?`

// DeleteEventsBefore prunes the event log and returns rows deleted.
// Timestamps are stored in UTC so the text comparison orders correctly.
func (q *Queries) DeleteEventsBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteEventsBefore, before.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
