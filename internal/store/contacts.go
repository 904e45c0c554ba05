// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
)

const contactColumns = `id, reference, name, email, company, phone, service, budget, message, status, notes,
browser, os, device_type, country, ip, created_at, updated_at`

func scanContact(row interface{ Scan(...any) error }) (Contact, error) {
	var i Contact
	err := row.Scan(
		&i.ID, &i.Reference, &i.Name, &i.Email, &i.Company, &i.Phone, &i.Service, &i.Budget,
		&i.Message, &i.Status, &i.Notes, &i.Browser, &i.OS, &i.DeviceType, &i.Country, &i.IP,
		&i.CreatedAt, &i.UpdatedAt,
	)
	return i, err
}

const createContact = `
INSERT INTO contacts (reference, name, email, company, phone, service, budget, message, status,
    browser, os, device_type, country, ip, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + contactColumns

// CreateContactParams holds the values for CreateContact.
type CreateContactParams struct {
	Reference  string
	Name       string
	Email      string
	Company    string
	Phone      string
	Service    string
	Budget     string
	Message    string
	Status     string
	Browser    string
	OS         string
	DeviceType string
	Country    string
	IP         string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CreateContact inserts a lead.
func (q *Queries) CreateContact(ctx context.Context, arg CreateContactParams) (Contact, error) {
	return scanContact(q.db.QueryRowContext(ctx, createContact,
		arg.Reference, arg.Name, arg.Email, arg.Company, arg.Phone, arg.Service, arg.Budget, arg.Message,
		arg.Status, arg.Browser, arg.OS, arg.DeviceType, arg.Country, arg.IP, arg.CreatedAt.UTC(), arg.UpdatedAt.UTC()))
}

const getContact = `SELECT ` + contactColumns + ` FROM contacts WHERE id = ?`

// GetContact returns one contact or sql.ErrNoRows.
func (q *Queries) GetContact(ctx context.Context, id int64) (Contact, error) {
	return scanContact(q.db.QueryRowContext(ctx, getContact, id))
}

const getContactByReference = `SELECT ` + contactColumns + ` FROM contacts WHERE reference = ?`

// GetContactByReference returns the contact with a public reference.
func (q *Queries) GetContactByReference(ctx context.Context, reference string) (Contact, error) {
	return scanContact(q.db.QueryRowContext(ctx, getContactByReference, reference))
}

const updateContact = `
UPDATE contacts SET status = ?, notes = ?, updated_at = ? WHERE id = ?
RETURNING ` + contactColumns

// UpdateContactParams holds the values for UpdateContact.
type UpdateContactParams struct {
	ID        int64
	Status    string
	Notes     string
	UpdatedAt time.Time
}

// UpdateContact changes the workflow fields of a contact.
func (q *Queries) UpdateContact(ctx context.Context, arg UpdateContactParams) (Contact, error) {
	return scanContact(q.db.QueryRowContext(ctx, updateContact, arg.Status, arg.Notes, arg.UpdatedAt, arg.ID))
}

const deleteContact = `DELETE FROM contacts WHERE id = ?`

// DeleteContact removes a contact and returns rows deleted.
func (q *Queries) DeleteContact(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteContact, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ContactFilter narrows ListContacts and CountContacts. Query matches
// name, email or company.
type ContactFilter struct {
	Status string
	Query  string
	Limit  uint64
	Offset uint64
}

func (f ContactFilter) where(b sq.SelectBuilder) sq.SelectBuilder {
	if f.Status != "" {
		b = b.Where(sq.Eq{"status": f.Status})
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		pattern := "%" + escapeLike(q) + "%"
		b = b.Where(sq.Or{
			sq.Expr(`name LIKE ? ESCAPE '\'`, pattern),
			sq.Expr(`email LIKE ? ESCAPE '\'`, pattern),
			sq.Expr(`company LIKE ? ESCAPE '\'`, pattern),
		})
	}
	return b
}

// ListContacts returns contacts newest first.
func (q *Queries) ListContacts(ctx context.Context, f ContactFilter) ([]Contact, error) {
	b := f.where(sq.Select(contactColumns).From("contacts")).
		OrderBy("created_at DESC", "id DESC")
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

	var items []Contact
	for rows.Next() {
		i, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// CountContacts counts contacts matching f. Limit and Offset are ignored.
func (q *Queries) CountContacts(ctx context.Context, f ContactFilter) (int64, error) {
	query, args, err := f.where(sq.Select("COUNT(*)").From("contacts")).ToSql()
	if err != nil {
		return 0, err
	}
	var n int64
	err = q.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

const countContactsByStatus = `SELECT status, COUNT(*) FROM contacts GROUP BY status`

// CountContactsByStatus returns the number of contacts per status.
func (q *Queries) CountContactsByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := q.db.QueryContext(ctx, countContactsByStatus)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	counts := map[string]int64{}
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
