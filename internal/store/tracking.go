package store

import (
	"context"
	"time"
)

const trackingCodeColumns = `id, name, provider, code, placement, active, position, created_at, updated_at`

func scanTrackingCode(row interface{ Scan(...any) error }) (TrackingCode, error) {
	var i TrackingCode
	err := row.Scan(&i.ID, &i.Name, &i.Provider, &i.Code, &i.Placement, &i.Active, &i.Position, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

func (q *Queries) queryTrackingCodes(ctx context.Context, query string, args ...any) ([]TrackingCode, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []TrackingCode
	for rows.Next() {
		i, err := scanTrackingCode(rows)
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

const listTrackingCodes = `SELECT ` + trackingCodeColumns + ` FROM tracking_codes ORDER BY placement, position, id`

// ListTrackingCodes returns every tracking code.
func (q *Queries) ListTrackingCodes(ctx context.Context) ([]TrackingCode, error) {
	return q.queryTrackingCodes(ctx, listTrackingCodes)
}

const listActiveTrackingCodes = `SELECT ` + trackingCodeColumns + `
FROM tracking_codes WHERE active = 1 ORDER BY placement, position, id`

// ListActiveTrackingCodes returns the codes to inject, all placements.
func (q *Queries) ListActiveTrackingCodes(ctx context.Context) ([]TrackingCode, error) {
	return q.queryTrackingCodes(ctx, listActiveTrackingCodes)
}

const listActiveTrackingCodesByPlacement = `SELECT ` + trackingCodeColumns + `
FROM tracking_codes WHERE active = 1 AND placement = ? ORDER BY position, id`

// ListActiveTrackingCodesByPlacement returns the codes to inject at placement.
func (q *Queries) ListActiveTrackingCodesByPlacement(ctx context.Context, placement string) ([]TrackingCode, error) {
	return q.queryTrackingCodes(ctx, listActiveTrackingCodesByPlacement, placement)
}

const getTrackingCode = `SELECT ` + trackingCodeColumns + ` FROM tracking_codes WHERE id = ?`

// GetTrackingCode returns one tracking code or sql.ErrNoRows.
func (q *Queries) GetTrackingCode(ctx context.Context, id int64) (TrackingCode, error) {
	return scanTrackingCode(q.db.QueryRowContext(ctx, getTrackingCode, id))
}

const createTrackingCode = `
INSERT INTO tracking_codes (name, provider, code, placement, active, position, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + trackingCodeColumns

// CreateTrackingCodeParams holds the values for CreateTrackingCode.
type CreateTrackingCodeParams struct {
	Name      string
	Provider  string
	Code      string
	Placement string
	Active    bool
	Position  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateTrackingCode inserts a tracking code.
func (q *Queries) CreateTrackingCode(ctx context.Context, arg CreateTrackingCodeParams) (TrackingCode, error) {
	return scanTrackingCode(q.db.QueryRowContext(ctx, createTrackingCode,
		arg.Name, arg.Provider, arg.Code, arg.Placement, arg.Active, arg.Position, arg.CreatedAt, arg.UpdatedAt))
}

const updateTrackingCode = `
UPDATE tracking_codes
SET name = ?, provider = ?, code = ?, placement = ?, active = ?, position = ?, updated_at = ?
WHERE id = ?
RETURNING ` + trackingCodeColumns

// UpdateTrackingCodeParams holds the values for UpdateTrackingCode.
type UpdateTrackingCodeParams struct {
	ID        int64
	Name      string
	Provider  string
	Code      string
	Placement string
	Active    bool
	Position  int64
	UpdatedAt time.Time
}

// UpdateTrackingCode replaces a tracking code, or returns sql.ErrNoRows.
func (q *Queries) UpdateTrackingCode(ctx context.Context, arg UpdateTrackingCodeParams) (TrackingCode, error) {
	return scanTrackingCode(q.db.QueryRowContext(ctx, updateTrackingCode,
		arg.Name, arg.Provider, arg.Code, arg.Placement, arg.Active, arg.Position, arg.UpdatedAt, arg.ID))
}

const deleteTrackingCode = `DELETE FROM tracking_codes WHERE id = ?`

// DeleteTrackingCode removes a tracking code and returns rows deleted.
func (q *Queries) DeleteTrackingCode(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTrackingCode, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
