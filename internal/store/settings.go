package store

import (
	"context"
	"time"
)

const listSettings = `SELECT key, value, updated_at FROM settings ORDER BY key`

// ListSettings returns all settings ordered by key.
func (q *Queries) ListSettings(ctx context.Context) ([]Setting, error) {
	rows, err := q.db.QueryContext(ctx, listSettings)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Setting
	for rows.Next() {
		var i Setting
		if err := rows.Scan(&i.Key, &i.Value, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getSetting = `SELECT key, value, updated_at FROM settings WHERE key = ?`

// GetSetting returns one setting or sql.ErrNoRows.
func (q *Queries) GetSetting(ctx context.Context, key string) (Setting, error) {
	var i Setting
	err := q.db.QueryRowContext(ctx, getSetting, key).Scan(&i.Key, &i.Value, &i.UpdatedAt)
	return i, err
}

const upsertSetting = `
INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
RETURNING key, value, updated_at`

// UpsertSettingParams holds the values for UpsertSetting.
type UpsertSettingParams struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// UpsertSetting creates or replaces a setting.
func (q *Queries) UpsertSetting(ctx context.Context, arg UpsertSettingParams) (Setting, error) {
	var i Setting
	err := q.db.QueryRowContext(ctx, upsertSetting, arg.Key, arg.Value, arg.UpdatedAt).
		Scan(&i.Key, &i.Value, &i.UpdatedAt)
	return i, err
}

const deleteSetting = `DELETE FROM settings WHERE key = ?`

// DeleteSetting removes a setting and returns the number of rows deleted.
func (q *Queries) DeleteSetting(ctx context.Context, key string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteSetting, key)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
