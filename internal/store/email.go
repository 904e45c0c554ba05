package store

import (
	"context"
	"database/sql"
	"time"
)

const getEmailSettings = `
SELECT enabled, smtp_host, smtp_port, username, password, from_address, from_name, notify_address, updated_at
FROM email_settings WHERE id = 1`

// GetEmailSettings returns the SMTP configuration.
func (q *Queries) GetEmailSettings(ctx context.Context) (EmailSettings, error) {
	var i EmailSettings
	err := q.db.QueryRowContext(ctx, getEmailSettings).Scan(
		&i.Enabled, &i.SMTPHost, &i.SMTPPort, &i.Username, &i.Password,
		&i.FromAddress, &i.FromName, &i.NotifyAddress, &i.UpdatedAt,
	)
	return i, err
}

const updateEmailSettings = `
UPDATE email_settings SET
    enabled = ?, smtp_host = ?, smtp_port = ?, username = ?,
    password = COALESCE(?, password),
    from_address = ?, from_name = ?, notify_address = ?, updated_at = ?
WHERE id = 1
RETURNING enabled, smtp_host, smtp_port, username, password, from_address, from_name, notify_address, updated_at`

// UpdateEmailSettingsParams holds the values for UpdateEmailSettings.
// A NULL Password keeps the stored one.
type UpdateEmailSettingsParams struct {
	Enabled       bool
	SMTPHost      string
	SMTPPort      int64
	Username      string
	Password      sql.NullString
	FromAddress   string
	FromName      string
	NotifyAddress string
	UpdatedAt     time.Time
}

// UpdateEmailSettings replaces the SMTP configuration.
func (q *Queries) UpdateEmailSettings(ctx context.Context, arg UpdateEmailSettingsParams) (EmailSettings, error) {
	var i EmailSettings
	err := q.db.QueryRowContext(ctx, updateEmailSettings,
		arg.Enabled, arg.SMTPHost, arg.SMTPPort, arg.Username, arg.Password,
		arg.FromAddress, arg.FromName, arg.NotifyAddress, arg.UpdatedAt,
	).Scan(
		&i.Enabled, &i.SMTPHost, &i.SMTPPort, &i.Username, &i.Password,
		&i.FromAddress, &i.FromName, &i.NotifyAddress, &i.UpdatedAt,
	)
	return i, err
}
