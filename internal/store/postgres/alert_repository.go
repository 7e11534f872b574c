package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	alerts "waterhealth-cloud/internal/alerts/domain"
	risk "waterhealth-cloud/internal/risk/domain"
)

// AlertRepository is a Postgres repository for alerts.
type AlertRepository struct {
	db *sql.DB
}

// NewAlertRepository constructs a repository.
func NewAlertRepository(db *sql.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// AppendAlert inserts a new alert.
func (r *AlertRepository) AppendAlert(ctx context.Context, alert *alerts.Alert) error {
	if r == nil || r.db == nil {
		return errors.New("alert repo: nil db")
	}
	if alert == nil {
		return errors.New("alert repo: nil alert")
	}
	if alert.ID == "" || alert.Area == "" || alert.Severity == "" {
		return errors.New("alert repo: missing fields")
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO alerts (id, area, message, severity, is_sent, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
		alert.ID, alert.Area, alert.Message, string(alert.Severity), alert.Sent, alert.CreatedAt)
	return err
}

// ListAlerts returns alerts newest first.
func (r *AlertRepository) ListAlerts(ctx context.Context, filter alerts.ListFilter) ([]alerts.Alert, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alert repo: nil db")
	}
	filter = filter.Normalize()
	query := `
SELECT id, area, message, severity, is_sent, created_at
FROM alerts`
	args := []any{}
	if filter.Severity != "" {
		query += " WHERE severity = $1"
		args = append(args, string(filter.Severity))
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args)+1)
	args = append(args, filter.Limit)
	return r.query(ctx, query, args...)
}

// CountUnsent returns the number of alerts not yet delivered.
func (r *AlertRepository) CountUnsent(ctx context.Context) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("alert repo: nil db")
	}
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alerts WHERE is_sent = FALSE`).Scan(&count)
	return count, err
}

// ListUnsent returns undelivered alerts of the given severities, oldest first.
func (r *AlertRepository) ListUnsent(ctx context.Context, severities ...risk.Level) ([]alerts.Alert, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alert repo: nil db")
	}
	query := `
SELECT id, area, message, severity, is_sent, created_at
FROM alerts
WHERE is_sent = FALSE`
	args := []any{}
	if len(severities) > 0 {
		placeholders := make([]string, 0, len(severities))
		for _, level := range severities {
			args = append(args, string(level))
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		query += " AND severity IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY created_at ASC"
	return r.query(ctx, query, args...)
}

// MarkSent flips the sent flag and returns the updated alert.
func (r *AlertRepository) MarkSent(ctx context.Context, id string) (*alerts.Alert, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alert repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
UPDATE alerts
SET is_sent = TRUE
WHERE id = $1
RETURNING id, area, message, severity, is_sent, created_at`, id)
	alert, err := scanAlert(row)
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, alerts.ErrNotFound
	}
	return alert, nil
}

// ClearAlerts deletes every alert.
func (r *AlertRepository) ClearAlerts(ctx context.Context) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("alert repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM alerts`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *AlertRepository) query(ctx context.Context, query string, args ...any) ([]alerts.Alert, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []alerts.Alert{}
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *alert)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanAlert(row rowScanner) (*alerts.Alert, error) {
	var alert alerts.Alert
	var severity string
	if err := row.Scan(&alert.ID, &alert.Area, &alert.Message, &severity, &alert.Sent, &alert.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	alert.Severity = risk.Level(severity)
	alert.CreatedAt = alert.CreatedAt.UTC()
	return &alert, nil
}
