package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	risk "waterhealth-cloud/internal/risk/domain"
)

// RiskRepository persists per-area assessments, one row per area.
type RiskRepository struct {
	db *sql.DB
}

// NewRiskRepository constructs a repository.
func NewRiskRepository(db *sql.DB) *RiskRepository {
	return &RiskRepository{db: db}
}

// LatestRisk returns the assessment for the area, or nil.
func (r *RiskRepository) LatestRisk(ctx context.Context, area string) (*risk.Assessment, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("risk repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, area, risk_score, risk_level, lat, lng, updated_at
FROM risk_levels
WHERE area = $1`, area)
	return scanAssessment(row)
}

// ListAssessments returns every assessment ordered by area.
func (r *RiskRepository) ListAssessments(ctx context.Context) ([]risk.Assessment, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("risk repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, area, risk_score, risk_level, lat, lng, updated_at
FROM risk_levels
ORDER BY area`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []risk.Assessment{}
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpsertRisk writes score, level and timestamp for the area in one statement.
func (r *RiskRepository) UpsertRisk(ctx context.Context, area string, score float64, level risk.Level, at time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("risk repo: nil db")
	}
	if strings.TrimSpace(area) == "" {
		return risk.ErrEmptyArea
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO risk_levels (area, risk_score, risk_level, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (area) DO UPDATE
SET risk_score = EXCLUDED.risk_score,
	risk_level = EXCLUDED.risk_level,
	updated_at = EXCLUDED.updated_at`, area, score, string(level), at.UTC())
	return err
}

// RegisterArea adds an area with a Low placeholder assessment so recalculation picks it up.
// Existing rows only get their coordinates refreshed.
func (r *RiskRepository) RegisterArea(ctx context.Context, area string, lat, lng *float64) error {
	if r == nil || r.db == nil {
		return errors.New("risk repo: nil db")
	}
	if strings.TrimSpace(area) == "" {
		return risk.ErrEmptyArea
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO risk_levels (area, risk_score, risk_level, lat, lng, updated_at)
VALUES ($1, 0, $2, $3, $4, now())
ON CONFLICT (area) DO UPDATE
SET lat = COALESCE(EXCLUDED.lat, risk_levels.lat),
	lng = COALESCE(EXCLUDED.lng, risk_levels.lng)`,
		area, string(risk.LevelLow), nullableFloat(lat), nullableFloat(lng))
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssessment(row rowScanner) (*risk.Assessment, error) {
	var a risk.Assessment
	var level string
	var lat, lng sql.NullFloat64
	if err := row.Scan(&a.ID, &a.Area, &a.Score, &level, &lat, &lng, &a.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	a.Level = risk.Level(level)
	a.UpdatedAt = a.UpdatedAt.UTC()
	if lat.Valid {
		a.Lat = &lat.Float64
	}
	if lng.Valid {
		a.Lng = &lng.Float64
	}
	return &a, nil
}

func nullableFloat(value *float64) sql.NullFloat64 {
	if value == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *value, Valid: true}
}
