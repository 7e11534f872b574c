package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	risk "waterhealth-cloud/internal/risk/domain"
)

// ObservationRepository reads and records water, weather and disease observations.
type ObservationRepository struct {
	db *sql.DB
}

// NewObservationRepository constructs a repository.
func NewObservationRepository(db *sql.DB) *ObservationRepository {
	return &ObservationRepository{db: db}
}

// InsertWater records a water sample.
func (r *ObservationRepository) InsertWater(ctx context.Context, wq *risk.WaterQuality) error {
	if r == nil || r.db == nil {
		return errors.New("observation repo: nil db")
	}
	if wq == nil || strings.TrimSpace(wq.Area) == "" {
		return risk.ErrEmptyArea
	}
	if wq.RecordedAt.IsZero() {
		wq.RecordedAt = time.Now().UTC()
	}
	return r.db.QueryRowContext(ctx, `
INSERT INTO water_quality (
	area, ph, turbidity, hardness, chloramines, conductivity, organic_carbon, trihalomethanes, recorded_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id`,
		wq.Area, wq.PH, wq.Turbidity, wq.Hardness, wq.Chloramines,
		wq.Conductivity, wq.OrganicCarbon, wq.Trihalomethanes, wq.RecordedAt,
	).Scan(&wq.ID)
}

// InsertWeather records a weather observation.
func (r *ObservationRepository) InsertWeather(ctx context.Context, w *risk.Weather) error {
	if r == nil || r.db == nil {
		return errors.New("observation repo: nil db")
	}
	if w == nil || strings.TrimSpace(w.Area) == "" {
		return risk.ErrEmptyArea
	}
	if w.RecordedAt.IsZero() {
		w.RecordedAt = time.Now().UTC()
	}
	return r.db.QueryRowContext(ctx, `
INSERT INTO weather_data (area, rainfall_mm, temperature, humidity, flood_risk, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`,
		w.Area, w.RainfallMM, w.Temperature, w.Humidity, w.FloodRisk, w.RecordedAt,
	).Scan(&w.ID)
}

// InsertDisease records disease case counts.
func (r *ObservationRepository) InsertDisease(ctx context.Context, d *risk.DiseaseCases) error {
	if r == nil || r.db == nil {
		return errors.New("observation repo: nil db")
	}
	if d == nil || strings.TrimSpace(d.Area) == "" {
		return risk.ErrEmptyArea
	}
	if d.RecordedAt.IsZero() {
		d.RecordedAt = time.Now().UTC()
	}
	return r.db.QueryRowContext(ctx, `
INSERT INTO disease_cases (disease, area, total_cases, active_cases, recovered, deaths, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`,
		d.Disease, d.Area, d.TotalCases, d.ActiveCases, d.Recovered, d.Deaths, d.RecordedAt,
	).Scan(&d.ID)
}

// LatestWater returns the newest water sample for the area, or nil.
func (r *ObservationRepository) LatestWater(ctx context.Context, area string) (*risk.WaterQuality, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("observation repo: nil db")
	}
	var wq risk.WaterQuality
	err := r.db.QueryRowContext(ctx, `
SELECT id, area, ph, turbidity, hardness, chloramines, conductivity, organic_carbon, trihalomethanes, recorded_at
FROM water_quality
WHERE area = $1
ORDER BY recorded_at DESC, id DESC
LIMIT 1`, area).Scan(
		&wq.ID, &wq.Area, &wq.PH, &wq.Turbidity, &wq.Hardness, &wq.Chloramines,
		&wq.Conductivity, &wq.OrganicCarbon, &wq.Trihalomethanes, &wq.RecordedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	wq.RecordedAt = wq.RecordedAt.UTC()
	return &wq, nil
}

// LatestWeather returns the newest weather observation for the area, or nil.
func (r *ObservationRepository) LatestWeather(ctx context.Context, area string) (*risk.Weather, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("observation repo: nil db")
	}
	var w risk.Weather
	err := r.db.QueryRowContext(ctx, `
SELECT id, area, rainfall_mm, temperature, humidity, flood_risk, recorded_at
FROM weather_data
WHERE area = $1
ORDER BY recorded_at DESC, id DESC
LIMIT 1`, area).Scan(&w.ID, &w.Area, &w.RainfallMM, &w.Temperature, &w.Humidity, &w.FloodRisk, &w.RecordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	w.RecordedAt = w.RecordedAt.UTC()
	return &w, nil
}

// LatestDisease returns the newest disease record for the area, or nil.
func (r *ObservationRepository) LatestDisease(ctx context.Context, area string) (*risk.DiseaseCases, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("observation repo: nil db")
	}
	var d risk.DiseaseCases
	err := r.db.QueryRowContext(ctx, `
SELECT id, disease, area, total_cases, active_cases, recovered, deaths, recorded_at
FROM disease_cases
WHERE area = $1
ORDER BY recorded_at DESC, id DESC
LIMIT 1`, area).Scan(&d.ID, &d.Disease, &d.Area, &d.TotalCases, &d.ActiveCases, &d.Recovered, &d.Deaths, &d.RecordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	d.RecordedAt = d.RecordedAt.UTC()
	return &d, nil
}
