package reports

import (
	"errors"
	"time"

	risk "waterhealth-cloud/internal/risk/domain"
)

// ErrAreaNotFound is returned when an area has no risk record.
var ErrAreaNotFound = errors.New("reports: area not found")

// RiskSnapshot is the risk state captured in a report.
type RiskSnapshot struct {
	Level     risk.Level `json:"level"`
	Score     float64    `json:"score"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// AreaReport is a point-in-time view of one area. It is never persisted.
type AreaReport struct {
	ID          string             `json:"report_id"`
	GeneratedAt time.Time          `json:"generated_at"`
	Area        string             `json:"area"`
	Risk        RiskSnapshot       `json:"risk"`
	Water       *risk.WaterQuality `json:"water_quality"`
	Weather     *risk.Weather      `json:"weather"`
	Disease     *risk.DiseaseCases `json:"disease"`
	WaterIssues []string           `json:"water_issues"`
	FloodActive bool               `json:"flood_active"`
}

// Snapshot converts an assessment into its report form. A nil assessment reads as Unknown.
func Snapshot(a *risk.Assessment) RiskSnapshot {
	if a == nil {
		return RiskSnapshot{Level: risk.LevelUnknown, Score: 0}
	}
	updated := a.UpdatedAt
	return RiskSnapshot{
		Level:     risk.LevelForScore(a.Score),
		Score:     risk.RoundScore(a.Score),
		UpdatedAt: &updated,
	}
}

// HasDisease reports whether disease data is present.
func (r *AreaReport) HasDisease() bool {
	return r != nil && r.Disease != nil
}
