package risk

import (
	"errors"
	"time"
)

// ErrEmptyArea indicates a missing area name.
var ErrEmptyArea = errors.New("risk: empty area")

// Assessment is the materialized risk state of an area.
type Assessment struct {
	ID        int64     `json:"id"`
	Area      string    `json:"area"`
	Score     float64   `json:"score"`
	Level     Level     `json:"level"`
	Lat       *float64  `json:"lat"`
	Lng       *float64  `json:"lng"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Apply overwrites score and level from a calculation result.
func (a *Assessment) Apply(result Result, at time.Time) {
	if a == nil {
		return
	}
	a.Score = result.Score
	a.Level = LevelForScore(result.Score)
	a.UpdatedAt = at.UTC()
}
