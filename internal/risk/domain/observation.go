package risk

import (
	"math"
	"time"
)

// WaterQuality is a water sample recorded for an area.
type WaterQuality struct {
	ID              int64     `json:"id"`
	Area            string    `json:"area"`
	PH              float64   `json:"ph"`
	Turbidity       float64   `json:"turbidity"`
	Hardness        float64   `json:"hardness"`
	Chloramines     float64   `json:"chloramines"`
	Conductivity    float64   `json:"conductivity"`
	OrganicCarbon   float64   `json:"organic_carbon"`
	Trihalomethanes float64   `json:"trihalomethanes"`
	RecordedAt      time.Time `json:"recorded_at"`
}

// Weather is a weather observation recorded for an area.
type Weather struct {
	ID          int64     `json:"id"`
	Area        string    `json:"area"`
	RainfallMM  float64   `json:"rainfall_mm"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	FloodRisk   bool      `json:"flood_risk"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// DiseaseCases is a disease case count recorded for an area.
type DiseaseCases struct {
	ID          int64     `json:"id"`
	Disease     string    `json:"disease"`
	Area        string    `json:"area"`
	TotalCases  int       `json:"total_cases"`
	ActiveCases int       `json:"active_cases"`
	Recovered   int       `json:"recovered"`
	Deaths      int       `json:"deaths"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// WaterInput carries the water metrics used for scoring. Nil fields are missing.
type WaterInput struct {
	PH        *float64 `json:"ph,omitempty"`
	Turbidity *float64 `json:"turbidity,omitempty"`
}

// WeatherInput carries the weather metrics used for scoring.
type WeatherInput struct {
	RainfallMM *float64 `json:"rainfall_mm,omitempty"`
}

// DiseaseInput carries the case counts used for scoring.
type DiseaseInput struct {
	ActiveCases *int `json:"active_cases,omitempty"`
	TotalCases  *int `json:"total_cases,omitempty"`
}

// Input returns the scoring input for the sample.
func (w WaterQuality) Input() WaterInput {
	ph, turbidity := w.PH, w.Turbidity
	return WaterInput{PH: &ph, Turbidity: &turbidity}
}

// Input returns the scoring input for the observation.
func (w Weather) Input() WeatherInput {
	rainfall := w.RainfallMM
	return WeatherInput{RainfallMM: &rainfall}
}

// Input returns the scoring input for the case counts.
func (d DiseaseCases) Input() DiseaseInput {
	active, total := d.ActiveCases, d.TotalCases
	return DiseaseInput{ActiveCases: &active, TotalCases: &total}
}

func floatOr(value *float64, fallback float64) float64 {
	if value == nil || math.IsNaN(*value) {
		return fallback
	}
	return *value
}

func intOr(value *int, fallback int) int {
	if value == nil {
		return fallback
	}
	return *value
}
