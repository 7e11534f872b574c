package risk

import "math"

// Sub-score weights. They sum to 1.
const (
	WeightTurbidity = 0.30
	WeightPH        = 0.20
	WeightRainfall  = 0.25
	WeightCaseSpike = 0.25
)

// Defaults applied to missing inputs. Each scores as zero risk.
const (
	DefaultTurbidityNTU = 1.0
	DefaultPH           = 7.0
	DefaultRainfallMM   = 0.0
	DefaultActiveCases  = 0
	DefaultTotalCases   = 0
)

// Breakdown lists the four sub-scores behind a composite score.
type Breakdown struct {
	Turbidity float64 `json:"turbidity_score"`
	PH        float64 `json:"ph_score"`
	Rainfall  float64 `json:"rainfall_score"`
	CaseSpike float64 `json:"case_spike_score"`
}

// Result is the output of CalculateRisk.
type Result struct {
	Score     float64   `json:"score"`
	Level     Level     `json:"level"`
	Breakdown Breakdown `json:"breakdown"`
}

// CalculateRisk combines the four sub-scores into a composite score and level.
// It has no side effects and never fails; missing inputs fall back to defaults.
func CalculateRisk(water WaterInput, weather WeatherInput, disease DiseaseInput) Result {
	breakdown := Breakdown{
		Turbidity: TurbidityScore(floatOr(water.Turbidity, DefaultTurbidityNTU)),
		PH:        PHScore(floatOr(water.PH, DefaultPH)),
		Rainfall:  RainfallScore(floatOr(weather.RainfallMM, DefaultRainfallMM)),
		CaseSpike: CaseSpikeScore(
			intOr(disease.ActiveCases, DefaultActiveCases),
			intOr(disease.TotalCases, DefaultTotalCases),
		),
	}
	total := WeightTurbidity*breakdown.Turbidity +
		WeightPH*breakdown.PH +
		WeightRainfall*breakdown.Rainfall +
		WeightCaseSpike*breakdown.CaseSpike

	score := clampScore(RoundScore(total))
	return Result{
		Score:     score,
		Level:     LevelForScore(score),
		Breakdown: breakdown,
	}
}

// RoundScore rounds to one decimal, halves away from zero.
func RoundScore(value float64) float64 {
	return math.Round(value*10) / 10
}

func clampScore(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}
