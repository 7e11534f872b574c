package render

import (
	"fmt"
	"strings"

	reports "waterhealth-cloud/internal/reports/domain"
	risk "waterhealth-cloud/internal/risk/domain"
)

// Branding holds the names and numbers printed on every report.
type Branding struct {
	Name               string `yaml:"name"`
	Tagline            string `yaml:"tagline"`
	EmergencyNumber    string `yaml:"emergency_number"`
	SurveillanceNumber string `yaml:"surveillance_number"`
	HelplineNumber     string `yaml:"helpline_number"`
	WaterAuthority     string `yaml:"water_authority"`
}

// DefaultBranding returns the stock branding.
func DefaultBranding() Branding {
	return Branding{
		Name:               "JalRaksha",
		Tagline:            "Water Health Intelligence",
		EmergencyNumber:    "108",
		SurveillanceNumber: "104",
		HelplineNumber:     "1800-180-5678",
		WaterAuthority:     "CMWSSB / TWAD Board",
	}
}

// WithDefaults fills empty fields from DefaultBranding.
func (b Branding) WithDefaults() Branding {
	def := DefaultBranding()
	if strings.TrimSpace(b.Name) == "" {
		b.Name = def.Name
	}
	if strings.TrimSpace(b.Tagline) == "" {
		b.Tagline = def.Tagline
	}
	if strings.TrimSpace(b.EmergencyNumber) == "" {
		b.EmergencyNumber = def.EmergencyNumber
	}
	if strings.TrimSpace(b.SurveillanceNumber) == "" {
		b.SurveillanceNumber = def.SurveillanceNumber
	}
	if strings.TrimSpace(b.HelplineNumber) == "" {
		b.HelplineNumber = def.HelplineNumber
	}
	if strings.TrimSpace(b.WaterAuthority) == "" {
		b.WaterAuthority = def.WaterAuthority
	}
	return b
}

// RiskColor maps a level to its badge color.
func RiskColor(level risk.Level) string {
	switch level {
	case risk.LevelLow:
		return "green"
	case risk.LevelMedium:
		return "orange"
	case risk.LevelHigh:
		return "red"
	case risk.LevelCritical:
		return "darkred"
	default:
		return "gray"
	}
}

// Subject is the e-mail subject line for a report.
func Subject(report *reports.AreaReport, brand Branding) string {
	brand = brand.WithDefaults()
	return fmt.Sprintf("[%s] Water Health Report — %s | %s Risk", brand.Name, report.Area, report.Risk.Level)
}

// ParameterRow is one line of the water-quality table.
type ParameterRow struct {
	Name      string
	Value     string
	SafeRange string
}

// WaterParameterRows lists the displayed water parameters with their safe ranges.
func WaterParameterRows(wq *risk.WaterQuality) []ParameterRow {
	if wq == nil {
		return nil
	}
	return []ParameterRow{
		{"pH", reports.FormatValue(wq.PH), fmt.Sprintf("%g – %g", reports.PHMin, reports.PHMax)},
		{"Turbidity (NTU)", reports.FormatValue(wq.Turbidity), fmt.Sprintf("< %g NTU", reports.TurbiditySafeTargetNTU)},
		{"Hardness (mg/L)", reports.FormatValue(wq.Hardness), fmt.Sprintf("< %g mg/L", reports.HardnessLimitMgL)},
		{"Chloramines (ppm)", reports.FormatValue(wq.Chloramines), fmt.Sprintf("< %g ppm", reports.ChloraminesSafeTargetPPM)},
		{"Trihalomethanes (µg/L)", reports.FormatValue(wq.Trihalomethanes), fmt.Sprintf("< %g µg/L", reports.TrihalomethanesLimitUgL)},
		{"Conductivity", reports.FormatValue(wq.Conductivity), fmt.Sprintf("< %g µS/cm", reports.ConductivitySafeTarget)},
		{"Organic Carbon", reports.FormatValue(wq.OrganicCarbon), fmt.Sprintf("< %g mg/L", reports.OrganicCarbonSafeTarget)},
	}
}

// Weather factor thresholds.
const (
	HeavyRainfallMM     = 50.0
	HighHumidityPercent = 85.0
	HighTemperatureC    = 30.0
)

// FallbackFactor is used when no weather threshold is exceeded.
const FallbackFactor = "Seasonal weather changes affecting water source quality"

// EnvironmentalFactors describes the weather conditions contributing to risk.
func EnvironmentalFactors(w *risk.Weather) []string {
	var factors []string
	if w != nil {
		if w.RainfallMM > HeavyRainfallMM {
			factors = append(factors, fmt.Sprintf("Heavy rainfall (%s mm) flushing surface contaminants", reports.FormatValue(w.RainfallMM)))
		}
		if w.FloodRisk {
			factors = append(factors, "Flood risk — sewage mixing with drinking water possible")
		}
		if w.Humidity > HighHumidityPercent {
			factors = append(factors, fmt.Sprintf("High humidity (%s%%) accelerating microbial growth", reports.FormatValue(w.Humidity)))
		}
		if w.Temperature > HighTemperatureC {
			factors = append(factors, fmt.Sprintf("High temperature (%s°C) promoting bacterial growth", reports.FormatValue(w.Temperature)))
		}
	}
	if len(factors) == 0 {
		factors = append(factors, FallbackFactor)
	}
	return factors
}

// RecommendedActions is the fixed response checklist for an area.
func RecommendedActions(area string, brand Branding) []string {
	brand = brand.WithDefaults()
	return []string{
		fmt.Sprintf("Deploy mobile water testing units to %s within 24 hours", area),
		"Issue a public advisory for residents to boil water before use",
		"Inspect and repair sewage infrastructure and open drains in the area",
		"Distribute ORS packets and water purification tablets at public centres",
		"Increase surveillance frequency for waterborne disease cases at local PHCs",
		fmt.Sprintf("Coordinate with %s for emergency water supply", brand.WaterAuthority),
		"Activate rapid response teams if active disease cases exceed threshold",
	}
}

func formatScore(score float64) string {
	return fmt.Sprintf("%.1f", score)
}

func levelUpper(level risk.Level) string {
	return strings.ToUpper(string(level))
}
