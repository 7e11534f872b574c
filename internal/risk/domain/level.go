package risk

// Level is the discrete outbreak-risk classification.
type Level string

const (
	LevelLow      Level = "Low"
	LevelMedium   Level = "Medium"
	LevelHigh     Level = "High"
	LevelCritical Level = "Critical"

	// LevelUnknown is only used for display when an area has no assessment.
	LevelUnknown Level = "Unknown"
)

// Level band lower bounds on the composite score.
const (
	MediumThreshold   = 25.0
	HighThreshold     = 50.0
	CriticalThreshold = 75.0
)

// LevelForScore classifies a composite score. Boundaries belong to the higher band.
func LevelForScore(score float64) Level {
	switch {
	case score < MediumThreshold:
		return LevelLow
	case score < HighThreshold:
		return LevelMedium
	case score < CriticalThreshold:
		return LevelHigh
	default:
		return LevelCritical
	}
}

// ParseLevel validates a level string. Matching is case-sensitive.
func ParseLevel(value string) (Level, bool) {
	switch Level(value) {
	case LevelLow, LevelMedium, LevelHigh, LevelCritical:
		return Level(value), true
	default:
		return "", false
	}
}

// Alerting reports whether an assessment at this level raises an alert.
func (l Level) Alerting() bool {
	return l == LevelHigh || l == LevelCritical
}

func (l Level) String() string {
	return string(l)
}
