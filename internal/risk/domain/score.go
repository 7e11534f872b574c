package risk

// Sub-scores map one raw metric onto 0..100 using fixed bands.
// Band boundaries belong to the lower band, so 1 NTU scores 0 and 4 NTU scores 20.

// TurbidityScore scores turbidity in NTU.
func TurbidityScore(ntu float64) float64 {
	switch {
	case ntu <= 1:
		return 0
	case ntu <= 4:
		return 20
	case ntu <= 10:
		return 50
	case ntu <= 25:
		return 75
	default:
		return 100
	}
}

// PHScore scores distance of pH from the neutral drinking range.
func PHScore(ph float64) float64 {
	switch {
	case ph >= 6.5 && ph <= 8.5:
		return 0
	case (ph >= 6.0 && ph < 6.5) || (ph > 8.5 && ph <= 9.0):
		return 30
	case (ph >= 5.5 && ph < 6.0) || (ph > 9.0 && ph <= 9.5):
		return 60
	default:
		return 100
	}
}

// RainfallScore scores rainfall in millimetres. Non-positive rainfall scores 0.
func RainfallScore(mm float64) float64 {
	switch {
	case mm <= 0:
		return 0
	case mm <= 10:
		return 15
	case mm <= 50:
		return 45
	case mm <= 100:
		return 70
	default:
		return 100
	}
}

// CaseSpikeScore scores the share of active cases in the total case count.
func CaseSpikeScore(active, total int) float64 {
	if total <= 0 {
		return 0
	}
	ratio := float64(active) / float64(total)
	switch {
	case ratio < 0.1:
		return 0
	case ratio < 0.2:
		return 25
	case ratio < 0.35:
		return 50
	case ratio < 0.5:
		return 75
	default:
		return 100
	}
}
