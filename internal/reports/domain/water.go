package reports

import (
	"fmt"
	"strconv"
	"strings"

	risk "waterhealth-cloud/internal/risk/domain"
)

// Water-quality thresholds. Violations are flagged against the advisory
// limits; the safe targets are what the public text quotes. Turbidity and
// chloramines keep both numbers until the policy owners settle on one.
const (
	PHMin = 6.5
	PHMax = 8.5

	TurbidityAdvisoryNTU   = 4.0
	TurbiditySafeTargetNTU = 1.0

	HardnessLimitMgL = 300.0

	ChloraminesAdvisoryPPM   = 8.0
	ChloraminesSafeTargetPPM = 4.0

	TrihalomethanesLimitUgL = 80.0

	ConductivitySafeTarget  = 500.0
	OrganicCarbonSafeTarget = 2.0
)

// WaterIssues lists violated parameters in a fixed order: pH, turbidity,
// hardness, chloramines, trihalomethanes. A nil sample has no issues.
func WaterIssues(wq *risk.WaterQuality) []string {
	issues := []string{}
	if wq == nil {
		return issues
	}
	if wq.PH < PHMin || wq.PH > PHMax {
		issues = append(issues, fmt.Sprintf("pH %s (safe: %g–%g)", FormatValue(wq.PH), PHMin, PHMax))
	}
	if wq.Turbidity > TurbidityAdvisoryNTU {
		issues = append(issues, fmt.Sprintf("Turbidity %s NTU (safe: <%g NTU)", FormatValue(wq.Turbidity), TurbiditySafeTargetNTU))
	}
	if wq.Hardness > HardnessLimitMgL {
		issues = append(issues, fmt.Sprintf("Hardness %s mg/L (safe: <%g mg/L)", FormatValue(wq.Hardness), HardnessLimitMgL))
	}
	if wq.Chloramines > ChloraminesAdvisoryPPM {
		issues = append(issues, fmt.Sprintf("Chloramines %s ppm (safe: <%g ppm)", FormatValue(wq.Chloramines), ChloraminesSafeTargetPPM))
	}
	if wq.Trihalomethanes > TrihalomethanesLimitUgL {
		issues = append(issues, fmt.Sprintf("Trihalomethanes %s µg/L (safe: <%g µg/L)", FormatValue(wq.Trihalomethanes), TrihalomethanesLimitUgL))
	}
	return issues
}

// FormatValue prints a measurement with the shortest exact decimal form and at least one fractional digit.
func FormatValue(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEIN") {
		s += ".0"
	}
	return s
}
