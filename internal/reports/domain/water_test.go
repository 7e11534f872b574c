package reports_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	reports "waterhealth-cloud/internal/reports/domain"
	risk "waterhealth-cloud/internal/risk/domain"
)

func TestWaterIssuesOrderAndText(t *testing.T) {
	wq := &risk.WaterQuality{
		PH:              5.9,
		Turbidity:       18.5,
		Hardness:        320,
		Chloramines:     9.1,
		Trihalomethanes: 95.25,
	}

	assert.Equal(t, []string{
		"pH 5.9 (safe: 6.5–8.5)",
		"Turbidity 18.5 NTU (safe: <1 NTU)",
		"Hardness 320.0 mg/L (safe: <300 mg/L)",
		"Chloramines 9.1 ppm (safe: <4 ppm)",
		"Trihalomethanes 95.25 µg/L (safe: <80 µg/L)",
	}, reports.WaterIssues(wq))
}

func TestWaterIssuesUsesAdvisoryThresholds(t *testing.T) {
	tests := []struct {
		name string
		wq   risk.WaterQuality
		want int
	}{
		{"all safe", risk.WaterQuality{PH: 7.2, Turbidity: 1.2, Hardness: 180, Chloramines: 3.1, Trihalomethanes: 40}, 0},
		{"ph bounds inclusive", risk.WaterQuality{PH: 6.5}, 0},
		{"ph upper bound", risk.WaterQuality{PH: 8.5}, 0},
		{"turbidity at advisory", risk.WaterQuality{PH: 7, Turbidity: 4}, 0},
		{"turbidity above advisory", risk.WaterQuality{PH: 7, Turbidity: 4.1}, 1},
		{"chloramines between targets", risk.WaterQuality{PH: 7, Chloramines: 6}, 0},
		{"chloramines above advisory", risk.WaterQuality{PH: 7, Chloramines: 8.2}, 1},
		{"hardness at limit", risk.WaterQuality{PH: 7, Hardness: 300}, 0},
		{"thm above limit", risk.WaterQuality{PH: 7, Trihalomethanes: 81}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wq := tt.wq
			assert.Len(t, reports.WaterIssues(&wq), tt.want)
		})
	}
}

func TestWaterIssuesNilSample(t *testing.T) {
	issues := reports.WaterIssues(nil)
	assert.NotNil(t, issues)
	assert.Empty(t, issues)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "7.0", reports.FormatValue(7))
	assert.Equal(t, "7.25", reports.FormatValue(7.25))
	assert.Equal(t, "0.0", reports.FormatValue(0))
	assert.Equal(t, "-1.5", reports.FormatValue(-1.5))
}

func TestSnapshot(t *testing.T) {
	unknown := reports.Snapshot(nil)
	assert.Equal(t, risk.LevelUnknown, unknown.Level)
	assert.Equal(t, 0.0, unknown.Score)
	assert.Nil(t, unknown.UpdatedAt)

	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	snap := reports.Snapshot(&risk.Assessment{Area: "Avadi", Score: 62.4, Level: risk.LevelHigh, UpdatedAt: at})
	assert.Equal(t, risk.LevelHigh, snap.Level)
	assert.Equal(t, 62.4, snap.Score)
	if assert.NotNil(t, snap.UpdatedAt) {
		assert.Equal(t, at, *snap.UpdatedAt)
	}
}
