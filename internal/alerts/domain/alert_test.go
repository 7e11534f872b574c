package alerts_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	alerts "waterhealth-cloud/internal/alerts/domain"
	risk "waterhealth-cloud/internal/risk/domain"
)

func TestMakeAlertOnlyForHighAndCritical(t *testing.T) {
	at := time.Date(2026, 7, 4, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		level risk.Level
		want  bool
	}{
		{risk.LevelLow, false},
		{risk.LevelMedium, false},
		{risk.LevelHigh, true},
		{risk.LevelCritical, true},
		{risk.LevelUnknown, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			_, ok := alerts.MakeAlert("Tondiarpet", tt.level, 60, 10, at)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestMakeAlertFields(t *testing.T) {
	at := time.Date(2026, 7, 4, 9, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))

	alert, ok := alerts.MakeAlert("Tondiarpet", risk.LevelCritical, 84.5, 6000, at)
	require.True(t, ok)

	_, err := uuid.Parse(alert.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Tondiarpet", alert.Area)
	assert.Equal(t, risk.LevelCritical, alert.Severity)
	assert.False(t, alert.Sent)
	assert.Equal(t, time.UTC, alert.CreatedAt.Location())
	assert.True(t, alert.CreatedAt.Equal(at))
	assert.Equal(t, "⚠️ Critical outbreak risk in Tondiarpet. Score: 84.5. Active cases: 6000.", alert.Message)
}

func TestMakeAlertIDsAreUnique(t *testing.T) {
	a, _ := alerts.MakeAlert("Avadi", risk.LevelHigh, 55, 1, time.Now())
	b, _ := alerts.MakeAlert("Avadi", risk.LevelHigh, 55, 1, time.Now())
	assert.NotEqual(t, a.ID, b.ID)
}

func TestFormatMessageUsesOneDecimal(t *testing.T) {
	assert.Equal(t, "⚠️ High outbreak risk in Avadi. Score: 50.0. Active cases: 0.",
		alerts.FormatMessage("Avadi", risk.LevelHigh, 50, 0))
}
