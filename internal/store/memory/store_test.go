package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	alerts "waterhealth-cloud/internal/alerts/domain"
	risk "waterhealth-cloud/internal/risk/domain"
)

func TestLatestObservationsReturnNewest(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.InsertWater(ctx, &risk.WaterQuality{Area: "Adyar", PH: 7.0}))
	require.NoError(t, s.InsertWater(ctx, &risk.WaterQuality{Area: "Adyar", PH: 6.1}))

	wq, err := s.LatestWater(ctx, "Adyar")
	require.NoError(t, err)
	assert.Equal(t, 6.1, wq.PH)
	assert.Equal(t, int64(2), wq.ID)

	missing, err := s.LatestWeather(ctx, "Adyar")
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.ErrorIs(t, s.InsertDisease(ctx, &risk.DiseaseCases{Area: " "}), risk.ErrEmptyArea)
}

func TestFailNextIsOneShot(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	boom := errors.New("boom")
	s.FailNext("LatestRisk", boom)

	_, err := s.LatestRisk(ctx, "Adyar")
	assert.ErrorIs(t, err, boom)
	a, err := s.LatestRisk(ctx, "Adyar")
	assert.NoError(t, err)
	assert.Nil(t, a)
}

func TestUpsertRiskCreatesAndUpdates(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpsertRisk(ctx, "Guindy", 40, risk.LevelMedium, at))
	require.NoError(t, s.UpsertRisk(ctx, "Guindy", 80, risk.LevelCritical, at.Add(time.Hour)))

	list, err := s.ListAssessments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 80.0, list[0].Score)
	assert.Equal(t, risk.LevelCritical, list[0].Level)
	assert.Equal(t, at.Add(time.Hour), list[0].UpdatedAt)
}

func TestAlertLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	first, _ := alerts.MakeAlert("Adyar", risk.LevelHigh, 60, 10, t0)
	second, _ := alerts.MakeAlert("Avadi", risk.LevelCritical, 90, 10, t0.Add(time.Minute))
	third, _ := alerts.MakeAlert("Ennore", risk.LevelHigh, 55, 3, t0.Add(2*time.Minute))
	for _, a := range []alerts.Alert{first, second, third} {
		a := a
		require.NoError(t, s.AppendAlert(ctx, &a))
	}

	newest, err := s.ListAlerts(ctx, alerts.ListFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, newest, 2)
	assert.Equal(t, "Ennore", newest[0].Area)
	assert.Equal(t, "Avadi", newest[1].Area)

	high, err := s.ListAlerts(ctx, alerts.ListFilter{Severity: risk.LevelHigh})
	require.NoError(t, err)
	assert.Len(t, high, 2)

	marked, err := s.MarkSent(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, marked.Sent)
	_, err = s.MarkSent(ctx, "missing")
	assert.ErrorIs(t, err, alerts.ErrNotFound)

	unsent, err := s.ListUnsent(ctx, risk.LevelHigh, risk.LevelCritical)
	require.NoError(t, err)
	require.Len(t, unsent, 2)
	assert.Equal(t, "Adyar", unsent[0].Area)

	count, err := s.CountUnsent(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	n, err := s.ClearAlerts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	count, _ = s.CountUnsent(ctx)
	assert.Zero(t, count)
}

func TestRegisterAreaKeepsExistingScore(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	lat := 13.12
	require.NoError(t, s.RegisterArea(ctx, "Tondiarpet", nil, nil))
	require.NoError(t, s.UpsertRisk(ctx, "Tondiarpet", 84.5, risk.LevelCritical, time.Now()))
	require.NoError(t, s.RegisterArea(ctx, "Tondiarpet", &lat, nil))

	a, err := s.LatestRisk(ctx, "Tondiarpet")
	require.NoError(t, err)
	assert.Equal(t, 84.5, a.Score)
	require.NotNil(t, a.Lat)
	assert.Equal(t, 13.12, *a.Lat)
	assert.Nil(t, a.Lng)
}
