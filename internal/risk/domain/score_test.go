package risk_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	risk "waterhealth-cloud/internal/risk/domain"
)

func TestTurbidityScoreBands(t *testing.T) {
	tests := []struct {
		ntu  float64
		want float64
	}{
		{-5, 0},
		{0, 0},
		{1, 0},
		{1.2, 20},
		{4, 20},
		{4.01, 50},
		{10, 50},
		{18.5, 75},
		{25, 75},
		{25.1, 100},
		{1e9, 100},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, risk.TurbidityScore(tt.ntu), "ntu=%v", tt.ntu)
	}
}

func TestTurbidityScoreMonotonicAndBounded(t *testing.T) {
	prev := risk.TurbidityScore(0)
	for ntu := 0.0; ntu <= 60; ntu += 0.05 {
		score := risk.TurbidityScore(ntu)
		assert.GreaterOrEqual(t, score, prev, "ntu=%v", ntu)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 100.0)
		prev = score
	}
}

func TestPHScoreBands(t *testing.T) {
	tests := []struct {
		ph   float64
		want float64
	}{
		{6.5, 0},
		{7.2, 0},
		{8.5, 0},
		{6.3, 30},
		{6.0, 30},
		{8.6, 30},
		{9.0, 30},
		{5.9, 60},
		{5.5, 60},
		{9.5, 60},
		{5.49, 100},
		{9.51, 100},
		{0, 100},
		{-3, 100},
		{14, 100},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, risk.PHScore(tt.ph), "ph=%v", tt.ph)
	}
}

func TestRainfallScoreBands(t *testing.T) {
	tests := []struct {
		mm   float64
		want float64
	}{
		{-1, 0},
		{0, 0},
		{0.1, 15},
		{10, 15},
		{45, 45},
		{50, 45},
		{85, 70},
		{100, 70},
		{150, 100},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, risk.RainfallScore(tt.mm), "mm=%v", tt.mm)
	}
}

func TestCaseSpikeScore(t *testing.T) {
	tests := []struct {
		name          string
		active, total int
		want          float64
	}{
		{"no cases", 0, 0, 0},
		{"zero total with actives", 10, 0, 0},
		{"negative total", 5, -10, 0},
		{"fifteen percent", 620, 4200, 25},
		{"under ten percent", 210, 2400, 0},
		{"twenty percent", 1500, 6800, 50},
		{"thirty five percent", 35, 100, 75},
		{"half", 50, 100, 100},
		{"majority", 6000, 11000, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, risk.CaseSpikeScore(tt.active, tt.total))
		})
	}
}

func TestScoreFunctionsHandleNonFiniteInputs(t *testing.T) {
	for _, v := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		for _, score := range []float64{risk.TurbidityScore(v), risk.PHScore(v), risk.RainfallScore(v)} {
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 100.0)
		}
	}
}
