// Package seed loads a demonstration data set of Chennai areas.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	risk "waterhealth-cloud/internal/risk/domain"
)

// Target receives the seeded records.
type Target interface {
	ListAssessments(ctx context.Context) ([]risk.Assessment, error)
	RegisterArea(ctx context.Context, area string, lat, lng *float64) error
	InsertWater(ctx context.Context, wq *risk.WaterQuality) error
	InsertWeather(ctx context.Context, w *risk.Weather) error
	InsertDisease(ctx context.Context, d *risk.DiseaseCases) error
}

// Area is one seeded area with its first observations.
type Area struct {
	Name    string
	Lat     float64
	Lng     float64
	Water   risk.WaterQuality
	Weather risk.Weather
	Disease risk.DiseaseCases
}

var diseases = []string{
	"Cholera", "Typhoid", "Hepatitis A",
	"Dysentery", "Giardiasis", "Cryptosporidiosis",
	"Leptospirosis", "Gastroenteritis",
}

// Areas returns the demonstration data set.
func Areas() []Area {
	type row struct {
		name     string
		lat, lng float64
		water    [7]float64
		rain     float64
		temp     float64
		humidity float64
		flood    bool
		cases    [4]int
	}
	rows := []row{
		{"North Chennai", 13.1827, 80.2707, [7]float64{7.2, 1.2, 120, 6.5, 380, 14, 55}, 5, 28, 65, false, [4]int{4200, 620, 3480, 100}},
		{"South Chennai", 12.9716, 80.1562, [7]float64{6.8, 3.5, 180, 7.2, 420, 18, 65}, 45, 26, 80, false, [4]int{6800, 1500, 5100, 200}},
		{"Tambaram", 12.9249, 80.1000, [7]float64{7.5, 0.8, 95, 5.8, 310, 11, 44}, 2, 30, 60, false, [4]int{2100, 210, 1860, 30}},
		{"Ambattur", 13.1143, 80.1548, [7]float64{6.3, 12.0, 250, 9.1, 580, 22, 88}, 120, 24, 92, true, [4]int{9500, 4200, 4900, 400}},
		{"Avadi", 13.1067, 80.0972, [7]float64{8.1, 5.8, 160, 6.9, 445, 16, 60}, 70, 25, 85, true, [4]int{7200, 3100, 3800, 300}},
		{"Poonamallee", 13.0479, 80.0985, [7]float64{7.0, 2.1, 130, 6.2, 390, 13, 48}, 10, 29, 68, false, [4]int{3100, 500, 2520, 80}},
		{"Sholinganallur", 12.9010, 80.2279, [7]float64{5.9, 18.5, 290, 10.2, 620, 25, 95}, 150, 23, 95, true, [4]int{11000, 6000, 4500, 500}},
		{"Perambur", 13.1162, 80.2350, [7]float64{7.8, 1.5, 110, 5.5, 350, 12, 50}, 0, 32, 55, false, [4]int{1800, 180, 1590, 30}},
		{"Adyar", 13.0012, 80.2565, [7]float64{7.3, 4.2, 145, 7.0, 410, 15, 58}, 30, 27, 75, false, [4]int{5400, 900, 4380, 120}},
		{"Velachery", 12.9815, 80.2180, [7]float64{6.6, 8.9, 200, 8.3, 500, 20, 75}, 85, 25, 88, true, [4]int{8100, 3500, 4300, 300}},
		{"Anna Nagar", 13.0850, 80.2101, [7]float64{7.1, 1.0, 100, 6.0, 370, 13, 52}, 3, 31, 58, false, [4]int{2400, 250, 2110, 40}},
		{"T Nagar", 13.0418, 80.2341, [7]float64{7.4, 2.8, 135, 6.7, 400, 14, 56}, 20, 28, 70, false, [4]int{3600, 600, 2920, 80}},
	}

	out := make([]Area, 0, len(rows))
	for i, r := range rows {
		out = append(out, Area{
			Name: r.name,
			Lat:  r.lat,
			Lng:  r.lng,
			Water: risk.WaterQuality{
				Area: r.name, PH: r.water[0], Turbidity: r.water[1], Hardness: r.water[2],
				Chloramines: r.water[3], Conductivity: r.water[4], OrganicCarbon: r.water[5], Trihalomethanes: r.water[6],
			},
			Weather: risk.Weather{Area: r.name, RainfallMM: r.rain, Temperature: r.temp, Humidity: r.humidity, FloodRisk: r.flood},
			Disease: risk.DiseaseCases{
				Area: r.name, Disease: diseases[i%len(diseases)],
				TotalCases: r.cases[0], ActiveCases: r.cases[1], Recovered: r.cases[2], Deaths: r.cases[3],
			},
		})
	}
	return out
}

// LoadIfEmpty registers the demonstration areas and their observations unless
// any assessment already exists. It reports whether anything was written.
// Scores stay at the Low placeholder until the next recalculation.
func LoadIfEmpty(ctx context.Context, target Target, logger zerolog.Logger) (bool, error) {
	if target == nil {
		return false, errors.New("seed: nil target")
	}
	existing, err := target.ListAssessments(ctx)
	if err != nil {
		return false, fmt.Errorf("seed: list assessments: %w", err)
	}
	if len(existing) > 0 {
		logger.Info().Int("areas", len(existing)).Msg("seed skipped, data present")
		return false, nil
	}

	for _, area := range Areas() {
		lat, lng := area.Lat, area.Lng
		if err := target.RegisterArea(ctx, area.Name, &lat, &lng); err != nil {
			return false, fmt.Errorf("seed: register %s: %w", area.Name, err)
		}
		water, weather, disease := area.Water, area.Weather, area.Disease
		if err := target.InsertWater(ctx, &water); err != nil {
			return false, fmt.Errorf("seed: water %s: %w", area.Name, err)
		}
		if err := target.InsertWeather(ctx, &weather); err != nil {
			return false, fmt.Errorf("seed: weather %s: %w", area.Name, err)
		}
		if err := target.InsertDisease(ctx, &disease); err != nil {
			return false, fmt.Errorf("seed: disease %s: %w", area.Name, err)
		}
	}
	logger.Info().Int("areas", len(Areas())).Msg("seed data inserted")
	return true, nil
}
