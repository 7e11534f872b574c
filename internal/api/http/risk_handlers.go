package apihttp

import (
	"context"
	"net/http"
	"sort"

	"waterhealth-cloud/internal/joblock"
	riskapp "waterhealth-cloud/internal/risk/application"
	risk "waterhealth-cloud/internal/risk/domain"
)

type calculateRequest struct {
	PH          *float64 `json:"ph"`
	Turbidity   *float64 `json:"turbidity"`
	RainfallMM  *float64 `json:"rainfall_mm"`
	ActiveCases *int     `json:"active_cases"`
	TotalCases  *int     `json:"total_cases"`
}

// calculate scores ad-hoc inputs without touching stored state.
func (s *Server) calculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body: " + err.Error()})
		return
	}
	result := risk.CalculateRisk(
		risk.WaterInput{PH: req.PH, Turbidity: req.Turbidity},
		risk.WeatherInput{RainfallMM: req.RainfallMM},
		risk.DiseaseInput{ActiveCases: req.ActiveCases, TotalCases: req.TotalCases},
	)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) recalculate(w http.ResponseWriter, r *http.Request) {
	var result *riskapp.RecalculationResult
	err := joblock.With(r.Context(), s.deps.Locker, RecalculateJob, s.deps.LockTTL, func(ctx context.Context) error {
		var err error
		result, err = s.deps.Recalculator.RecalculateAll(ctx)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// listAreas returns assessments highest score first.
func (s *Server) listAreas(w http.ResponseWriter, r *http.Request) {
	areas, err := s.deps.Areas.ListAssessments(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if level := r.URL.Query().Get("level"); level != "" {
		parsed, ok := risk.ParseLevel(level)
		if !ok {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid level"})
			return
		}
		filtered := areas[:0]
		for _, a := range areas {
			if a.Level == parsed {
				filtered = append(filtered, a)
			}
		}
		areas = filtered
	}
	sort.SliceStable(areas, func(i, j int) bool { return areas[i].Score > areas[j].Score })
	writeJSON(w, http.StatusOK, areas)
}
