package apihttp

import (
	"encoding/json"
	"errors"
	"net/http"

	alertapp "waterhealth-cloud/internal/alerts/application"
	alerts "waterhealth-cloud/internal/alerts/domain"
	"waterhealth-cloud/internal/joblock"
	"waterhealth-cloud/internal/notify"
	reports "waterhealth-cloud/internal/reports/domain"
	risk "waterhealth-cloud/internal/risk/domain"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, reports.ErrAreaNotFound), errors.Is(err, alerts.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, risk.ErrEmptyArea), errors.Is(err, notify.ErrNoRecipients), errors.Is(err, alertapp.ErrInvalidSeverity):
		return http.StatusBadRequest
	case errors.Is(err, joblock.ErrLocked):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body required")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
