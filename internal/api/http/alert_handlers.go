package apihttp

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

func (s *Server) listAlerts(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid limit"})
			return
		}
		limit = parsed
	}
	list, err := s.deps.Alerts.List(r.Context(), r.URL.Query().Get("severity"), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) unreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := s.deps.Alerts.UnreadCount(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) markSent(w http.ResponseWriter, r *http.Request) {
	alert, err := s.deps.Alerts.MarkSent(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

func (s *Server) clearAlerts(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Alerts.Clear(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "All alerts cleared", "deleted": n})
}

func (s *Server) sendPending(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Alerts.SendPending(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
