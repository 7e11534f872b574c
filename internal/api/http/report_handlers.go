package apihttp

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"waterhealth-cloud/internal/observability/metrics"
	"waterhealth-cloud/internal/reports/render"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatHTML = "html"
	FormatText = "txt"
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.deps.Reports.Build(r.Context(), mux.Vars(r)["area"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) exportReport(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	format := strings.ToLower(vars["format"])
	start := time.Now()

	var (
		contentType string
		body        []byte
	)
	switch format {
	case FormatJSON, FormatHTML, FormatText, FormatPDF, FormatXLSX:
	default:
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "unsupported format " + format})
		return
	}

	report, err := s.deps.Reports.Build(r.Context(), vars["area"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	switch format {
	case FormatJSON:
		metrics.ObserveReportExport(format, metrics.ResultSuccess, time.Since(start))
		writeJSON(w, http.StatusOK, report)
		return
	case FormatHTML:
		var doc string
		doc, err = s.html.Render(report)
		contentType, body = "text/html; charset=utf-8", []byte(doc)
	case FormatText:
		var text string
		text, err = s.sms.Render(report)
		contentType, body = "text/plain; charset=utf-8", []byte(text)
	case FormatPDF:
		body, err = render.ReportPDF(report, s.deps.Branding)
		contentType = "application/pdf"
	case FormatXLSX:
		body, err = render.ReportXLSX(report)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		metrics.ObserveReportExport(format, metrics.ResultError, time.Since(start))
		s.writeError(w, r, err)
		return
	}
	metrics.ObserveReportExport(format, metrics.ResultSuccess, time.Since(start))

	if format == FormatPDF || format == FormatXLSX {
		filename := report.ID + "." + format
		w.Header().Set("Content-Disposition", "attachment; filename=\""+url.PathEscape(filename)+"\"")
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

type sendEmailRequest struct {
	Area       string   `json:"area"`
	Recipients []string `json:"recipients"`
}

type sendSMSRequest struct {
	Area   string   `json:"area"`
	Phones []string `json:"phones"`
}

type broadcastRequest struct {
	Area    string   `json:"area"`
	EmailTo []string `json:"email_to"`
	SMSTo   []string `json:"sms_to"`
}

func (s *Server) sendEmail(w http.ResponseWriter, r *http.Request) {
	var req sendEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body: " + err.Error()})
		return
	}
	report, err := s.deps.Reports.Build(r.Context(), req.Area)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.deps.Dispatcher.SendEmail(r.Context(), report, req.Recipients)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) sendSMS(w http.ResponseWriter, r *http.Request) {
	var req sendSMSRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body: " + err.Error()})
		return
	}
	report, err := s.deps.Reports.Build(r.Context(), req.Area)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.deps.Dispatcher.SendSMS(r.Context(), report, req.Phones)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) broadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body: " + err.Error()})
		return
	}
	report, err := s.deps.Reports.Build(r.Context(), req.Area)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.deps.Dispatcher.Broadcast(r.Context(), report, req.EmailTo, req.SMSTo)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
