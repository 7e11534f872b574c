package apihttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	alerts "waterhealth-cloud/internal/alerts/domain"
	alertapp "waterhealth-cloud/internal/alerts/application"
	"waterhealth-cloud/internal/auth"
	"waterhealth-cloud/internal/joblock"
	"waterhealth-cloud/internal/notify"
	reports "waterhealth-cloud/internal/reports/domain"
	"waterhealth-cloud/internal/reports/render"
	riskapp "waterhealth-cloud/internal/risk/application"
	risk "waterhealth-cloud/internal/risk/domain"
)

// RecalculateJob is the lock key shared by scheduled and on-demand recalculation.
const RecalculateJob = "recalculate"

// Recalculator rescores all areas.
type Recalculator interface {
	RecalculateAll(ctx context.Context) (*riskapp.RecalculationResult, error)
}

// AreaLister lists current assessments.
type AreaLister interface {
	ListAssessments(ctx context.Context) ([]risk.Assessment, error)
}

// ReportBuilder assembles an area report.
type ReportBuilder interface {
	Build(ctx context.Context, area string) (*reports.AreaReport, error)
}

// ReportDispatcher sends reports over e-mail and SMS.
type ReportDispatcher interface {
	SendEmail(ctx context.Context, report *reports.AreaReport, recipients []string) (notify.ChannelResult, error)
	SendSMS(ctx context.Context, report *reports.AreaReport, phones []string) (notify.ChannelResult, error)
	Broadcast(ctx context.Context, report *reports.AreaReport, emailTo, smsTo []string) (notify.BroadcastResult, error)
}

// AlertService administers alerts.
type AlertService interface {
	List(ctx context.Context, severity string, limit int) ([]alerts.Alert, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkSent(ctx context.Context, id string) (*alerts.Alert, error)
	Clear(ctx context.Context) (int64, error)
	SendPending(ctx context.Context) (alertapp.SendPendingResult, error)
}

// Deps wires the router's collaborators.
type Deps struct {
	Recalculator Recalculator
	Areas        AreaLister
	Reports      ReportBuilder
	Dispatcher   ReportDispatcher
	Alerts       AlertService
	Stream       http.Handler
	Metrics      http.Handler
	Auth         *auth.Middleware
	Locker       joblock.Locker
	LockTTL      time.Duration
	Branding     render.Branding
	// HTML and SMS render the html and txt exports. Pass the dispatcher's
	// renderers so exports match what is sent; nil builds defaults from Branding.
	HTML         *render.HTMLRenderer
	SMS          *render.SMSRenderer
	Logger       zerolog.Logger
}

// Server holds the handlers behind the router.
type Server struct {
	deps Deps
	html *render.HTMLRenderer
	sms  *render.SMSRenderer
	log  zerolog.Logger
}

// NewRouter builds the HTTP API.
func NewRouter(deps Deps) (http.Handler, error) {
	if deps.Recalculator == nil || deps.Areas == nil || deps.Reports == nil || deps.Dispatcher == nil || deps.Alerts == nil {
		return nil, errors.New("api: missing dependency")
	}
	if deps.Locker == nil {
		deps.Locker = joblock.NewLocalLocker()
	}
	if deps.LockTTL <= 0 {
		deps.LockTTL = 15 * time.Minute
	}
	deps.Branding = deps.Branding.WithDefaults()
	if deps.HTML == nil {
		deps.HTML = render.NewHTMLRenderer(deps.Branding)
	}
	if deps.SMS == nil {
		smsRenderer, err := render.NewSMSRenderer("", deps.Branding)
		if err != nil {
			return nil, err
		}
		deps.SMS = smsRenderer
	}
	s := &Server{
		deps: deps,
		html: deps.HTML,
		sms:  deps.SMS,
		log:  deps.Logger,
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", healthz).Methods(http.MethodGet)
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/risk/calculate", s.calculate).Methods(http.MethodPost)
	api.HandleFunc("/risk/recalculate", s.recalculate).Methods(http.MethodPost)
	api.HandleFunc("/risk/areas", s.listAreas).Methods(http.MethodGet)

	api.HandleFunc("/reports/send-email", s.sendEmail).Methods(http.MethodPost)
	api.HandleFunc("/reports/send-sms", s.sendSMS).Methods(http.MethodPost)
	api.HandleFunc("/reports/broadcast", s.broadcast).Methods(http.MethodPost)
	api.HandleFunc("/reports/{area}/export.{format}", s.exportReport).Methods(http.MethodGet)
	api.HandleFunc("/reports/{area}", s.getReport).Methods(http.MethodGet)

	api.HandleFunc("/alerts", s.listAlerts).Methods(http.MethodGet)
	api.HandleFunc("/alerts", s.clearAlerts).Methods(http.MethodDelete)
	api.HandleFunc("/alerts/unread-count", s.unreadCount).Methods(http.MethodGet)
	api.HandleFunc("/alerts/send-pending", s.sendPending).Methods(http.MethodPost)
	api.HandleFunc("/alerts/{id}/mark-sent", s.markSent).Methods(http.MethodPost, http.MethodPatch)
	if deps.Stream != nil {
		api.Handle("/alerts/stream", deps.Stream).Methods(http.MethodGet)
	}

	r.Use(recoveryMiddleware(deps.Logger))
	r.Use(accessLogMiddleware(deps.Logger))

	var handler http.Handler = r
	if deps.Auth != nil {
		handler = deps.Auth.Wrap(handler)
	}
	return handler, nil
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
