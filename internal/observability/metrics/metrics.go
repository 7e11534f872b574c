package metrics

import (
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const (
	metricPrefix = "waterhealth_"

	resultSuccess = "success"
	resultError   = "error"

	areaOutcomeUpdated = "updated"
	areaOutcomeSkipped = "skipped"
	areaOutcomeFailed  = "failed"
)

var (
	registerOnce sync.Once

	recalculationTotal   *prometheus.CounterVec
	recalculationLatency *prometheus.HistogramVec
	recalculationAreas   *prometheus.CounterVec

	alertsGenerated *prometheus.CounterVec
	alertEvents     *prometheus.CounterVec

	reportsBuilt  *prometheus.CounterVec
	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	notificationsTotal *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
)

// Init registers service metrics and DB-backed gauges.
func Init(db *sql.DB, logger zerolog.Logger) {
	registerOnce.Do(func() {
		recalculationTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "recalculation_runs_total",
				Help: "Total recalculation runs by result",
			},
			[]string{"result"},
		)
		recalculationLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "recalculation_latency_seconds",
				Help:    "Recalculation run latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		recalculationAreas = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "recalculation_areas_total",
				Help: "Areas processed by recalculation by outcome",
			},
			[]string{"outcome"},
		)

		alertsGenerated = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alerts_generated_total",
				Help: "Total alerts generated by severity",
			},
			[]string{"severity"},
		)
		alertEvents = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alert_events_total",
				Help: "Total alert lifecycle events by type",
			},
			[]string{"event"},
		)

		reportsBuilt = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reports_built_total",
				Help: "Total area reports built by risk level",
			},
			[]string{"level"},
		)
		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_export_total",
				Help: "Total report exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		notificationsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "notifications_total",
				Help: "Total notification attempts by channel and status",
			},
			[]string{"channel", "status"},
		)

		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_latency_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		)

		prometheus.MustRegister(
			recalculationTotal,
			recalculationLatency,
			recalculationAreas,
			alertsGenerated,
			alertEvents,
			reportsBuilt,
			exportTotal,
			exportLatency,
			notificationsTotal,
			httpRequests,
			httpLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveRecalculation records a recalculation run.
func ObserveRecalculation(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if recalculationTotal != nil {
		recalculationTotal.WithLabelValues(result).Inc()
	}
	if recalculationLatency != nil {
		recalculationLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// AddRecalculationAreas counts areas by outcome.
func AddRecalculationAreas(outcome string, count int) {
	if count <= 0 {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	if recalculationAreas != nil {
		recalculationAreas.WithLabelValues(outcome).Add(float64(count))
	}
}

// IncAlertGenerated increments the generated alert counter.
func IncAlertGenerated(severity string) {
	if severity == "" {
		severity = "unknown"
	}
	if alertsGenerated != nil {
		alertsGenerated.WithLabelValues(severity).Inc()
	}
}

// IncAlertEvent increments alert lifecycle counters.
func IncAlertEvent(event string) {
	if event == "" {
		event = "unknown"
	}
	if alertEvents != nil {
		alertEvents.WithLabelValues(event).Inc()
	}
}

// ObserveReportBuilt counts a built report.
func ObserveReportBuilt(level string) {
	if level == "" {
		level = "unknown"
	}
	if reportsBuilt != nil {
		reportsBuilt.WithLabelValues(level).Inc()
	}
}

// ObserveReportExport records export latency and result.
func ObserveReportExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncNotification counts a delivery attempt.
func IncNotification(channel, status string) {
	if channel == "" {
		channel = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	if notificationsTotal != nil {
		notificationsTotal.WithLabelValues(channel, status).Inc()
	}
}

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(route, code string, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	if httpRequests != nil {
		httpRequests.WithLabelValues(route, code).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(route).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError

	AreaUpdated = areaOutcomeUpdated
	AreaSkipped = areaOutcomeSkipped
	AreaFailed  = areaOutcomeFailed
)
