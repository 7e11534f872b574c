package metrics

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

func registerDBMetrics(db *sql.DB, logger zerolog.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "alerts_unsent",
			Help: "Alerts not yet delivered",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM alerts WHERE is_sent = FALSE")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "areas_tracked",
			Help: "Areas with a risk assessment",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM risk_levels")
		},
	))
}

func queryCount(db *sql.DB, logger zerolog.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		logger.Warn().Err(err).Msg("metrics query failed")
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
