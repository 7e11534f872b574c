package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	alertapp "waterhealth-cloud/internal/alerts/application"
	"waterhealth-cloud/internal/alerts/infrastructure/kafka"
	alerthttp "waterhealth-cloud/internal/alerts/interfaces/http"
	alertnotify "waterhealth-cloud/internal/alerts/notify"
	"waterhealth-cloud/internal/config"
	"waterhealth-cloud/internal/joblock"
	"waterhealth-cloud/internal/logging"
	"waterhealth-cloud/internal/notify"
	"waterhealth-cloud/internal/observability/metrics"
	reportapp "waterhealth-cloud/internal/reports/application"
	"waterhealth-cloud/internal/reports/render"
	riskapp "waterhealth-cloud/internal/risk/application"
	risk "waterhealth-cloud/internal/risk/domain"
	"waterhealth-cloud/internal/store/memory"
	"waterhealth-cloud/internal/store/postgres"
)

// dataStore is what both store backends provide.
type dataStore interface {
	riskapp.ObservationReader
	riskapp.RiskStore
	reportapp.Reader
	alertapp.Repository
	RegisterArea(ctx context.Context, area string, lat, lng *float64) error
	InsertWater(ctx context.Context, wq *risk.WaterQuality) error
	InsertWeather(ctx context.Context, w *risk.Weather) error
	InsertDisease(ctx context.Context, d *risk.DiseaseCases) error
}

// app is the wired service graph shared by every command.
type app struct {
	cfg    config.Config
	logger zerolog.Logger
	db     *sql.DB
	store  dataStore

	alerts     *alertapp.Service
	workflow   *riskapp.Workflow
	reports    *reportapp.Builder
	dispatcher *notify.Dispatcher
	broker     *alerthttp.SSEBroker
	locker     joblock.Locker
	sms        *notify.TwilioSender

	htmlRenderer *render.HTMLRenderer
	smsRenderer  *render.SMSRenderer

	closers []func() error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}, os.Stdout)
	a := &app{cfg: cfg, logger: logger}

	if err := a.openStore(ctx); err != nil {
		a.close()
		return nil, err
	}
	metrics.Init(a.db, logger)

	a.broker = alerthttp.NewSSEBroker()
	notifier, err := a.alertNotifier()
	if err != nil {
		a.close()
		return nil, err
	}

	a.sms = notify.NewTwilioSender(cfg.SMS.TwilioConfig)
	email := notify.NewSMTPSender(cfg.Email)

	a.alerts, err = alertapp.NewService(a.store,
		alertapp.WithNotifier(notifier),
		alertapp.WithOperatorSMS(a.sms, cfg.SMS.OperatorNumber),
		alertapp.WithLogger(logger.With().Str("component", "alerts").Logger()),
	)
	if err != nil {
		a.close()
		return nil, err
	}

	a.workflow, err = riskapp.NewWorkflow(a.store, a.store, a.alerts,
		riskapp.WithConcurrency(cfg.Recalculation.Concurrency),
		riskapp.WithLogger(logger.With().Str("component", "recalculation").Logger()),
	)
	if err != nil {
		a.close()
		return nil, err
	}

	builderOpts := []reportapp.Option{reportapp.WithIDPrefix(cfg.Reports.IDPrefix)}
	if cfg.Reports.AllowUnassessed {
		builderOpts = append(builderOpts, reportapp.WithUnassessedAreas())
	}
	a.reports, err = reportapp.NewBuilder(a.store, builderOpts...)
	if err != nil {
		a.close()
		return nil, err
	}

	// renderers shared by dispatch and every export
	a.htmlRenderer = render.NewHTMLRenderer(cfg.Branding)
	a.smsRenderer, err = render.NewSMSRenderer(cfg.Reports.SMSTemplate, cfg.Branding)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("sms template: %w", err)
	}
	a.dispatcher, err = notify.NewDispatcher(email, a.sms,
		notify.WithHTMLRenderer(a.htmlRenderer),
		notify.WithSMSRenderer(a.smsRenderer),
		notify.WithLogger(logger.With().Str("component", "dispatch").Logger()),
	)
	if err != nil {
		a.close()
		return nil, err
	}

	a.locker, err = a.jobLocker(ctx)
	if err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	if a.cfg.Database.URL == "" {
		a.logger.Warn().Msg("DATABASE_URL not set, using in-memory store")
		a.store = memory.NewStore()
		return nil
	}
	db, err := sql.Open("pgx", a.cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	a.closers = append(a.closers, db.Close)
	if a.cfg.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(a.cfg.Database.MaxOpenConns)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	if a.cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		a.logger.Info().Msg("schema migrated")
	}
	a.db = db
	a.store = postgres.NewStore(db)
	return nil
}

// alertNotifier fans alert events out to the SSE stream plus the optional
// webhook and Kafka publisher.
func (a *app) alertNotifier() (alertapp.AlertNotifier, error) {
	multi := alertnotify.NewMultiNotifier(a.broker)

	if a.cfg.Alerts.WebhookURL != "" {
		channel, err := alertnotify.NewWebhookChannel(a.cfg.Alerts.WebhookURL)
		if err != nil {
			return nil, err
		}
		tpl, err := alertnotify.NewTemplate(a.cfg.Alerts.NotifyTemplate)
		if err != nil {
			return nil, fmt.Errorf("alert template: %w", err)
		}
		webhook, err := alertnotify.NewNotifier(channel, tpl,
			alertnotify.WithCooldown(a.cfg.Alerts.Cooldown),
			alertnotify.WithDedupeWindow(a.cfg.Alerts.DedupeWindow),
			alertnotify.WithLogger(a.logger.With().Str("component", "alert-webhook").Logger()),
		)
		if err != nil {
			return nil, err
		}
		multi.Add(webhook)
	}

	if len(a.cfg.Kafka.Brokers) > 0 {
		publisher, err := kafka.NewPublisher(a.cfg.Kafka.Brokers, a.cfg.Kafka.Topic,
			a.logger.With().Str("component", "alert-kafka").Logger())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, publisher.Close)
		multi.Add(publisher)
	}
	return multi, nil
}

func (a *app) jobLocker(ctx context.Context) (joblock.Locker, error) {
	if a.cfg.Redis.Addr == "" {
		return joblock.NewLocalLocker(), nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	a.closers = append(a.closers, rdb.Close)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	locker, err := joblock.NewRedisLocker(rdb, "waterhealth")
	if err != nil {
		return nil, err
	}
	return locker, nil
}

func (a *app) close() {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn().Err(err).Msg("shutdown cleanup failed")
	}
}
