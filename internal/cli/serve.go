package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	alerthttp "waterhealth-cloud/internal/alerts/interfaces/http"
	apihttp "waterhealth-cloud/internal/api/http"
	"waterhealth-cloud/internal/auth"
	"waterhealth-cloud/internal/scheduler"
	"waterhealth-cloud/internal/seed"
)

// sendPendingJob is the scheduler name of the operator SMS push.
const sendPendingJob = "send-pending"

var (
	serveAddr        string
	serveSeed        bool
	serveNoScheduler bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the recalculation scheduler",
	Long: `Starts the HTTP API under /api/v1 together with the cron scheduler that
recalculates every area (and, when enabled, texts pending alerts to the operator).

Endpoints:
  POST   /api/v1/risk/calculate
  POST   /api/v1/risk/recalculate
  GET    /api/v1/risk/areas
  GET    /api/v1/reports/{area}
  GET    /api/v1/reports/{area}/export.{json|html|txt|pdf|xlsx}
  POST   /api/v1/reports/send-email | send-sms | broadcast
  GET    /api/v1/alerts
  DELETE /api/v1/alerts
  GET    /api/v1/alerts/unread-count
  POST   /api/v1/alerts/send-pending
  POST   /api/v1/alerts/{id}/mark-sent
  GET    /api/v1/alerts/stream`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides HTTP_ADDR)")
	serveCmd.Flags().BoolVar(&serveSeed, "seed", false, "load demonstration areas when the store is empty")
	serveCmd.Flags().BoolVar(&serveNoScheduler, "no-scheduler", false, "do not run scheduled jobs")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	if serveAddr != "" {
		a.cfg.HTTP.Addr = serveAddr
	}

	if serveSeed {
		wrote, err := seed.LoadIfEmpty(ctx, a.store, a.logger)
		if err != nil {
			return err
		}
		if wrote {
			if _, err := a.workflow.RecalculateAll(ctx); err != nil {
				return err
			}
		}
	}

	sched, err := a.newScheduler()
	if err != nil {
		return err
	}
	if !serveNoScheduler {
		sched.Start()
		defer sched.Stop()
	}

	var authMW *auth.Middleware
	if a.cfg.Auth.JWTSecret != "" {
		authMW = auth.NewMiddleware([]byte(a.cfg.Auth.JWTSecret), auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil))
	} else {
		a.logger.Warn().Msg("AUTH_JWT_SECRET not set, API is unauthenticated")
	}

	handler, err := apihttp.NewRouter(apihttp.Deps{
		Recalculator: a.workflow,
		Areas:        a.store,
		Reports:      a.reports,
		Dispatcher:   a.dispatcher,
		Alerts:       a.alerts,
		Stream:       alerthttp.NewStreamHandler(a.broker),
		Metrics:      promhttp.Handler(),
		Auth:         authMW,
		Locker:       a.locker,
		LockTTL:      a.cfg.Recalculation.LockTTL,
		Branding:     a.cfg.Branding,
		HTML:         a.htmlRenderer,
		SMS:          a.smsRenderer,
		Logger:       a.logger.With().Str("component", "http").Logger(),
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	a.logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newScheduler registers the recalculation job and, when enabled, the pending alert push.
func (a *app) newScheduler() (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.logger.With().Str("component", "scheduler").Logger(),
		scheduler.WithLocker(a.locker),
		scheduler.WithLockTTL(a.cfg.Recalculation.LockTTL),
	)
	if err := sched.AddJob(scheduler.Job{
		Name:     apihttp.RecalculateJob,
		Schedule: a.cfg.Recalculation.Schedule,
		Run: func(ctx context.Context) error {
			_, err := a.workflow.RecalculateAll(ctx)
			return err
		},
	}); err != nil {
		return nil, err
	}
	if a.cfg.Recalculation.SendPending {
		if err := sched.AddJob(scheduler.Job{
			Name:     sendPendingJob,
			Schedule: a.cfg.Recalculation.Schedule,
			Run: func(ctx context.Context) error {
				result, err := a.alerts.SendPending(ctx)
				if err != nil {
					return err
				}
				a.logger.Info().Int("pending", result.Pending).Int("sent", result.Sent).
					Str("status", string(result.Status)).Msg("pending alerts pushed")
				return nil
			},
		}); err != nil {
			return nil, err
		}
	}
	return sched, nil
}
