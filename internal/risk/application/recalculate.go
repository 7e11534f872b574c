package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	alerts "waterhealth-cloud/internal/alerts/domain"
	"waterhealth-cloud/internal/observability/metrics"
	risk "waterhealth-cloud/internal/risk/domain"
)

// DefaultConcurrency bounds how many areas are recalculated at once.
const DefaultConcurrency = 4

// Failure stages.
const (
	StageRead  = "read"
	StageWrite = "write"
	StageAlert = "alert"
)

// ObservationReader loads the latest observation of each kind. Absence is (nil, nil).
type ObservationReader interface {
	LatestWater(ctx context.Context, area string) (*risk.WaterQuality, error)
	LatestWeather(ctx context.Context, area string) (*risk.Weather, error)
	LatestDisease(ctx context.Context, area string) (*risk.DiseaseCases, error)
}

// RiskStore persists assessments.
type RiskStore interface {
	ListAssessments(ctx context.Context) ([]risk.Assessment, error)
	LatestRisk(ctx context.Context, area string) (*risk.Assessment, error)
	UpsertRisk(ctx context.Context, area string, score float64, level risk.Level, at time.Time) error
}

// AlertAppender stores a generated alert.
type AlertAppender interface {
	AppendAlert(ctx context.Context, alert *alerts.Alert) error
}

// AreaResult is the outcome of one updated area.
type AreaResult struct {
	Assessment risk.Assessment `json:"assessment"`
	Breakdown  risk.Breakdown  `json:"breakdown"`
	Alert      *alerts.Alert   `json:"alert,omitempty"`
}

// AreaFailure records an area whose recalculation did not complete.
type AreaFailure struct {
	Area  string `json:"area"`
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// RecalculationResult summarizes one run.
type RecalculationResult struct {
	Updated    int           `json:"updated"`
	Areas      []AreaResult  `json:"areas"`
	Skipped    []string      `json:"skipped"`
	Failed     []AreaFailure `json:"failed"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Workflow rescores every assessed area from its latest observations.
type Workflow struct {
	reader      ObservationReader
	store       RiskStore
	alerts      AlertAppender
	clock       clockwork.Clock
	logger      zerolog.Logger
	concurrency int
}

// Option configures the workflow.
type Option func(*Workflow)

// WithClock overrides the default clock.
func WithClock(clock clockwork.Clock) Option {
	return func(w *Workflow) {
		if clock != nil {
			w.clock = clock
		}
	}
}

// WithLogger assigns a logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(w *Workflow) {
		w.logger = logger
	}
}

// WithConcurrency sets the number of areas processed in parallel.
func WithConcurrency(n int) Option {
	return func(w *Workflow) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

// NewWorkflow constructs a recalculation workflow.
func NewWorkflow(reader ObservationReader, store RiskStore, appender AlertAppender, opts ...Option) (*Workflow, error) {
	if reader == nil {
		return nil, errors.New("risk workflow: nil observation reader")
	}
	if store == nil {
		return nil, errors.New("risk workflow: nil risk store")
	}
	if appender == nil {
		return nil, errors.New("risk workflow: nil alert appender")
	}
	w := &Workflow{
		reader:      reader,
		store:       store,
		alerts:      appender,
		clock:       clockwork.NewRealClock(),
		logger:      zerolog.Nop(),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

type areaOutcome struct {
	result  *AreaResult
	skipped bool
	failure *AreaFailure
}

// RecalculateAll rescores every area that has an assessment. Areas lacking any
// observation kind are skipped. Per-area failures are collected, not returned;
// the error is non-nil only when the area list cannot be loaded or ctx ends.
func (w *Workflow) RecalculateAll(ctx context.Context) (*RecalculationResult, error) {
	if w == nil {
		return nil, errors.New("risk workflow: nil workflow")
	}
	started := w.clock.Now()
	assessments, err := w.store.ListAssessments(ctx)
	if err != nil {
		metrics.ObserveRecalculation(metrics.ResultError, w.clock.Since(started))
		return nil, fmt.Errorf("list assessments: %w", err)
	}

	outcomes := make([]areaOutcome, len(assessments))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(w.concurrency)
	for i := range assessments {
		area := assessments[i].Area
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			outcomes[i] = w.recalculateArea(groupCtx, area)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		metrics.ObserveRecalculation(metrics.ResultError, w.clock.Since(started))
		return nil, err
	}

	result := &RecalculationResult{
		Areas:     []AreaResult{},
		Skipped:   []string{},
		Failed:    []AreaFailure{},
		StartedAt: started.UTC(),
	}
	for i, outcome := range outcomes {
		switch {
		case outcome.skipped:
			result.Skipped = append(result.Skipped, assessments[i].Area)
		case outcome.failure != nil:
			result.Failed = append(result.Failed, *outcome.failure)
		}
		if outcome.result != nil {
			result.Updated++
			result.Areas = append(result.Areas, *outcome.result)
		}
	}
	result.FinishedAt = w.clock.Now().UTC()

	metrics.AddRecalculationAreas(metrics.AreaUpdated, result.Updated)
	metrics.AddRecalculationAreas(metrics.AreaSkipped, len(result.Skipped))
	metrics.AddRecalculationAreas(metrics.AreaFailed, len(result.Failed))
	metrics.ObserveRecalculation(metrics.ResultSuccess, result.FinishedAt.Sub(result.StartedAt))
	w.logger.Info().
		Int("updated", result.Updated).
		Int("skipped", len(result.Skipped)).
		Int("failed", len(result.Failed)).
		Msg("risk recalculation finished")
	return result, nil
}

func (w *Workflow) recalculateArea(ctx context.Context, area string) areaOutcome {
	water, err := w.reader.LatestWater(ctx, area)
	if err != nil {
		return w.fail(area, StageRead, err)
	}
	weather, err := w.reader.LatestWeather(ctx, area)
	if err != nil {
		return w.fail(area, StageRead, err)
	}
	disease, err := w.reader.LatestDisease(ctx, area)
	if err != nil {
		return w.fail(area, StageRead, err)
	}
	if water == nil || weather == nil || disease == nil {
		w.logger.Warn().
			Str("area", area).
			Bool("water", water != nil).
			Bool("weather", weather != nil).
			Bool("disease", disease != nil).
			Msg("skipping area with partial observations")
		return areaOutcome{skipped: true}
	}

	calc := risk.CalculateRisk(water.Input(), weather.Input(), disease.Input())
	now := w.clock.Now().UTC()
	if err := w.store.UpsertRisk(ctx, area, calc.Score, calc.Level, now); err != nil {
		return w.fail(area, StageWrite, err)
	}

	assessment := risk.Assessment{Area: area}
	if stored, err := w.store.LatestRisk(ctx, area); err == nil && stored != nil {
		assessment = *stored
	}
	assessment.Apply(calc, now)
	outcome := areaOutcome{result: &AreaResult{Assessment: assessment, Breakdown: calc.Breakdown}}

	alert, ok := alerts.MakeAlert(area, calc.Level, calc.Score, disease.ActiveCases, now)
	if !ok {
		return outcome
	}
	if err := w.alerts.AppendAlert(ctx, &alert); err != nil {
		failed := w.fail(area, StageAlert, err)
		outcome.failure = failed.failure
		return outcome
	}
	outcome.result.Alert = &alert
	return outcome
}

func (w *Workflow) fail(area, stage string, err error) areaOutcome {
	w.logger.Error().Err(err).Str("area", area).Str("stage", stage).Msg("area recalculation failed")
	return areaOutcome{failure: &AreaFailure{Area: area, Stage: stage, Error: err.Error()}}
}
