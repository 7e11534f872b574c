package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"waterhealth-cloud/internal/observability/metrics"
	reports "waterhealth-cloud/internal/reports/domain"
	risk "waterhealth-cloud/internal/risk/domain"
)

// DefaultIDPrefix prefixes report identifiers.
const DefaultIDPrefix = "JR"

// Reader loads the latest record of each kind for an area. Absence is (nil, nil).
type Reader interface {
	LatestRisk(ctx context.Context, area string) (*risk.Assessment, error)
	LatestWater(ctx context.Context, area string) (*risk.WaterQuality, error)
	LatestWeather(ctx context.Context, area string) (*risk.Weather, error)
	LatestDisease(ctx context.Context, area string) (*risk.DiseaseCases, error)
}

// Builder assembles area reports.
type Builder struct {
	reader          Reader
	clock           clockwork.Clock
	idPrefix        string
	allowUnassessed bool
}

// Option configures the builder.
type Option func(*Builder)

// WithClock overrides the default clock.
func WithClock(clock clockwork.Clock) Option {
	return func(b *Builder) {
		if clock != nil {
			b.clock = clock
		}
	}
}

// WithIDPrefix overrides the report id prefix.
func WithIDPrefix(prefix string) Option {
	return func(b *Builder) {
		if strings.TrimSpace(prefix) != "" {
			b.idPrefix = strings.TrimSpace(prefix)
		}
	}
}

// WithUnassessedAreas builds an Unknown-level report for areas with no risk record
// instead of returning ErrAreaNotFound.
func WithUnassessedAreas() Option {
	return func(b *Builder) {
		b.allowUnassessed = true
	}
}

// NewBuilder constructs a report builder.
func NewBuilder(reader Reader, opts ...Option) (*Builder, error) {
	if reader == nil {
		return nil, errors.New("reports: nil reader")
	}
	b := &Builder{
		reader:   reader,
		clock:    clockwork.NewRealClock(),
		idPrefix: DefaultIDPrefix,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Build assembles the report for one area. Missing observation kinds stay nil.
func (b *Builder) Build(ctx context.Context, area string) (*reports.AreaReport, error) {
	if b == nil {
		return nil, errors.New("reports: nil builder")
	}
	area = strings.TrimSpace(area)
	if area == "" {
		return nil, risk.ErrEmptyArea
	}

	assessment, err := b.reader.LatestRisk(ctx, area)
	if err != nil {
		return nil, fmt.Errorf("reports: load risk: %w", err)
	}
	if assessment == nil && !b.allowUnassessed {
		return nil, fmt.Errorf("%w: %s", reports.ErrAreaNotFound, area)
	}
	water, err := b.reader.LatestWater(ctx, area)
	if err != nil {
		return nil, fmt.Errorf("reports: load water quality: %w", err)
	}
	weather, err := b.reader.LatestWeather(ctx, area)
	if err != nil {
		return nil, fmt.Errorf("reports: load weather: %w", err)
	}
	disease, err := b.reader.LatestDisease(ctx, area)
	if err != nil {
		return nil, fmt.Errorf("reports: load disease cases: %w", err)
	}

	report := &reports.AreaReport{
		ID:          NewReportID(b.idPrefix),
		GeneratedAt: b.clock.Now().UTC(),
		Area:        area,
		Risk:        reports.Snapshot(assessment),
		Water:       water,
		Weather:     weather,
		Disease:     disease,
		WaterIssues: reports.WaterIssues(water),
		FloodActive: weather != nil && weather.FloodRisk,
	}
	metrics.ObserveReportBuilt(string(report.Risk.Level))
	return report, nil
}

// NewReportID returns prefix-XXXXXXXX with eight upper-case hex digits.
func NewReportID(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + strings.ToUpper(id[:8])
}
