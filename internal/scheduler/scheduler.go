package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"waterhealth-cloud/internal/joblock"
)

// DefaultLockTTL bounds how long a job may hold its lock.
const DefaultLockTTL = 15 * time.Minute

// Job is a named unit of scheduled work.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// Result records the last execution of a job.
type Result struct {
	Job        string        `json:"job"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration"`
	Skipped    bool          `json:"skipped"`
	Error      string        `json:"error,omitempty"`
}

// Scheduler runs jobs on cron schedules, each under a job lock.
type Scheduler struct {
	cron    *cron.Cron
	logger  zerolog.Logger
	locker  joblock.Locker
	lockTTL time.Duration
	timeout time.Duration

	mu   sync.RWMutex
	jobs map[string]Job
	last map[string]Result
}

// Option configures the scheduler.
type Option func(*Scheduler)

// WithLocker serializes job runs through locker.
func WithLocker(locker joblock.Locker) Option {
	return func(s *Scheduler) {
		if locker != nil {
			s.locker = locker
		}
	}
}

// WithLockTTL overrides the lock expiry.
func WithLockTTL(ttl time.Duration) Option {
	return func(s *Scheduler) {
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

// WithJobTimeout bounds a single run.
func WithJobTimeout(timeout time.Duration) Option {
	return func(s *Scheduler) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// New creates a scheduler.
func New(logger zerolog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		cron:    cron.New(),
		logger:  logger,
		locker:  joblock.NewLocalLocker(),
		lockTTL: DefaultLockTTL,
		jobs:    make(map[string]Job),
		last:    make(map[string]Result),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddJob registers a job on its schedule.
func (s *Scheduler) AddJob(job Job) error {
	if job.Name == "" || job.Run == nil {
		return errors.New("scheduler: job needs a name and a run func")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("scheduler: job %s already exists", job.Name)
	}
	if _, err := s.cron.AddFunc(job.Schedule, func() {
		_ = s.run(context.Background(), job)
	}); err != nil {
		return fmt.Errorf("scheduler: schedule job %s: %w", job.Name, err)
	}
	s.jobs[job.Name] = job
	s.logger.Info().Str("job", job.Name).Str("schedule", job.Schedule).Msg("job scheduled")
	return nil
}

// Start starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info().Int("jobs", len(s.jobs)).Msg("scheduler starting")
	s.cron.Start()
}

// Stop stops the cron loop and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

// RunJob runs a registered job now, under the same lock as scheduled runs.
func (s *Scheduler) RunJob(ctx context.Context, name string) error {
	s.mu.RLock()
	job, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("scheduler: job %s not found", name)
	}
	return s.run(ctx, job)
}

// LastResult returns the last recorded run of a job.
func (s *Scheduler) LastResult(name string) (Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.last[name]
	return r, ok
}

func (s *Scheduler) run(ctx context.Context, job Job) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	started := time.Now()
	err := joblock.With(ctx, s.locker, job.Name, s.lockTTL, job.Run)
	finished := time.Now()

	result := Result{Job: job.Name, StartedAt: started.UTC(), FinishedAt: finished.UTC(), Duration: finished.Sub(started)}
	switch {
	case errors.Is(err, joblock.ErrLocked):
		result.Skipped = true
		s.logger.Warn().Str("job", job.Name).Msg("job already running, skipped")
	case err != nil:
		result.Error = err.Error()
		s.logger.Error().Err(err).Str("job", job.Name).Dur("duration", result.Duration).Msg("job failed")
	default:
		s.logger.Info().Str("job", job.Name).Dur("duration", result.Duration).Msg("job completed")
	}

	s.mu.Lock()
	s.last[job.Name] = result
	s.mu.Unlock()
	return err
}
