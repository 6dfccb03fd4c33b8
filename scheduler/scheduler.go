// Package scheduler drives background learning: it polls for new absorption
// batches and runs periodic consolidation on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/atlas"
	"github.com/robfig/cron/v3"
)

const (
	DefaultAbsorptionInterval    = 30 * time.Second
	DefaultConsolidationInterval = 5 * time.Minute

	// jobTimeout bounds a single absorption poll or consolidation.
	jobTimeout = time.Minute
)

var ErrInvalidInterval = errors.New("schedule interval must be at least one second")

// Target is the engine surface the scheduler drives.
type Target interface {
	PollAbsorption(ctx context.Context) (bool, error)
	Consolidate(ctx context.Context) (atlas.ConsolidationReport, error)
	SetLearningActive(active bool)
}

// Watcher notifies when the absorption batch may have changed.
type Watcher interface {
	Watch(ctx context.Context, onChange func()) error
}

// Scheduler runs absorption and consolidation jobs. A job that is still running
// when its next tick arrives skips that tick.
type Scheduler struct {
	target           Target
	watcher          Watcher
	absorbEvery      time.Duration
	consolidateEvery time.Duration
	logger           *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	running bool
}

// Option configures a Scheduler.
type Option func(*Scheduler) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithAbsorptionInterval sets how often the batch source is polled.
func WithAbsorptionInterval(d time.Duration) Option {
	return func(s *Scheduler) error {
		if d < time.Second {
			return fmt.Errorf("%w: absorption %s", ErrInvalidInterval, d)
		}
		s.absorbEvery = d
		return nil
	}
}

// WithConsolidationInterval sets how often consolidation runs.
func WithConsolidationInterval(d time.Duration) Option {
	return func(s *Scheduler) error {
		if d < time.Second {
			return fmt.Errorf("%w: consolidation %s", ErrInvalidInterval, d)
		}
		s.consolidateEvery = d
		return nil
	}
}

// WithWatcher additionally polls whenever the watcher reports a change.
func WithWatcher(w Watcher) Option {
	return func(s *Scheduler) error {
		s.watcher = w
		return nil
	}
}

// New creates a stopped Scheduler for target.
func New(target Target, opts ...Option) (*Scheduler, error) {
	if target == nil {
		return nil, errors.New("scheduler target is required")
	}
	s := &Scheduler{
		target:           target,
		absorbEvery:      DefaultAbsorptionInterval,
		consolidateEvery: DefaultConsolidationInterval,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "scheduler")

	cl := cronLogger{s.logger}
	s.cron = cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	if _, err := s.cron.AddFunc(every(s.absorbEvery), s.absorb); err != nil {
		return nil, err
	}
	if _, err := s.cron.AddFunc(every(s.consolidateEvery), s.consolidate); err != nil {
		return nil, err
	}
	return s, nil
}

func every(d time.Duration) string {
	return "@every " + d.String()
}

// Start begins running jobs. It is a no-op if already started.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true

	ctx, s.cancel = context.WithCancel(ctx)
	s.target.SetLearningActive(true)
	s.cron.Start()

	if s.watcher != nil {
		go func() {
			if err := s.watcher.Watch(ctx, s.absorb); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Warn("absorption watcher stopped", "error", err)
			}
		}()
	}
	s.logger.Info("background learning started",
		"absorption_interval", s.absorbEvery,
		"consolidation_interval", s.consolidateEvery)
}

// Stop halts the schedules and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false

	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.target.SetLearningActive(false)
	s.logger.Info("background learning stopped")
}

func (s *Scheduler) absorb() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	absorbed, err := s.target.PollAbsorption(ctx)
	switch {
	case err != nil:
		s.logger.Warn("absorption poll failed", "error", err)
	case absorbed:
		s.logger.Debug("absorption poll applied a new batch")
	}
}

func (s *Scheduler) consolidate() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	report, err := s.target.Consolidate(ctx)
	if err != nil {
		s.logger.Warn("consolidation failed", "error", err)
		return
	}
	if report.SaveError != nil {
		s.logger.Warn("consolidation save failed", "error", report.SaveError)
	}
	s.logger.Debug("consolidation finished", "reinforced", report.Reinforced, "trimmed", report.Trimmed)
}

// cronLogger routes cron's internal logging through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}
