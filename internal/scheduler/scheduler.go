package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/weather-widgets/internal/store"
	"github.com/i474232898/weather-widgets/internal/weather"
)

const (
	// DefaultSweepInterval is how often expired cache entries are removed.
	DefaultSweepInterval = time.Hour

	refreshTimeout = 30 * time.Second
)

// Sweeper drops expired cache entries and reports how many were removed.
type Sweeper interface {
	Sweep() int
}

// WidgetLister lists persisted widgets.
type WidgetLister interface {
	List(ctx context.Context) ([]store.Widget, error)
}

// Refresher fetches fresh weather for a location and caches it.
type Refresher interface {
	Refresh(ctx context.Context, location string) (weather.Snapshot, error)
}

// Scheduler owns the background maintenance jobs: the periodic cache sweep and,
// optionally, a warm-up that refreshes the weather of every persisted widget.
type Scheduler struct {
	scheduler *gocron.Scheduler
	logger    *zap.Logger

	sweeper       Sweeper
	sweepInterval time.Duration

	widgets         WidgetLister
	refresher       Refresher
	refreshInterval time.Duration
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithWidgetRefresh enables the warm-up job. A non-positive interval disables it.
func WithWidgetRefresh(widgets WidgetLister, refresher Refresher, interval time.Duration) Option {
	return func(s *Scheduler) {
		s.widgets = widgets
		s.refresher = refresher
		s.refreshInterval = interval
	}
}

// New creates a new Scheduler. A non-positive sweepInterval uses DefaultSweepInterval.
func New(sweeper Sweeper, sweepInterval time.Duration, logger *zap.Logger, opts ...Option) *Scheduler {
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Scheduler{
		scheduler:     gocron.NewScheduler(time.UTC),
		logger:        logger,
		sweeper:       sweeper,
		sweepInterval: sweepInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start schedules the jobs and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.sweepInterval).SingletonMode().Do(s.sweep); err != nil {
		return err
	}

	if s.refreshEnabled() {
		if _, err := s.scheduler.Every(s.refreshInterval).SingletonMode().Do(func() { s.refreshWidgets() }); err != nil {
			return err
		}
	} else {
		s.logger.Info("scheduler: widget refresh disabled")
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) refreshEnabled() bool {
	return s.refreshInterval > 0 && s.widgets != nil && s.refresher != nil
}

func (s *Scheduler) sweep() {
	removed := s.sweeper.Sweep()
	s.logger.Debug("scheduler: cache sweep completed", zap.Int("removed", removed))
}

// refreshWidgets refreshes every widget's location concurrently and returns
// how many refreshes succeeded.
func (s *Scheduler) refreshWidgets() int {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	widgets, err := s.widgets.List(ctx)
	if err != nil {
		s.logger.Error("scheduler: list widgets failed", zap.Error(err))
		return 0
	}

	s.logger.Info("scheduler: running widget refresh job", zap.Int("widgets", len(widgets)))

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for _, w := range widgets {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()

			if _, err := s.refresher.Refresh(ctx, w.Location); err != nil {
				s.logger.Warn("scheduler: refresh failed",
					zap.String("location", w.Location),
					zap.Error(err))
				return
			}

			mu.Lock()
			ok++
			mu.Unlock()
		}()
	}
	wg.Wait()

	s.logger.Info("scheduler: completed widget refresh job", zap.Int("refreshed", ok))
	return ok
}
