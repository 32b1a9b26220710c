package queue

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/glauth-sync/internal/core/domain"
	"github.com/99minutos/glauth-sync/internal/core/ports"
)

// Scheduler runs the sync pipeline on a single worker, on a fixed interval
// and on demand. Runs never overlap; triggers arriving while one is already
// pending collapse into it.
type Scheduler struct {
	service  ports.SyncService
	interval time.Duration
	trigger  chan struct{}
	observe  func(*domain.SyncRun, error)
	log      zerolog.Logger

	mu      sync.RWMutex
	last    *domain.SyncRun
	lastErr error
	done    chan struct{}
}

// NewScheduler creates a Scheduler. observe, if not nil, is called after
// every run.
func NewScheduler(service ports.SyncService, interval time.Duration, observe func(*domain.SyncRun, error), log zerolog.Logger) *Scheduler {
	if observe == nil {
		observe = func(*domain.SyncRun, error) {}
	}
	return &Scheduler{
		service:  service,
		interval: interval,
		trigger:  make(chan struct{}, 1),
		observe:  observe,
		log:      log,
		done:     make(chan struct{}),
	}
}

// Start launches the worker goroutine. It runs once immediately, then on
// every tick, and stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.Trigger()
	go s.runWorker(ctx)
}

// Done is closed once the worker has exited.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Trigger requests a run. It never blocks and reports false when a run is
// already pending.
func (s *Scheduler) Trigger() bool {
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Last returns the most recent run and its error; run is nil before the
// first run completes.
func (s *Scheduler) Last() (*domain.SyncRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.lastErr
}

func (s *Scheduler) runWorker(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		case <-s.trigger:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	run, err := s.service.Run(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("sync run failed")
	}
	s.observe(run, err)

	s.mu.Lock()
	s.last, s.lastErr = run, err
	s.mu.Unlock()
}
