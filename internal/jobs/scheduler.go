// Package jobs runs the periodic back-office work: status refresh, the
// end-of-day snapshot and expired state cleanup.
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Kauanrodrigues01/academy/internal/metrics"
	"github.com/Kauanrodrigues01/academy/internal/middleware"
	"github.com/Kauanrodrigues01/academy/internal/service"
	"github.com/Kauanrodrigues01/academy/internal/store"
)

const (
	housekeepingInterval = time.Minute
	cleanupInterval      = time.Hour
)

type Scheduler struct {
	mu       sync.RWMutex
	svc      *service.Services
	sessions *store.SessionStore
	limiter  *middleware.RateLimiter
	metrics  *metrics.Metrics
	logger   *slog.Logger
	interval time.Duration

	lastDay     time.Time
	lastCleanup time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler refreshes statuses every refreshInterval. limiter may be nil.
func NewScheduler(svc *service.Services, sessions *store.SessionStore, limiter *middleware.RateLimiter, m *metrics.Metrics, logger *slog.Logger, refreshInterval time.Duration) *Scheduler {
	return &Scheduler{
		svc:      svc,
		sessions: sessions,
		limiter:  limiter,
		metrics:  m,
		logger:   logger.With("component", "jobs"),
		interval: refreshInterval,
	}
}

// Start refreshes once right away, then keeps running until ctx is
// cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.lastDay = s.svc.Reports.Today()
	s.mu.Unlock()

	s.logger.Info("scheduler started", "refresh_interval", s.interval)

	go func() {
		defer close(s.done)
		s.RefreshStatuses(ctx)

		refresh := time.NewTicker(s.interval)
		defer refresh.Stop()
		housekeeping := time.NewTicker(housekeepingInterval)
		defer housekeeping.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-refresh.C:
				s.RefreshStatuses(ctx)
			case <-housekeeping.C:
				s.housekeep(ctx, time.Now())
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// RefreshStatuses recomputes every member and republishes the member gauge.
func (s *Scheduler) RefreshStatuses(ctx context.Context) {
	res, err := s.svc.Status.RefreshAll(ctx)
	s.metrics.JobRun("status_refresh", err)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("status refresh failed", "error", err)
		}
		return
	}
	s.logger.Debug("status refresh done", "checked", res.Checked, "activated", res.Activated, "deactivated", res.Deactivated)

	if _, _, err := s.svc.Status.Counts(ctx); err != nil {
		s.logger.Error("count members", "error", err)
	}
}

// housekeep stores the snapshot of a day that just ended and, once an hour,
// drops expired sessions and rate-limit windows.
func (s *Scheduler) housekeep(ctx context.Context, now time.Time) {
	today := s.svc.Reports.Today()

	s.mu.Lock()
	ended := s.lastDay
	dayChanged := !ended.IsZero() && today.After(ended)
	if dayChanged || ended.IsZero() {
		s.lastDay = today
	}
	cleanupDue := now.Sub(s.lastCleanup) >= cleanupInterval
	if cleanupDue {
		s.lastCleanup = now
	}
	s.mu.Unlock()

	if dayChanged {
		// A day that ended means members may have crossed the window too.
		s.RefreshStatuses(ctx)
		_, err := s.svc.Reports.DailySnapshot(ctx, ended)
		s.metrics.JobRun("daily_snapshot", err)
		if err != nil {
			s.logger.Error("daily snapshot failed", "date", ended.Format("2006-01-02"), "error", err)
		}
	}

	if cleanupDue {
		s.cleanup()
	}
}

func (s *Scheduler) cleanup() {
	n, err := s.sessions.DeleteExpired()
	s.metrics.JobRun("session_cleanup", err)
	if err != nil {
		s.logger.Error("delete expired sessions", "error", err)
	} else if n > 0 {
		s.logger.Info("expired sessions removed", "count", n)
	}

	if s.limiter != nil {
		if removed := s.limiter.Cleanup(); removed > 0 {
			s.logger.Debug("rate limit windows removed", "count", removed)
		}
	}
}
