package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/taskgrove/taskadmin/internal/auth/store"
)

// HousekeepingService periodically clears lockout stamps whose window has
// passed so the accounts table doesn't accumulate stale throttle state.
// Authentication checks the timestamp itself, so this is tidiness, not
// enforcement.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping worker with the given
// interval. If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut it
// down gracefully.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts down the worker, blocking until any in-progress sweep is done.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Sweep once on startup
	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) sweep() {
	ctx := context.Background()

	cleared, err := s.Store.Accounts().ClearExpiredLockouts(ctx, time.Now())
	if err != nil {
		s.Logger.Error("failed to clear expired lockouts", "error", err)
		return
	}
	if cleared > 0 {
		s.Logger.Info("cleared expired lockouts", "count", cleared)
	}
}
