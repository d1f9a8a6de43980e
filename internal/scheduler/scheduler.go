package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"StockDashboard/internal/collector"
	"StockDashboard/internal/dashboard"
	"StockDashboard/internal/model"
)

// Scheduler manages the background maintenance jobs.
type Scheduler struct {
	Cron       *cron.Cron
	Cache      *collector.CachedFetcher
	Controller *dashboard.Controller
	Sessions   *dashboard.Sessions
	WarmSel    model.Selection
	SessionTTL time.Duration
	Ctx        context.Context
}

// NewScheduler creates a new Scheduler. cache and sessions may be nil, in
// which case the matching sweep job is skipped.
func NewScheduler(ctx context.Context, cache *collector.CachedFetcher, ctrl *dashboard.Controller, sessions *dashboard.Sessions) *Scheduler {
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Cache:      cache,
		Controller: ctrl,
		Sessions:   sessions,
		SessionTTL: 30 * time.Minute,
		Ctx:        ctx,
	}
}

// RegisterAll registers the cache sweep, session sweep and, when warmCron
// is set, the warm-up of the default selection.
func (s *Scheduler) RegisterAll(cacheSweepCron, sessionSweepCron, warmCron string) error {
	if s.Cache != nil {
		if _, err := s.Cron.AddFunc(cacheSweepCron, s.sweepCache); err != nil {
			return fmt.Errorf("register cache sweep: %w", err)
		}
	}
	if s.Sessions != nil {
		if _, err := s.Cron.AddFunc(sessionSweepCron, s.sweepSessions); err != nil {
			return fmt.Errorf("register session sweep: %w", err)
		}
	}
	if warmCron != "" {
		if s.Cache == nil {
			log.Println("[WARN] warm_cron set without a cache, warm-up skipped")
			return nil
		}
		if _, err := s.Cron.AddFunc(warmCron, s.warm); err != nil {
			return fmt.Errorf("register warm task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunWarmNow executes the warm-up immediately (for RUN_ON_START).
func (s *Scheduler) RunWarmNow() {
	s.warm()
}

func (s *Scheduler) sweepCache() {
	if n := s.Cache.Sweep(); n > 0 {
		log.Printf("[INFO] cache sweep evicted %d entries", n)
	}
}

func (s *Scheduler) sweepSessions() {
	if n := s.Sessions.Sweep(s.SessionTTL); n > 0 {
		log.Printf("[INFO] session sweep removed %d idle sessions", n)
	}
}

func (s *Scheduler) warm() {
	if s.Ctx.Err() != nil {
		return
	}
	log.Printf("[INFO] warming cache for %v", s.WarmSel.Companies)
	if err := s.Controller.Warm(s.Ctx, s.WarmSel); err != nil {
		log.Printf("[ERROR] warm: %v", err)
	}
}
