package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Refresher reloads cached state from the database.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler runs the periodic date catalog refresh.
type Scheduler struct {
	Cron    *cron.Cron
	Catalog Refresher
	Log     logrus.FieldLogger
	Ctx     context.Context
	Timeout time.Duration
}

// NewScheduler creates a new Scheduler. Cron specs include a seconds field.
func NewScheduler(ctx context.Context, catalog Refresher, log logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		Cron:    cron.New(cron.WithSeconds()),
		Catalog: catalog,
		Log:     log,
		Ctx:     ctx,
		Timeout: 30 * time.Second,
	}
}

// Register schedules the catalog refresh on spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.refreshTask); err != nil {
		return fmt.Errorf("register catalog refresh: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Log.Info("scheduler stopped")
}

// RunNow executes the refresh immediately.
func (s *Scheduler) RunNow() error {
	ctx, cancel := context.WithTimeout(s.Ctx, s.Timeout)
	defer cancel()
	return s.Catalog.Refresh(ctx)
}

func (s *Scheduler) refreshTask() {
	if err := s.RunNow(); err != nil {
		s.Log.WithError(err).Error("catalog refresh failed")
	}
}
