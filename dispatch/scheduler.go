package dispatch

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-calsync/core"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/robfig/cron/v3"
)

// Scheduler fires the reminder batch on a fixed daily cadence. It is an
// owned object: its lifetime belongs to the host process, which passes the
// shutdown context into Start. Stop halts future cycles without killing an
// in-flight run; the run context aborts the loop between items.
type Scheduler struct {
	dispatcher *Dispatcher
	cronSpec   string
	runOpts    RunOptions
	logger     core.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	runCtx  context.Context
	cancel  context.CancelFunc
	started bool
}

type SchedulerConfig struct {
	Dispatcher *Dispatcher
	CronSpec   string
	RunOptions RunOptions
	Logger     core.Logger
}

func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.Dispatcher == nil {
		return nil, fmt.Errorf("dispatch: dispatcher is required")
	}
	spec := strings.TrimSpace(cfg.CronSpec)
	if spec == "" {
		spec = core.DefaultReminderCronSpec
	}
	return &Scheduler{
		dispatcher: cfg.Dispatcher,
		cronSpec:   spec,
		runOpts:    cfg.RunOptions,
		logger:     glog.Ensure(cfg.Logger),
	}, nil
}

// Start schedules the daily cycle. Calling Start on a running scheduler is a
// no-op. Cancelling ctx stops scheduling further cycles and aborts an
// in-flight batch between items.
func (s *Scheduler) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("dispatch: scheduler is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	runner := cron.New()
	runCtx, cancel := context.WithCancel(ctx)
	if _, err := runner.AddFunc(s.cronSpec, func() {
		if runCtx.Err() != nil {
			return
		}
		s.dispatcher.RunBatch(runCtx, s.runOpts)
	}); err != nil {
		cancel()
		return fmt.Errorf("dispatch: invalid cron spec %q: %w", s.cronSpec, err)
	}
	runner.Start()

	s.cron = runner
	s.runCtx = runCtx
	s.cancel = cancel
	s.started = true

	// Stop scheduling when the host context goes away.
	go func() {
		<-runCtx.Done()
		s.Stop()
	}()

	s.logger.Info("reminder scheduler started", "cron_spec", s.cronSpec)
	return nil
}

// Stop halts scheduling. Safe to call when never started or already stopped.
// An in-flight batch keeps running until its next inter-item checkpoint.
func (s *Scheduler) Stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	if s.cancel != nil {
		s.cancel()
	}
	if s.cron != nil {
		s.cron.Stop()
		s.cron = nil
	}
	s.logger.Info("reminder scheduler stopped")
}

// Running reports whether the scheduler currently has an active cron entry.
func (s *Scheduler) Running() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}
