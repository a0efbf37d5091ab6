package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-calsync/core"
)

func newTestScheduler(t *testing.T, cronSpec string) *Scheduler {
	t.Helper()
	dispatcher := newTestDispatcher(t, DispatcherConfig{
		Scanner: &fakeScanner{},
		Gateway: &fakeGateway{},
	})
	scheduler, err := NewScheduler(SchedulerConfig{
		Dispatcher: dispatcher,
		CronSpec:   cronSpec,
	})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	return scheduler
}

func TestNewScheduler_RequiresDispatcher(t *testing.T) {
	if _, err := NewScheduler(SchedulerConfig{}); err == nil {
		t.Fatalf("expected error without dispatcher")
	}
}

func TestNewScheduler_DefaultsCronSpec(t *testing.T) {
	scheduler := newTestScheduler(t, "")
	if scheduler.cronSpec != core.DefaultReminderCronSpec {
		t.Fatalf("expected default cron spec, got %q", scheduler.cronSpec)
	}
}

func TestScheduler_StartIsIdempotent(t *testing.T) {
	scheduler := newTestScheduler(t, "@every 1h")
	defer scheduler.Stop()

	if err := scheduler.Start(context.Background()); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if err := scheduler.Start(context.Background()); err != nil {
		t.Fatalf("second start must be a no-op: %v", err)
	}
	if !scheduler.Running() {
		t.Fatalf("expected scheduler to be running")
	}
}

func TestScheduler_StopIsIdempotentAndSafeWhenNeverStarted(t *testing.T) {
	scheduler := newTestScheduler(t, "@every 1h")

	// Stop before any Start must not panic.
	scheduler.Stop()

	if err := scheduler.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	scheduler.Stop()
	scheduler.Stop()
	if scheduler.Running() {
		t.Fatalf("expected scheduler to be stopped")
	}
}

func TestScheduler_StartAfterStopSchedulesAgain(t *testing.T) {
	scheduler := newTestScheduler(t, "@every 1h")

	if err := scheduler.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	scheduler.Stop()
	if err := scheduler.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer scheduler.Stop()
	if !scheduler.Running() {
		t.Fatalf("expected scheduler to be running after restart")
	}
}

func TestScheduler_InvalidCronSpecFailsStart(t *testing.T) {
	scheduler := newTestScheduler(t, "not a cron spec")
	if err := scheduler.Start(context.Background()); err == nil {
		t.Fatalf("expected invalid cron spec error")
	}
	if scheduler.Running() {
		t.Fatalf("failed start must not mark the scheduler running")
	}
}

func TestScheduler_HostContextCancellationStopsScheduling(t *testing.T) {
	scheduler := newTestScheduler(t, "@every 1h")

	ctx, cancel := context.WithCancel(context.Background())
	if err := scheduler.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	cancel()

	deadline := time.Now().Add(time.Second)
	for scheduler.Running() {
		if time.Now().After(deadline) {
			t.Fatalf("scheduler still running after host context cancellation")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
