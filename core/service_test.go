package core

import (
	"context"
	"testing"
	"time"
)

type fakeProvider struct {
	createFn  func(ctx context.Context, req ProvisionRequest) (ManagedUserResult, error)
	refreshFn func(ctx context.Context, refreshToken string) (TokenPair, error)

	createCalls  int
	refreshCalls int
}

func (p *fakeProvider) CreateManagedUser(ctx context.Context, req ProvisionRequest) (ManagedUserResult, error) {
	p.createCalls++
	if p.createFn == nil {
		return ManagedUserResult{}, nil
	}
	return p.createFn(ctx, req)
}

func (p *fakeProvider) RefreshTokens(ctx context.Context, refreshToken string) (TokenPair, error) {
	p.refreshCalls++
	if p.refreshFn == nil {
		return TokenPair{}, nil
	}
	return p.refreshFn(ctx, refreshToken)
}

func newTestService(t *testing.T, store RecordStore, provider ManagedUserProvider, options ...Option) *Service {
	t.Helper()
	all := append([]Option{
		WithRecordStore(store),
		WithManagedUserProvider(provider),
		WithClock(func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }),
	}, options...)
	service, err := NewService(Config{}, all...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func TestNewService_RequiresStoreAndProvider(t *testing.T) {
	if _, err := NewService(Config{}, WithManagedUserProvider(&fakeProvider{})); err == nil {
		t.Fatalf("expected error without record store")
	}
	if _, err := NewService(Config{}, WithRecordStore(NewMemoryRecordStore())); err == nil {
		t.Fatalf("expected error without provider")
	}
}

func TestNewService_ResolvesConfigDefaults(t *testing.T) {
	service := newTestService(t, NewMemoryRecordStore(), &fakeProvider{})

	cfg := service.Config()
	if cfg.Reminder.StaleThresholdDays != DefaultStaleThresholdDays {
		t.Fatalf("expected default threshold %d, got %d", DefaultStaleThresholdDays, cfg.Reminder.StaleThresholdDays)
	}
	if cfg.Reminder.CronSpec != DefaultReminderCronSpec {
		t.Fatalf("expected default cron spec %q, got %q", DefaultReminderCronSpec, cfg.Reminder.CronSpec)
	}
	if cfg.DefaultTimeZone != DefaultTimeZone {
		t.Fatalf("expected default time zone %q, got %q", DefaultTimeZone, cfg.DefaultTimeZone)
	}
}

func TestNewService_RuntimeConfigOverridesDefaults(t *testing.T) {
	service, err := NewService(Config{
		Reminder: ReminderConfig{StaleThresholdDays: 7},
	},
		WithRecordStore(NewMemoryRecordStore()),
		WithManagedUserProvider(&fakeProvider{}),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	cfg := service.Config()
	if cfg.Reminder.StaleThresholdDays != 7 {
		t.Fatalf("expected runtime threshold 7, got %d", cfg.Reminder.StaleThresholdDays)
	}
	if cfg.Reminder.CronSpec != DefaultReminderCronSpec {
		t.Fatalf("expected cron spec to fall back to default, got %q", cfg.Reminder.CronSpec)
	}
}
