package core

import (
	"context"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

func TestFetchCredentials(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRecordStore()
	seedIdentity(t, store, 5, "at-5", "rt-5")
	service := newTestService(t, store, &fakeProvider{})

	creds, err := service.FetchCredentials(ctx, 5)
	if err != nil {
		t.Fatalf("fetch credentials: %v", err)
	}
	if creds.ExternalUserID != 5 || creds.AccessToken != "at-5" {
		t.Fatalf("unexpected credentials: %+v", creds)
	}

	_, err = service.FetchCredentials(ctx, 404)
	if err == nil {
		t.Fatalf("expected not found")
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.TextCode != ServiceErrorRecordNotFound {
		t.Fatalf("expected %q, got %v", ServiceErrorRecordNotFound, err)
	}
}

func TestMarkAvailabilityConfirmed_UsesServiceClock(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRecordStore()
	seedIdentity(t, store, 5, "at-5", "rt-5")
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service := newTestService(t, store, &fakeProvider{})

	confirmation, err := service.MarkAvailabilityConfirmed(ctx, 5)
	if err != nil {
		t.Fatalf("mark availability: %v", err)
	}
	if !confirmation.AvailabilityLastUpdated.Equal(clock) {
		t.Fatalf("expected injected clock %v, got %v", clock, confirmation.AvailabilityLastUpdated)
	}
}

func TestFindStale_ZeroThresholdFallsBackToConfig(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRecordStore()
	seedIdentity(t, store, 1, "at-1", "rt-1")
	seedIdentity(t, store, 2, "at-2", "rt-2")
	service := newTestService(t, store, &fakeProvider{})

	// Record 2 is confirmed inside the default 30 day window, record 1 never.
	recent := service.now().Add(-24 * time.Hour)
	if _, err := store.MarkAvailabilityConfirmed(ctx, 2, recent); err != nil {
		t.Fatalf("mark record 2: %v", err)
	}

	stale, err := service.FindStale(ctx, 0)
	if err != nil {
		t.Fatalf("find stale: %v", err)
	}
	if len(stale) != 1 || stale[0].ExternalUserID != 1 {
		t.Fatalf("expected only record 1 stale, got %+v", stale)
	}
}
