package command

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-calsync/core"
	"github.com/goliatone/go-calsync/dispatch"
)

type fakeService struct {
	provisionFn func(ctx context.Context, req core.ProvisionRequest) (core.ProvisionResult, error)
	refreshFn   func(ctx context.Context, token string) (string, error)
	markFn      func(ctx context.Context, externalUserID int64) (core.AvailabilityConfirmation, error)
}

func (s *fakeService) Provision(ctx context.Context, req core.ProvisionRequest) (core.ProvisionResult, error) {
	if s.provisionFn == nil {
		return core.ProvisionResult{}, nil
	}
	return s.provisionFn(ctx, req)
}

func (s *fakeService) Refresh(ctx context.Context, token string) (string, error) {
	if s.refreshFn == nil {
		return "", nil
	}
	return s.refreshFn(ctx, token)
}

func (s *fakeService) MarkAvailabilityConfirmed(ctx context.Context, externalUserID int64) (core.AvailabilityConfirmation, error) {
	if s.markFn == nil {
		return core.AvailabilityConfirmation{}, nil
	}
	return s.markFn(ctx, externalUserID)
}

type fakeBatchRunner struct {
	lastOpts dispatch.RunOptions
	summary  core.BatchSummary
}

func (r *fakeBatchRunner) RunBatch(_ context.Context, opts dispatch.RunOptions) core.BatchSummary {
	r.lastOpts = opts
	return r.summary
}

func TestProvisionIdentityCommand(t *testing.T) {
	service := &fakeService{
		provisionFn: func(_ context.Context, req core.ProvisionRequest) (core.ProvisionResult, error) {
			return core.ProvisionResult{Record: core.IdentityRecord{ExternalUserID: 42, Email: req.Email}}, nil
		},
	}
	cmd := NewProvisionIdentityCommand(service)

	msg := ProvisionIdentityMessage{Request: core.ProvisionRequest{Name: "Ada", Email: "ada@example.com"}}
	if err := msg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := cmd.Execute(context.Background(), msg); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if err := (ProvisionIdentityMessage{}).Validate(); err == nil {
		t.Fatalf("expected empty request to fail validation")
	}
	if err := (&ProvisionIdentityCommand{}).Execute(context.Background(), msg); err == nil {
		t.Fatalf("expected dependency error without service")
	}
}

func TestRefreshTokensCommand(t *testing.T) {
	called := ""
	service := &fakeService{
		refreshFn: func(_ context.Context, token string) (string, error) {
			called = token
			return "at-new", nil
		},
	}
	cmd := NewRefreshTokensCommand(service)

	if err := cmd.Execute(context.Background(), RefreshTokensMessage{AccessToken: "at-old"}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if called != "at-old" {
		t.Fatalf("expected presented token to reach the service, got %q", called)
	}
	if err := (RefreshTokensMessage{AccessToken: "  "}).Validate(); err == nil {
		t.Fatalf("expected blank token to fail validation")
	}
}

func TestMarkAvailabilityCommand(t *testing.T) {
	service := &fakeService{
		markFn: func(_ context.Context, externalUserID int64) (core.AvailabilityConfirmation, error) {
			return core.AvailabilityConfirmation{ExternalUserID: externalUserID}, nil
		},
	}
	cmd := NewMarkAvailabilityCommand(service)

	if err := cmd.Execute(context.Background(), MarkAvailabilityMessage{ExternalUserID: 7}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if err := (MarkAvailabilityMessage{}).Validate(); err == nil {
		t.Fatalf("expected missing external user id to fail validation")
	}
}

func TestRunReminderBatchCommand_TranslatesOptions(t *testing.T) {
	runner := &fakeBatchRunner{summary: core.BatchSummary{Attempted: 2, Succeeded: 2}}
	cmd := NewRunReminderBatchCommand(runner)

	msg := RunReminderBatchMessage{ThresholdDays: 14, MinSendDelayMS: 250}
	if err := msg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := cmd.Execute(context.Background(), msg); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if runner.lastOpts.Threshold != 14*24*time.Hour {
		t.Fatalf("unexpected threshold %v", runner.lastOpts.Threshold)
	}
	if runner.lastOpts.MinDelayBetweenSends != 250*time.Millisecond {
		t.Fatalf("unexpected delay %v", runner.lastOpts.MinDelayBetweenSends)
	}

	if err := (RunReminderBatchMessage{ThresholdDays: -1}).Validate(); err == nil {
		t.Fatalf("expected negative threshold to fail validation")
	}
}
