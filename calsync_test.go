package calsync

import (
	"context"
	"testing"

	"github.com/goliatone/go-calsync/core"
)

type stubProvider struct{}

func (stubProvider) CreateManagedUser(context.Context, core.ProvisionRequest) (core.ManagedUserResult, error) {
	return core.ManagedUserResult{ExternalUserID: 1, AccessToken: "at", RefreshToken: "rt"}, nil
}

func (stubProvider) RefreshTokens(context.Context, string) (core.TokenPair, error) {
	return core.TokenPair{AccessToken: "at", RefreshToken: "rt"}, nil
}

type stubGateway struct{}

func (stubGateway) Send(context.Context, string, int64, int) (core.SendReceipt, error) {
	return core.SendReceipt{MessageID: "msg"}, nil
}

func newFacadeService(t *testing.T) *Service {
	t.Helper()
	service, err := NewService(Config{},
		WithRecordStore(NewMemoryRecordStore()),
		WithManagedUserProvider(stubProvider{}),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func TestNewCommands(t *testing.T) {
	service := newFacadeService(t)

	commands, err := NewCommands(service, nil)
	if err != nil {
		t.Fatalf("new commands: %v", err)
	}
	if commands.ProvisionIdentity == nil || commands.RefreshTokens == nil || commands.MarkAvailability == nil {
		t.Fatalf("expected service commands to be wired")
	}
	if commands.RunReminderBatch != nil {
		t.Fatalf("reminder command should stay nil without a runner")
	}

	if _, err := NewCommands(nil, nil); err == nil {
		t.Fatalf("expected error without service")
	}
}

func TestNewReminderPipeline(t *testing.T) {
	service := newFacadeService(t)

	dispatcher, scheduler, err := NewReminderPipeline(service, stubGateway{}, ReminderPipelineOptions{})
	if err != nil {
		t.Fatalf("new reminder pipeline: %v", err)
	}
	if dispatcher == nil || scheduler == nil {
		t.Fatalf("expected dispatcher and scheduler")
	}

	summary := dispatcher.RunBatch(context.Background(), RunOptions{})
	if summary.Err != "" {
		t.Fatalf("empty batch must not error: %q", summary.Err)
	}

	if _, _, err := NewReminderPipeline(service, nil, ReminderPipelineOptions{}); err == nil {
		t.Fatalf("expected error without gateway")
	}
}
