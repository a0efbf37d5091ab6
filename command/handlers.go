package command

import (
	"context"
	"time"

	"github.com/goliatone/go-calsync/core"
	"github.com/goliatone/go-calsync/dispatch"
	gocmd "github.com/goliatone/go-command"
)

// MutatingService is the slice of the sync service the commands drive.
type MutatingService interface {
	Provision(ctx context.Context, req core.ProvisionRequest) (core.ProvisionResult, error)
	Refresh(ctx context.Context, currentAccessToken string) (string, error)
	MarkAvailabilityConfirmed(ctx context.Context, externalUserID int64) (core.AvailabilityConfirmation, error)
}

// BatchRunner is the slice of the dispatcher the reminder command drives.
type BatchRunner interface {
	RunBatch(ctx context.Context, opts dispatch.RunOptions) core.BatchSummary
}

type ProvisionIdentityCommand struct {
	service MutatingService
}

func NewProvisionIdentityCommand(service MutatingService) *ProvisionIdentityCommand {
	return &ProvisionIdentityCommand{service: service}
}

func (c *ProvisionIdentityCommand) Execute(ctx context.Context, msg ProvisionIdentityMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: provision service is required")
	}
	out, err := c.service.Provision(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RefreshTokensCommand struct {
	service MutatingService
}

func NewRefreshTokensCommand(service MutatingService) *RefreshTokensCommand {
	return &RefreshTokensCommand{service: service}
}

func (c *RefreshTokensCommand) Execute(ctx context.Context, msg RefreshTokensMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: refresh service is required")
	}
	out, err := c.service.Refresh(ctx, msg.AccessToken)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type MarkAvailabilityCommand struct {
	service MutatingService
}

func NewMarkAvailabilityCommand(service MutatingService) *MarkAvailabilityCommand {
	return &MarkAvailabilityCommand{service: service}
}

func (c *MarkAvailabilityCommand) Execute(ctx context.Context, msg MarkAvailabilityMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: availability service is required")
	}
	out, err := c.service.MarkAvailabilityConfirmed(ctx, msg.ExternalUserID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RunReminderBatchCommand struct {
	runner BatchRunner
}

func NewRunReminderBatchCommand(runner BatchRunner) *RunReminderBatchCommand {
	return &RunReminderBatchCommand{runner: runner}
}

func (c *RunReminderBatchCommand) Execute(ctx context.Context, msg RunReminderBatchMessage) error {
	if c == nil || c.runner == nil {
		return commandDependencyError("command: batch runner is required")
	}
	summary := c.runner.RunBatch(ctx, dispatch.RunOptions{
		Threshold:            time.Duration(msg.ThresholdDays) * 24 * time.Hour,
		MinDelayBetweenSends: time.Duration(msg.MinSendDelayMS) * time.Millisecond,
	})
	storeResult(ctx, summary)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
