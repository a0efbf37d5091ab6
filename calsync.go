// Package calsync synchronizes local user records with an external managed
// scheduling provider: create-or-adopt provisioning, atomic token refresh,
// and a rate-limited daily reminder batch for stale availability.
package calsync

import (
	"fmt"

	calsynccommand "github.com/goliatone/go-calsync/command"
	"github.com/goliatone/go-calsync/core"
	"github.com/goliatone/go-calsync/dispatch"
)

// Core re-exports. Host applications compose against these without importing
// the internal packages directly.
type (
	Config                   = core.Config
	ReminderConfig           = core.ReminderConfig
	IdentityRecord           = core.IdentityRecord
	ProvisionRequest         = core.ProvisionRequest
	ProvisionResult          = core.ProvisionResult
	Credentials              = core.Credentials
	AvailabilityConfirmation = core.AvailabilityConfirmation
	BatchSummary             = core.BatchSummary
	SendOutcome              = core.SendOutcome
	RecordStore              = core.RecordStore
	ManagedUserProvider      = core.ManagedUserProvider
	NotificationGateway      = core.NotificationGateway
	Service                  = core.Service
	Option                   = core.Option
	RunOptions               = dispatch.RunOptions
	Dispatcher               = dispatch.Dispatcher
	Scheduler                = dispatch.Scheduler
)

var (
	NewService              = core.NewService
	NewMemoryRecordStore    = core.NewMemoryRecordStore
	DefaultConfig           = core.DefaultConfig
	WithLogger              = core.WithLogger
	WithLoggerProvider      = core.WithLoggerProvider
	WithMetricsRecorder     = core.WithMetricsRecorder
	WithErrorMapper         = core.WithErrorMapper
	WithConfigProvider      = core.WithConfigProvider
	WithRecordStore         = core.WithRecordStore
	WithManagedUserProvider = core.WithManagedUserProvider
	WithClock               = core.WithClock
)

// Commands bundles the message-driven wrappers around one service instance.
type Commands struct {
	ProvisionIdentity *calsynccommand.ProvisionIdentityCommand
	RefreshTokens     *calsynccommand.RefreshTokensCommand
	MarkAvailability  *calsynccommand.MarkAvailabilityCommand
	RunReminderBatch  *calsynccommand.RunReminderBatchCommand
}

// NewCommands wires the command handlers for a service and an optional batch
// runner. RunReminderBatch stays nil when no runner is supplied.
func NewCommands(service *core.Service, runner calsynccommand.BatchRunner) (Commands, error) {
	if service == nil {
		return Commands{}, fmt.Errorf("calsync: service is required")
	}
	commands := Commands{
		ProvisionIdentity: calsynccommand.NewProvisionIdentityCommand(service),
		RefreshTokens:     calsynccommand.NewRefreshTokensCommand(service),
		MarkAvailability:  calsynccommand.NewMarkAvailabilityCommand(service),
	}
	if runner != nil {
		commands.RunReminderBatch = calsynccommand.NewRunReminderBatchCommand(runner)
	}
	return commands, nil
}

// NewReminderPipeline assembles the dispatcher and its daily scheduler from a
// configured service. The caller owns the scheduler lifecycle.
func NewReminderPipeline(service *core.Service, gateway core.NotificationGateway, opts ReminderPipelineOptions) (*dispatch.Dispatcher, *dispatch.Scheduler, error) {
	if service == nil {
		return nil, nil, fmt.Errorf("calsync: service is required")
	}
	if gateway == nil {
		return nil, nil, fmt.Errorf("calsync: notification gateway is required")
	}

	cfg := service.Config()
	dispatcher, err := dispatch.NewDispatcher(dispatch.DispatcherConfig{
		Scanner:              service,
		Gateway:              gateway,
		Ledger:               opts.Ledger,
		SummaryNotifier:      opts.SummaryNotifier,
		Logger:               opts.Logger,
		Metrics:              opts.Metrics,
		MinDelayBetweenSends: cfg.Reminder.MinSendDelay(),
	})
	if err != nil {
		return nil, nil, err
	}

	scheduler, err := dispatch.NewScheduler(dispatch.SchedulerConfig{
		Dispatcher: dispatcher,
		CronSpec:   cfg.Reminder.CronSpec,
		RunOptions: dispatch.RunOptions{Threshold: cfg.Reminder.StaleThreshold()},
		Logger:     opts.Logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return dispatcher, scheduler, nil
}

// ReminderPipelineOptions carries the optional collaborators for the batch
// pipeline.
type ReminderPipelineOptions struct {
	Ledger          core.DispatchLedger
	SummaryNotifier dispatch.SummaryNotifier
	Logger          core.Logger
	Metrics         core.MetricsRecorder
}
