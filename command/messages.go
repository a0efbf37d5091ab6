package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-calsync/core"
)

const (
	TypeProvisionIdentity = "calsync.command.identity.provision"
	TypeRefreshTokens     = "calsync.command.tokens.refresh"
	TypeMarkAvailability  = "calsync.command.availability.mark"
	TypeRunReminderBatch  = "calsync.command.reminders.run"
)

type ProvisionIdentityMessage struct {
	Request core.ProvisionRequest
}

func (ProvisionIdentityMessage) Type() string { return TypeProvisionIdentity }

func (m ProvisionIdentityMessage) Validate() error {
	if err := m.Request.Validate(); err != nil {
		return fmt.Errorf("command: %w", err)
	}
	return nil
}

type RefreshTokensMessage struct {
	AccessToken string
}

func (RefreshTokensMessage) Type() string { return TypeRefreshTokens }

func (m RefreshTokensMessage) Validate() error {
	if strings.TrimSpace(m.AccessToken) == "" {
		return fmt.Errorf("command: access token is required")
	}
	return nil
}

type MarkAvailabilityMessage struct {
	ExternalUserID int64
}

func (MarkAvailabilityMessage) Type() string { return TypeMarkAvailability }

func (m MarkAvailabilityMessage) Validate() error {
	if m.ExternalUserID <= 0 {
		return fmt.Errorf("command: external user id is required")
	}
	return nil
}

// RunReminderBatchMessage triggers one reminder batch. Zero values fall back
// to the configured threshold and pacing.
type RunReminderBatchMessage struct {
	ThresholdDays  int
	MinSendDelayMS int
}

func (RunReminderBatchMessage) Type() string { return TypeRunReminderBatch }

func (m RunReminderBatchMessage) Validate() error {
	if m.ThresholdDays < 0 {
		return fmt.Errorf("command: threshold days must not be negative")
	}
	if m.MinSendDelayMS < 0 {
		return fmt.Errorf("command: min send delay must not be negative")
	}
	return nil
}
