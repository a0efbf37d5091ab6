package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[ProvisionIdentityMessage] = (*ProvisionIdentityCommand)(nil)
	_ gocmd.Commander[RefreshTokensMessage]     = (*RefreshTokensCommand)(nil)
	_ gocmd.Commander[MarkAvailabilityMessage]  = (*MarkAvailabilityCommand)(nil)
	_ gocmd.Commander[RunReminderBatchMessage]  = (*RunReminderBatchCommand)(nil)
)
