package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// RecordStore is the persistence contract for identity records. Conflicting
// writes to the same record are serialized by the store through single
// conditional update statements, never read-then-write.
type RecordStore interface {
	Create(ctx context.Context, in CreateIdentityInput) (IdentityRecord, error)
	GetByExternalID(ctx context.Context, externalUserID int64) (IdentityRecord, error)
	GetByAccessToken(ctx context.Context, accessToken string) (IdentityRecord, error)
	// ReplaceTokens swaps both tokens atomically, keyed by the access token
	// the caller presented. Returns the updated record.
	ReplaceTokens(ctx context.Context, in ReplaceTokensInput) (IdentityRecord, error)
	// MarkAvailabilityConfirmed advances the availability timestamp; it never
	// moves the timestamp backward.
	MarkAvailabilityConfirmed(ctx context.Context, externalUserID int64, at time.Time) (IdentityRecord, error)
	// FindStale returns every record whose availability confirmation is absent
	// or older than threshold relative to now. Snapshot read, no side effects.
	FindStale(ctx context.Context, now time.Time, threshold time.Duration) ([]IdentityRecord, error)
}

// ManagedUserProvider is the documented request/response contract of the
// external scheduling provider. Implementations live in the provider package.
type ManagedUserProvider interface {
	CreateManagedUser(ctx context.Context, req ProvisionRequest) (ManagedUserResult, error)
	RefreshTokens(ctx context.Context, refreshToken string) (TokenPair, error)
}

// ManagedUserResult is the provider's creation payload.
type ManagedUserResult struct {
	ExternalUserID int64
	AccessToken    string
	RefreshToken   string
}

// TokenPair is the provider's refresh payload.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// NotificationGateway delivers a single availability reminder. Delivery
// mechanics (templating, transport) are a collaborator concern.
type NotificationGateway interface {
	Send(ctx context.Context, email string, externalUserID int64, daysSinceUpdate int) (SendReceipt, error)
}

// SendReceipt acknowledges an accepted notification.
type SendReceipt struct {
	MessageID string
}

// DispatchLedger records reminder attempts for operator diagnosis. Recording
// failures never abort a batch.
type DispatchLedger interface {
	Record(ctx context.Context, dispatch ReminderDispatch) error
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
