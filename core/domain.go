package core

import (
	"fmt"
	"strings"
	"time"
)

// DaysNeverUpdated is the sentinel days-since-update value for records whose
// availability has never been confirmed.
const DaysNeverUpdated = -1

// IdentityRecord is the local projection of a managed identity held by the
// external scheduling provider. ExternalUserID is assigned by the provider and
// immutable once set; the token pair is always replaced as a unit.
type IdentityRecord struct {
	LocalID                 string
	ExternalUserID          int64
	Email                   string
	AccessToken             string
	RefreshToken            string
	AvailabilityLastUpdated *time.Time
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// HasEmail reports whether the record carries a usable notification address.
func (r IdentityRecord) HasEmail() bool {
	return strings.TrimSpace(r.Email) != ""
}

// DaysSinceAvailabilityUpdate returns the floor of elapsed whole days since
// the last availability confirmation, or DaysNeverUpdated when none exists.
func (r IdentityRecord) DaysSinceAvailabilityUpdate(now time.Time) int {
	if r.AvailabilityLastUpdated == nil {
		return DaysNeverUpdated
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	elapsed := now.UTC().Sub(r.AvailabilityLastUpdated.UTC())
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / (24 * time.Hour))
}

// ProvisionRequest carries the profile submitted for managed user creation.
type ProvisionRequest struct {
	Name     string
	Email    string
	TimeZone string
}

func (r ProvisionRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("core: name is required")
	}
	if strings.TrimSpace(r.Email) == "" {
		return fmt.Errorf("core: email is required")
	}
	return nil
}

// ProvisionResult reports how the identity was obtained.
type ProvisionResult struct {
	Record IdentityRecord
	// Adopted is true when an existing local record was returned for a
	// provider-side conflict instead of a fresh insert.
	Adopted bool
}

// CreateIdentityInput is the insert contract for the record store.
type CreateIdentityInput struct {
	ExternalUserID int64
	Email          string
	AccessToken    string
	RefreshToken   string
}

func (in CreateIdentityInput) Validate() error {
	if in.ExternalUserID <= 0 {
		return fmt.Errorf("core: external user id is required")
	}
	if strings.TrimSpace(in.AccessToken) == "" || strings.TrimSpace(in.RefreshToken) == "" {
		return fmt.Errorf("core: token pair is required")
	}
	return nil
}

// ReplaceTokensInput swaps a record's token pair. CurrentAccessToken keys the
// conditional update so two concurrent refreshes cannot interleave.
type ReplaceTokensInput struct {
	CurrentAccessToken string
	NewAccessToken     string
	NewRefreshToken    string
}

func (in ReplaceTokensInput) Validate() error {
	if strings.TrimSpace(in.CurrentAccessToken) == "" {
		return fmt.Errorf("core: current access token is required")
	}
	if strings.TrimSpace(in.NewAccessToken) == "" || strings.TrimSpace(in.NewRefreshToken) == "" {
		return fmt.Errorf("core: replacement token pair is required")
	}
	return nil
}

// Credentials is the read model returned to the excluded HTTP layer when it
// fetches tokens for a local user reference.
type Credentials struct {
	ExternalUserID int64
	AccessToken    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AvailabilityConfirmation is returned after a confirmation event moves the
// availability timestamp forward.
type AvailabilityConfirmation struct {
	ExternalUserID          int64
	AvailabilityLastUpdated time.Time
	UpdatedAt               time.Time
}

// SendOutcome records a single reminder attempt inside a batch run.
type SendOutcome struct {
	ExternalUserID  int64
	Email           string
	DaysSinceUpdate int
	Success         bool
	MessageID       string
	Error           string
}

// BatchSummary aggregates a reminder batch run. Err is set only when the
// candidate scan itself failed; item-level failures live in Items.
type BatchSummary struct {
	Attempted int
	Succeeded int
	Failed    int
	Items     []SendOutcome
	Err       string
}

// ReminderDispatch is one ledger row describing a reminder attempt.
type ReminderDispatch struct {
	ID              string
	ExternalUserID  int64
	Email           string
	DaysSinceUpdate int
	Status          string
	MessageID       string
	Error           string
	CreatedAt       time.Time
}

const (
	DispatchStatusSent    = "sent"
	DispatchStatusFailed  = "failed"
	DispatchStatusSkipped = "skipped"
)
