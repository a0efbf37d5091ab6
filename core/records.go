package core

import (
	"context"
	"errors"
	"time"
)

// FetchCredentials returns the token read model for a provisioned identity.
func (s *Service) FetchCredentials(ctx context.Context, externalUserID int64) (Credentials, error) {
	if s == nil {
		return Credentials{}, errors.New("core: service is nil")
	}
	startedAt := s.now()
	record, err := s.records.GetByExternalID(ctx, externalUserID)
	err = s.mapError(err)
	s.observeOperation(ctx, startedAt, "fetch_credentials", err, map[string]any{
		"external_user_id": externalUserID,
	})
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{
		ExternalUserID: record.ExternalUserID,
		AccessToken:    record.AccessToken,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
	}, nil
}

// MarkAvailabilityConfirmed records an external confirmation event, advancing
// the availability timestamp. The store guarantees the timestamp never moves
// backward.
func (s *Service) MarkAvailabilityConfirmed(ctx context.Context, externalUserID int64) (AvailabilityConfirmation, error) {
	if s == nil {
		return AvailabilityConfirmation{}, errors.New("core: service is nil")
	}
	startedAt := s.now()
	record, err := s.records.MarkAvailabilityConfirmed(ctx, externalUserID, s.now())
	err = s.mapError(err)
	s.observeOperation(ctx, startedAt, "mark_availability", err, map[string]any{
		"external_user_id": externalUserID,
	})
	if err != nil {
		return AvailabilityConfirmation{}, err
	}
	confirmation := AvailabilityConfirmation{
		ExternalUserID: record.ExternalUserID,
		UpdatedAt:      record.UpdatedAt,
	}
	if record.AvailabilityLastUpdated != nil {
		confirmation.AvailabilityLastUpdated = *record.AvailabilityLastUpdated
	}
	return confirmation, nil
}

// FindStale returns the records whose availability confirmation is absent or
// older than threshold. Zero threshold falls back to the configured default.
func (s *Service) FindStale(ctx context.Context, threshold time.Duration) ([]IdentityRecord, error) {
	if s == nil {
		return nil, errors.New("core: service is nil")
	}
	if threshold <= 0 {
		threshold = s.config.Reminder.StaleThreshold()
	}
	records, err := s.records.FindStale(ctx, s.now(), threshold)
	if err != nil {
		return nil, s.mapError(err)
	}
	return records, nil
}
