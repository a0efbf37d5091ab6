package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRecordStore is an in-memory RecordStore with the same uniqueness and
// atomicity semantics as the SQL implementation. Intended for tests and
// local development.
type MemoryRecordStore struct {
	mu      sync.Mutex
	records map[int64]*IdentityRecord
	nowFn   func() time.Time
}

func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{
		records: map[int64]*IdentityRecord{},
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryRecordStore) Create(_ context.Context, in CreateIdentityInput) (IdentityRecord, error) {
	if s == nil {
		return IdentityRecord{}, fmt.Errorf("core: record store is not configured")
	}
	if err := in.Validate(); err != nil {
		return IdentityRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[in.ExternalUserID]; exists {
		return IdentityRecord{}, fmt.Errorf("core: duplicate external user id %d", in.ExternalUserID)
	}
	for _, existing := range s.records {
		if existing.AccessToken != "" && existing.AccessToken == in.AccessToken {
			return IdentityRecord{}, fmt.Errorf("core: duplicate access token")
		}
	}

	now := s.nowFn().UTC()
	record := IdentityRecord{
		LocalID:        uuid.NewString(),
		ExternalUserID: in.ExternalUserID,
		Email:          strings.TrimSpace(in.Email),
		AccessToken:    in.AccessToken,
		RefreshToken:   in.RefreshToken,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.records[in.ExternalUserID] = &record
	return record, nil
}

func (s *MemoryRecordStore) GetByExternalID(_ context.Context, externalUserID int64) (IdentityRecord, error) {
	if s == nil {
		return IdentityRecord{}, fmt.Errorf("core: record store is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[externalUserID]
	if !ok {
		return IdentityRecord{}, ErrRecordNotFound
	}
	return *record, nil
}

func (s *MemoryRecordStore) GetByAccessToken(_ context.Context, accessToken string) (IdentityRecord, error) {
	if s == nil {
		return IdentityRecord{}, fmt.Errorf("core: record store is not configured")
	}
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return IdentityRecord{}, fmt.Errorf("core: access token is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.records {
		if record.AccessToken == accessToken {
			return *record, nil
		}
	}
	return IdentityRecord{}, ErrRecordNotFound
}

func (s *MemoryRecordStore) ReplaceTokens(_ context.Context, in ReplaceTokensInput) (IdentityRecord, error) {
	if s == nil {
		return IdentityRecord{}, fmt.Errorf("core: record store is not configured")
	}
	if err := in.Validate(); err != nil {
		return IdentityRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.records {
		if record.AccessToken == in.CurrentAccessToken {
			record.AccessToken = in.NewAccessToken
			record.RefreshToken = in.NewRefreshToken
			record.UpdatedAt = s.nowFn().UTC()
			return *record, nil
		}
	}
	// The presented token was rotated away by a concurrent refresh.
	return IdentityRecord{}, ErrRecordNotFound
}

func (s *MemoryRecordStore) MarkAvailabilityConfirmed(_ context.Context, externalUserID int64, at time.Time) (IdentityRecord, error) {
	if s == nil {
		return IdentityRecord{}, fmt.Errorf("core: record store is not configured")
	}
	if at.IsZero() {
		at = s.nowFn()
	}
	at = at.UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[externalUserID]
	if !ok {
		return IdentityRecord{}, ErrRecordNotFound
	}
	if record.AvailabilityLastUpdated == nil || at.After(*record.AvailabilityLastUpdated) {
		record.AvailabilityLastUpdated = &at
	}
	record.UpdatedAt = s.nowFn().UTC()
	return *record, nil
}

func (s *MemoryRecordStore) FindStale(_ context.Context, now time.Time, threshold time.Duration) ([]IdentityRecord, error) {
	if s == nil {
		return nil, fmt.Errorf("core: record store is not configured")
	}
	if now.IsZero() {
		now = s.nowFn()
	}
	cutoff := now.UTC().Add(-threshold)

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]IdentityRecord, 0)
	for _, record := range s.records {
		if record.AvailabilityLastUpdated == nil || record.AvailabilityLastUpdated.Before(cutoff) {
			out = append(out, *record)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ExternalUserID < out[j].ExternalUserID
	})
	return out, nil
}

var _ RecordStore = (*MemoryRecordStore)(nil)
