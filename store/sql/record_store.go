package sqlstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-calsync/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RecordStore persists identity records on bun. Token replacement and
// availability confirmation are single conditional UPDATE statements so the
// store serializes conflicting writes without a record-level lock.
type RecordStore struct {
	db   *bun.DB
	repo repository.Repository[*identityRecord]
}

func NewRecordStore(db *bun.DB) (*RecordStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*identityRecord](db, identityHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid identity repository wiring: %w", err)
		}
	}
	return &RecordStore{db: db, repo: repo}, nil
}

func (s *RecordStore) Create(ctx context.Context, in core.CreateIdentityInput) (core.IdentityRecord, error) {
	if s == nil || s.repo == nil {
		return core.IdentityRecord{}, fmt.Errorf("sqlstore: record store is not configured")
	}
	if err := in.Validate(); err != nil {
		return core.IdentityRecord{}, err
	}

	now := time.Now().UTC()
	accessToken := strings.TrimSpace(in.AccessToken)
	refreshToken := strings.TrimSpace(in.RefreshToken)
	record := &identityRecord{
		ID:             uuid.NewString(),
		ExternalUserID: in.ExternalUserID,
		Email:          strings.TrimSpace(in.Email),
		AccessToken:    &accessToken,
		RefreshToken:   &refreshToken,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return core.IdentityRecord{}, err
	}
	return created.toDomain(), nil
}

func (s *RecordStore) GetByExternalID(ctx context.Context, externalUserID int64) (core.IdentityRecord, error) {
	if s == nil || s.repo == nil {
		return core.IdentityRecord{}, fmt.Errorf("sqlstore: record store is not configured")
	}
	if externalUserID <= 0 {
		return core.IdentityRecord{}, fmt.Errorf("sqlstore: external user id is required")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("external_user_id", "=", strconv.FormatInt(externalUserID, 10)),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.IdentityRecord{}, err
	}
	if len(records) == 0 {
		return core.IdentityRecord{}, core.ErrRecordNotFound
	}
	return records[0].toDomain(), nil
}

func (s *RecordStore) GetByAccessToken(ctx context.Context, accessToken string) (core.IdentityRecord, error) {
	if s == nil || s.repo == nil {
		return core.IdentityRecord{}, fmt.Errorf("sqlstore: record store is not configured")
	}
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return core.IdentityRecord{}, fmt.Errorf("sqlstore: access token is required")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("access_token", "=", accessToken),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.IdentityRecord{}, err
	}
	if len(records) == 0 {
		return core.IdentityRecord{}, core.ErrRecordNotFound
	}
	return records[0].toDomain(), nil
}

// ReplaceTokens swaps the token pair in one UPDATE keyed by the presented
// access token. When the presented token was already rotated by a concurrent
// refresh the update matches zero rows and the caller sees not-found.
func (s *RecordStore) ReplaceTokens(ctx context.Context, in core.ReplaceTokensInput) (core.IdentityRecord, error) {
	if s == nil || s.db == nil {
		return core.IdentityRecord{}, fmt.Errorf("sqlstore: record store is not configured")
	}
	if err := in.Validate(); err != nil {
		return core.IdentityRecord{}, err
	}

	now := time.Now().UTC()
	result, err := s.db.NewUpdate().
		Model((*identityRecord)(nil)).
		Set("access_token = ?", strings.TrimSpace(in.NewAccessToken)).
		Set("refresh_token = ?", strings.TrimSpace(in.NewRefreshToken)).
		Set("updated_at = ?", now).
		Where("access_token = ?", strings.TrimSpace(in.CurrentAccessToken)).
		Exec(ctx)
	if err != nil {
		return core.IdentityRecord{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return core.IdentityRecord{}, err
	}
	if affected == 0 {
		return core.IdentityRecord{}, core.ErrRecordNotFound
	}
	return s.GetByAccessToken(ctx, in.NewAccessToken)
}

// MarkAvailabilityConfirmed advances the availability timestamp with a
// monotonic guard in the statement itself: an older confirmation never
// overwrites a newer one.
func (s *RecordStore) MarkAvailabilityConfirmed(ctx context.Context, externalUserID int64, at time.Time) (core.IdentityRecord, error) {
	if s == nil || s.db == nil {
		return core.IdentityRecord{}, fmt.Errorf("sqlstore: record store is not configured")
	}
	if externalUserID <= 0 {
		return core.IdentityRecord{}, fmt.Errorf("sqlstore: external user id is required")
	}
	if at.IsZero() {
		at = time.Now()
	}
	at = at.UTC()

	_, err := s.db.NewUpdate().
		Model((*identityRecord)(nil)).
		Set("availability_last_updated = ?", at).
		Set("updated_at = ?", time.Now().UTC()).
		Where("external_user_id = ?", externalUserID).
		Where("(availability_last_updated IS NULL OR availability_last_updated < ?)", at).
		Exec(ctx)
	if err != nil {
		return core.IdentityRecord{}, err
	}
	// Zero rows means either an unknown user or an out-of-order event; the
	// read below distinguishes the two.
	return s.GetByExternalID(ctx, externalUserID)
}

func (s *RecordStore) FindStale(ctx context.Context, now time.Time, threshold time.Duration) ([]core.IdentityRecord, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: record store is not configured")
	}
	if now.IsZero() {
		now = time.Now()
	}
	cutoff := now.UTC().Add(-threshold)

	records, _, err := s.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where(
				"?TableAlias.availability_last_updated IS NULL OR ?TableAlias.availability_last_updated < ?",
				cutoff,
			)
		}),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return nil, err
	}

	out := make([]core.IdentityRecord, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

var _ core.RecordStore = (*RecordStore)(nil)
