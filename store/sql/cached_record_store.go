package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-calsync/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const identityCacheKeyPrefix = "go-calsync::identity::v1"

// CachedRecordStore layers a read cache over the external-id lookup, the hot
// path for credential fetches. Writes go straight to the base store and
// invalidate the affected key; token lookups stay uncached because presented
// tokens rotate on every refresh.
type CachedRecordStore struct {
	base  core.RecordStore
	cache repositorycache.CacheService
}

func NewCachedRecordStore(base core.RecordStore, cacheService repositorycache.CacheService) (*CachedRecordStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base record store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: record cache service is required")
	}
	return &CachedRecordStore{base: base, cache: cacheService}, nil
}

// IdentityCacheKey returns the deterministic cache key for external-id reads:
// go-calsync::identity::v1::<external_user_id> with the segment URL-path
// escaped.
func IdentityCacheKey(externalUserID int64) (string, error) {
	if externalUserID <= 0 {
		return "", fmt.Errorf("sqlstore: external user id is required")
	}
	segment := url.PathEscape(strconv.FormatInt(externalUserID, 10))
	return strings.Join([]string{identityCacheKeyPrefix, segment}, "::"), nil
}

func (s *CachedRecordStore) Create(ctx context.Context, in core.CreateIdentityInput) (core.IdentityRecord, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.IdentityRecord{}, fmt.Errorf("sqlstore: cached record store is not configured")
	}
	record, err := s.base.Create(ctx, in)
	if err != nil {
		return core.IdentityRecord{}, err
	}
	if err := s.invalidate(ctx, record.ExternalUserID); err != nil {
		return core.IdentityRecord{}, err
	}
	return record, nil
}

func (s *CachedRecordStore) GetByExternalID(ctx context.Context, externalUserID int64) (core.IdentityRecord, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.IdentityRecord{}, fmt.Errorf("sqlstore: cached record store is not configured")
	}
	cacheKey, err := IdentityCacheKey(externalUserID)
	if err != nil {
		return core.IdentityRecord{}, err
	}
	record, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.IdentityRecord, error) {
		return s.base.GetByExternalID(ctx, externalUserID)
	})
	if err != nil {
		return core.IdentityRecord{}, err
	}
	return record, nil
}

func (s *CachedRecordStore) GetByAccessToken(ctx context.Context, accessToken string) (core.IdentityRecord, error) {
	if s == nil || s.base == nil {
		return core.IdentityRecord{}, fmt.Errorf("sqlstore: cached record store is not configured")
	}
	return s.base.GetByAccessToken(ctx, accessToken)
}

func (s *CachedRecordStore) ReplaceTokens(ctx context.Context, in core.ReplaceTokensInput) (core.IdentityRecord, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.IdentityRecord{}, fmt.Errorf("sqlstore: cached record store is not configured")
	}
	record, err := s.base.ReplaceTokens(ctx, in)
	if err != nil {
		return core.IdentityRecord{}, err
	}
	if err := s.invalidate(ctx, record.ExternalUserID); err != nil {
		return core.IdentityRecord{}, err
	}
	return record, nil
}

func (s *CachedRecordStore) MarkAvailabilityConfirmed(ctx context.Context, externalUserID int64, at time.Time) (core.IdentityRecord, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.IdentityRecord{}, fmt.Errorf("sqlstore: cached record store is not configured")
	}
	record, err := s.base.MarkAvailabilityConfirmed(ctx, externalUserID, at)
	if err != nil {
		return core.IdentityRecord{}, err
	}
	if err := s.invalidate(ctx, externalUserID); err != nil {
		return core.IdentityRecord{}, err
	}
	return record, nil
}

func (s *CachedRecordStore) FindStale(ctx context.Context, now time.Time, threshold time.Duration) ([]core.IdentityRecord, error) {
	if s == nil || s.base == nil {
		return nil, fmt.Errorf("sqlstore: cached record store is not configured")
	}
	return s.base.FindStale(ctx, now, threshold)
}

func (s *CachedRecordStore) invalidate(ctx context.Context, externalUserID int64) error {
	cacheKey, err := IdentityCacheKey(externalUserID)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}

var _ core.RecordStore = (*CachedRecordStore)(nil)
