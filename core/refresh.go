package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Refresh exchanges the record's refresh token for a fresh pair and persists
// both tokens in one conditional update keyed by the presented access token.
// On provider failure the stored pair is left untouched. There is no
// record-level lock across concurrent refreshes of the same token: the second
// to complete wins, so callers must treat the returned token as authoritative
// only for the request that received it.
func (s *Service) Refresh(ctx context.Context, currentAccessToken string) (string, error) {
	startedAt := s.now()
	token, externalUserID, err := s.refresh(ctx, currentAccessToken)
	s.observeOperation(ctx, startedAt, "refresh", err, map[string]any{
		"external_user_id": externalUserID,
	})
	return token, err
}

func (s *Service) refresh(ctx context.Context, currentAccessToken string) (string, int64, error) {
	if s == nil {
		return "", 0, errors.New("core: service is nil")
	}
	currentAccessToken = strings.TrimSpace(currentAccessToken)
	if currentAccessToken == "" {
		return "", 0, s.mapError(fmt.Errorf("core: access token is required"))
	}

	record, err := s.records.GetByAccessToken(ctx, currentAccessToken)
	if err != nil {
		return "", 0, s.mapError(err)
	}

	pair, err := s.provider.RefreshTokens(ctx, record.RefreshToken)
	if err != nil {
		return "", record.ExternalUserID, s.mapError(err)
	}

	updated, storeErr := s.records.ReplaceTokens(ctx, ReplaceTokensInput{
		CurrentAccessToken: currentAccessToken,
		NewAccessToken:     pair.AccessToken,
		NewRefreshToken:    pair.RefreshToken,
	})
	if storeErr != nil {
		// The provider now holds a pair the store does not; operators
		// reconcile manually.
		return "", record.ExternalUserID, s.mapError(&PersistenceError{
			Operation:      "refresh",
			ExternalUserID: record.ExternalUserID,
			Cause:          storeErr,
		})
	}
	return updated.AccessToken, updated.ExternalUserID, nil
}
