package core

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// Provision creates a managed identity at the external provider for the given
// profile and persists the resulting record. When the provider reports a
// conflict naming an identity we already hold locally, the existing record is
// returned unchanged (adoption); a conflict naming an unknown identity is
// surfaced as a ReconciliationRequiredError and creates nothing.
//
// At most one external identity is created per call. The provider call and
// the local insert are not transactional across systems: a store failure
// after a successful creation surfaces as a PersistenceError and the external
// identity is left in place.
func (s *Service) Provision(ctx context.Context, req ProvisionRequest) (ProvisionResult, error) {
	startedAt := s.now()
	result, err := s.provision(ctx, req)
	s.observeOperation(ctx, startedAt, "provision", err, map[string]any{
		"email":            strings.TrimSpace(req.Email),
		"external_user_id": result.Record.ExternalUserID,
		"adopted":          result.Adopted,
	})
	return result, err
}

func (s *Service) provision(ctx context.Context, req ProvisionRequest) (ProvisionResult, error) {
	if s == nil {
		return ProvisionResult{}, errors.New("core: service is nil")
	}
	if err := req.Validate(); err != nil {
		return ProvisionResult{}, s.mapError(err)
	}
	if strings.TrimSpace(req.TimeZone) == "" {
		req.TimeZone = s.config.DefaultTimeZone
	}

	created, err := s.provider.CreateManagedUser(ctx, req)
	if err != nil {
		adopted, ok, conflictErr := s.resolveCreationConflict(ctx, err)
		if conflictErr != nil {
			return ProvisionResult{}, s.mapError(conflictErr)
		}
		if ok {
			return ProvisionResult{Record: adopted, Adopted: true}, nil
		}
		return ProvisionResult{}, s.mapError(err)
	}

	record, storeErr := s.records.Create(ctx, CreateIdentityInput{
		ExternalUserID: created.ExternalUserID,
		Email:          strings.TrimSpace(req.Email),
		AccessToken:    created.AccessToken,
		RefreshToken:   created.RefreshToken,
	})
	if storeErr != nil {
		return ProvisionResult{}, s.mapError(&PersistenceError{
			Operation:      "provision",
			ExternalUserID: created.ExternalUserID,
			Cause:          storeErr,
		})
	}
	return ProvisionResult{Record: record}, nil
}

// resolveCreationConflict inspects a provider creation failure. A 409 whose
// message names an existing external identity either adopts the matching
// local record (record, true, nil) or demands manual reconciliation; any
// other failure is left for the caller to surface as-is (zero, false, nil).
func (s *Service) resolveCreationConflict(ctx context.Context, cause error) (IdentityRecord, bool, error) {
	var providerErr *ProviderError
	if !errors.As(cause, &providerErr) {
		return IdentityRecord{}, false, nil
	}
	if providerErr.StatusCode != http.StatusConflict {
		return IdentityRecord{}, false, nil
	}
	externalUserID, ok := ParseConflictIdentifier(providerErr.Message)
	if !ok {
		// Unrecognized conflict wording degrades to a plain provider
		// failure rather than guessing at alternate patterns.
		return IdentityRecord{}, false, nil
	}

	existing, lookupErr := s.records.GetByExternalID(ctx, externalUserID)
	if lookupErr == nil {
		return existing, true, nil
	}
	if errors.Is(lookupErr, ErrRecordNotFound) {
		return IdentityRecord{}, false, &ReconciliationRequiredError{ExternalUserID: externalUserID}
	}
	return IdentityRecord{}, false, lookupErr
}
