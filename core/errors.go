package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ServiceErrorBadInput           = "CALSYNC_BAD_INPUT"
	ServiceErrorRecordNotFound     = "CALSYNC_RECORD_NOT_FOUND"
	ServiceErrorConflictUnresolved = "CALSYNC_CONFLICT_UNRESOLVED"
	ServiceErrorProviderFailure    = "CALSYNC_PROVIDER_FAILURE"
	ServiceErrorPersistenceFailure = "CALSYNC_PERSISTENCE_FAILURE"
	ServiceErrorInternal           = "CALSYNC_INTERNAL_ERROR"
)

var ErrRecordNotFound = errors.New("core: identity record not found")

// ReconciliationRequiredError reports a provider-side identity that has no
// local counterpart. It is never retried automatically; an operator must
// reconcile the external identity by hand.
type ReconciliationRequiredError struct {
	ExternalUserID int64
}

func (e *ReconciliationRequiredError) Error() string {
	if e == nil {
		return "core: reconciliation required"
	}
	return fmt.Sprintf("core: external user %d exists at the provider but has no local record", e.ExternalUserID)
}

func (e *ReconciliationRequiredError) ToServiceError() *goerrors.Error {
	metadata := map[string]any{}
	if e != nil {
		metadata["external_user_id"] = e.ExternalUserID
	}
	return goerrors.New(e.Error(), goerrors.CategoryConflict).
		WithCode(http.StatusConflict).
		WithTextCode(ServiceErrorConflictUnresolved).
		WithMetadata(metadata)
}

// ProviderError carries the external provider's status and message through to
// the caller. The core never retries provider failures itself.
type ProviderError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "core: provider request failed"
	}
	return fmt.Sprintf("core: provider %s failed (%d): %s", e.Operation, e.StatusCode, e.Message)
}

func (e *ProviderError) ToServiceError() *goerrors.Error {
	metadata := map[string]any{}
	code := http.StatusBadGateway
	if e != nil {
		metadata["operation"] = strings.TrimSpace(e.Operation)
		metadata["provider_status"] = e.StatusCode
		metadata["provider_message"] = strings.TrimSpace(e.Message)
		if e.StatusCode >= http.StatusBadRequest {
			code = e.StatusCode
		}
	}
	return goerrors.New(e.Error(), goerrors.CategoryExternal).
		WithCode(code).
		WithTextCode(ServiceErrorProviderFailure).
		WithMetadata(metadata)
}

// PersistenceError flags a local store failure after a provider call already
// succeeded. The two systems are now inconsistent; the core reports loudly
// instead of attempting a compensating rollback the provider cannot support.
type PersistenceError struct {
	Operation      string
	ExternalUserID int64
	Cause          error
}

func (e *PersistenceError) Error() string {
	if e == nil {
		return "core: persistence failed after provider call"
	}
	return fmt.Sprintf(
		"core: %s persisted at the provider but the local store failed for external user %d: %v",
		e.Operation, e.ExternalUserID, e.Cause,
	)
}

func (e *PersistenceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func (e *PersistenceError) ToServiceError() *goerrors.Error {
	metadata := map[string]any{}
	if e != nil {
		metadata["operation"] = strings.TrimSpace(e.Operation)
		metadata["external_user_id"] = e.ExternalUserID
	}
	return goerrors.Wrap(e.Cause, goerrors.CategoryInternal, e.Error()).
		WithCode(http.StatusInternalServerError).
		WithTextCode(ServiceErrorPersistenceFailure).
		WithMetadata(metadata)
}

func serviceErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var reconciliationErr *ReconciliationRequiredError
	if errors.As(err, &reconciliationErr) {
		return reconciliationErr.ToServiceError()
	}
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.ToServiceError()
	}
	var persistenceErr *PersistenceError
	if errors.As(err, &persistenceErr) {
		return persistenceErr.ToServiceError()
	}
	if errors.Is(err, ErrRecordNotFound) {
		return goerrors.New(err.Error(), goerrors.CategoryNotFound).
			WithCode(http.StatusNotFound).
			WithTextCode(ServiceErrorRecordNotFound)
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureServiceErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	if strings.Contains(msg, "required") || strings.Contains(msg, "invalid") {
		return goerrors.New(err.Error(), goerrors.CategoryBadInput).
			WithCode(http.StatusBadRequest).
			WithTextCode(ServiceErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureServiceErrorEnvelope(mapped)
}

func ensureServiceErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = serviceHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultServiceTextCode(err.Category)
	}
	return err
}

func defaultServiceTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ServiceErrorBadInput
	case goerrors.CategoryNotFound:
		return ServiceErrorRecordNotFound
	case goerrors.CategoryConflict:
		return ServiceErrorConflictUnresolved
	case goerrors.CategoryExternal:
		return ServiceErrorProviderFailure
	default:
		return ServiceErrorInternal
	}
}

func serviceHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
