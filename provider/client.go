// Package provider implements the documented HTTP contract of the external
// scheduling provider: managed user creation and token refresh.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-calsync/core"
)

const (
	defaultBaseURL         = "https://api.cal.com/v2"
	defaultRequestTimeout  = 30 * time.Second
	maxResponseBodyBytes   = 1 << 20 // 1 MiB
	secretKeyHeader        = "x-cal-secret-key"
	operationCreateUser    = "create managed user"
	operationRefreshTokens = "refresh tokens"
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	BaseURL        string
	ClientID       string
	ClientSecret   string
	RequestTimeout time.Duration
	HTTPClient     HTTPDoer
}

// Client talks to the provider's OAuth client API. All failures carry the
// provider's status and message so callers can branch on them, including the
// conflict wording the core parses during adoption.
type Client struct {
	cfg        Config
	httpClient HTTPDoer
}

func NewClient(cfg Config) (*Client, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.ClientID = strings.TrimSpace(cfg.ClientID)
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("provider: client id is required")
	}
	cfg.ClientSecret = strings.TrimSpace(cfg.ClientSecret)
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("provider: client secret is required")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}
	return &Client{cfg: cfg, httpClient: httpClient}, nil
}

type managedUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	TimeZone string `json:"timeZone,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *envelopeError  `json:"error"`
	// Some error responses carry a bare message instead of an error object.
	Message string `json:"message"`
}

type envelopeError struct {
	Message string `json:"message"`
}

type managedUserPayload struct {
	User struct {
		ID int64 `json:"id"`
	} `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type tokenPairPayload struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// CreateManagedUser provisions an identity inside the provider's namespace.
func (c *Client) CreateManagedUser(ctx context.Context, req core.ProvisionRequest) (core.ManagedUserResult, error) {
	if c == nil {
		return core.ManagedUserResult{}, fmt.Errorf("provider: client is nil")
	}
	if err := req.Validate(); err != nil {
		return core.ManagedUserResult{}, err
	}

	endpoint := fmt.Sprintf("%s/oauth-clients/%s/users", c.cfg.BaseURL, c.cfg.ClientID)
	body := managedUserRequest{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.TrimSpace(req.Email),
		TimeZone: strings.TrimSpace(req.TimeZone),
	}
	data, err := c.post(ctx, operationCreateUser, endpoint, body)
	if err != nil {
		return core.ManagedUserResult{}, err
	}

	var payload managedUserPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return core.ManagedUserResult{}, fmt.Errorf("provider: decode managed user response: %w", err)
	}
	if payload.User.ID <= 0 {
		return core.ManagedUserResult{}, fmt.Errorf("provider: managed user response missing user id")
	}
	if strings.TrimSpace(payload.AccessToken) == "" || strings.TrimSpace(payload.RefreshToken) == "" {
		return core.ManagedUserResult{}, fmt.Errorf("provider: managed user response missing token pair")
	}
	return core.ManagedUserResult{
		ExternalUserID: payload.User.ID,
		AccessToken:    payload.AccessToken,
		RefreshToken:   payload.RefreshToken,
	}, nil
}

// RefreshTokens exchanges a refresh token for a new pair.
func (c *Client) RefreshTokens(ctx context.Context, refreshToken string) (core.TokenPair, error) {
	if c == nil {
		return core.TokenPair{}, fmt.Errorf("provider: client is nil")
	}
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return core.TokenPair{}, fmt.Errorf("provider: refresh token is required")
	}

	endpoint := fmt.Sprintf("%s/oauth/%s/refresh", c.cfg.BaseURL, c.cfg.ClientID)
	data, err := c.post(ctx, operationRefreshTokens, endpoint, refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return core.TokenPair{}, err
	}

	var payload tokenPairPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return core.TokenPair{}, fmt.Errorf("provider: decode refresh response: %w", err)
	}
	if strings.TrimSpace(payload.AccessToken) == "" || strings.TrimSpace(payload.RefreshToken) == "" {
		return core.TokenPair{}, fmt.Errorf("provider: refresh response missing token pair")
	}
	return core.TokenPair{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
	}, nil
}

func (c *Client) post(ctx context.Context, operation string, endpoint string, body any) (json.RawMessage, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("provider: encode %s request: %w", operation, err)
	}

	requestCtx := ctx
	if requestCtx == nil {
		requestCtx = context.Background()
	}
	requestCtx, cancel := context.WithTimeout(requestCtx, c.cfg.RequestTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(requestCtx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("provider: build %s request: %w", operation, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(secretKeyHeader, c.cfg.ClientSecret)

	response, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("provider: %s request failed: %w", operation, err)
	}
	defer func() {
		_ = response.Body.Close()
	}()

	raw, readErr := io.ReadAll(io.LimitReader(response.Body, maxResponseBodyBytes+1))
	if readErr != nil {
		return nil, fmt.Errorf("provider: read %s response: %w", operation, readErr)
	}
	if len(raw) > maxResponseBodyBytes {
		return nil, fmt.Errorf("provider: %s response exceeds %d bytes", operation, maxResponseBodyBytes)
	}

	var wrapped envelope
	if len(raw) > 0 {
		// Tolerate malformed error bodies; the status code still drives
		// the failure path below.
		_ = json.Unmarshal(raw, &wrapped)
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return nil, &core.ProviderError{
			Operation:  operation,
			StatusCode: response.StatusCode,
			Message:    describeEnvelopeError(wrapped),
		}
	}
	if wrapped.Data == nil {
		return nil, fmt.Errorf("provider: %s response missing data payload", operation)
	}
	return wrapped.Data, nil
}

func describeEnvelopeError(wrapped envelope) string {
	if wrapped.Error != nil && strings.TrimSpace(wrapped.Error.Message) != "" {
		return strings.TrimSpace(wrapped.Error.Message)
	}
	if strings.TrimSpace(wrapped.Message) != "" {
		return strings.TrimSpace(wrapped.Message)
	}
	return "unknown error"
}

var _ core.ManagedUserProvider = (*Client)(nil)
