package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-calsync/core"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(Config{
		BaseURL:      baseURL,
		ClientID:     "client-1",
		ClientSecret: "secret-1",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewClient_ValidatesCredentials(t *testing.T) {
	if _, err := NewClient(Config{ClientSecret: "secret"}); err == nil {
		t.Fatalf("expected client id error")
	}
	if _, err := NewClient(Config{ClientID: "client"}); err == nil {
		t.Fatalf("expected client secret error")
	}
}

func TestCreateManagedUser_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/oauth-clients/client-1/users" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("x-cal-secret-key") != "secret-1" {
			t.Fatalf("missing secret key header")
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		if body["email"] != "ada@example.com" {
			t.Fatalf("unexpected email %v", body["email"])
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{
			"status": "success",
			"data": {
				"user": {"id": 42},
				"accessToken": "at-1",
				"refreshToken": "rt-1"
			}
		}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	result, err := client.CreateManagedUser(context.Background(), core.ProvisionRequest{
		Name:     "Ada",
		Email:    "ada@example.com",
		TimeZone: "Europe/Budapest",
	})
	if err != nil {
		t.Fatalf("create managed user: %v", err)
	}
	if result.ExternalUserID != 42 || result.AccessToken != "at-1" || result.RefreshToken != "rt-1" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestCreateManagedUser_ConflictCarriesProviderMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{
			"status": "error",
			"error": {"message": "Existing user ID=42 already created"}
		}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.CreateManagedUser(context.Background(), core.ProvisionRequest{
		Name:  "Ada",
		Email: "ada@example.com",
	})
	if err == nil {
		t.Fatalf("expected conflict error")
	}

	var providerErr *core.ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected ProviderError, got %T", err)
	}
	if providerErr.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", providerErr.StatusCode)
	}
	// The message must survive untouched so adoption can parse it.
	if id, ok := core.ParseConflictIdentifier(providerErr.Message); !ok || id != 42 {
		t.Fatalf("conflict message not parseable: %q", providerErr.Message)
	}
}

func TestCreateManagedUser_BareMessageErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status": "error", "message": "invalid time zone"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.CreateManagedUser(context.Background(), core.ProvisionRequest{
		Name:  "Ada",
		Email: "ada@example.com",
	})

	var providerErr *core.ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if providerErr.Message != "invalid time zone" {
		t.Fatalf("expected bare message, got %q", providerErr.Message)
	}
}

func TestCreateManagedUser_MalformedErrorBodyFallsBackToStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<html>gateway timeout</html>`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.CreateManagedUser(context.Background(), core.ProvisionRequest{
		Name:  "Ada",
		Email: "ada@example.com",
	})

	var providerErr *core.ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if providerErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", providerErr.StatusCode)
	}
	if providerErr.Message != "unknown error" {
		t.Fatalf("expected fallback message, got %q", providerErr.Message)
	}
}

func TestRefreshTokens_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth/client-1/refresh" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		if body["refreshToken"] != "rt-old" {
			t.Fatalf("unexpected refresh token %q", body["refreshToken"])
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "success",
			"data": {"accessToken": "at-new", "refreshToken": "rt-new"}
		}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	pair, err := client.RefreshTokens(context.Background(), "rt-old")
	if err != nil {
		t.Fatalf("refresh tokens: %v", err)
	}
	if pair.AccessToken != "at-new" || pair.RefreshToken != "rt-new" {
		t.Fatalf("unexpected pair: %+v", pair)
	}
}

func TestRefreshTokens_MissingDataPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "success"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if _, err := client.RefreshTokens(context.Background(), "rt-old"); err == nil {
		t.Fatalf("expected missing data payload error")
	}
}

func TestRefreshTokens_RequiresToken(t *testing.T) {
	client := newTestClient(t, "http://localhost:0")
	if _, err := client.RefreshTokens(context.Background(), "  "); err == nil {
		t.Fatalf("expected validation error")
	}
}
