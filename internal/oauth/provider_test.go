package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testProviderConfig(endpoint string) ProviderConfig {
	return ProviderConfig{
		TokenEndpoint: endpoint,
		ClientID:      "client-abc",
		ClientSecret:  NewRedactedSecret("s3cret"),
		TenantID:      "tenant-123",
		DefaultScopes: []string{"offline_access", "Files.Read"},
	}
}

func writeTokenResponse(w http.ResponseWriter, accessToken string, expiresIn int, refreshToken, scope string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"access_token":  accessToken,
		"token_type":    "Bearer",
		"expires_in":    expiresIn,
		"refresh_token": refreshToken,
		"scope":         scope,
	})
}

func writeTokenError(w http.ResponseWriter, status int, code, description string, aadCodes ...int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":             code,
		"error_description": description,
		"error_codes":       aadCodes,
	})
}

func TestClient_RedeemSuccess(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm failed: %v", err)
		}
		gotForm = map[string]string{
			"grant_type":    r.PostFormValue("grant_type"),
			"client_id":     r.PostFormValue("client_id"),
			"client_secret": r.PostFormValue("client_secret"),
			"refresh_token": r.PostFormValue("refresh_token"),
			"scope":         r.PostFormValue("scope"),
		}
		writeTokenResponse(w, "AT1", 3600, "", "Files.Read")
	}))
	defer srv.Close()

	client := NewClient(testProviderConfig(srv.URL))
	before := time.Now()

	red, err := client.Redeem(context.Background(), "RT1", []string{"Files.Read"})
	if err != nil {
		t.Fatalf("Redeem failed: %v", err)
	}

	if red.AccessToken.Value != "AT1" {
		t.Errorf("Expected access token AT1, got %q", red.AccessToken.Value)
	}
	expectedExpiry := before.Add(3600 * time.Second)
	if red.AccessToken.ExpiresAt.Before(expectedExpiry.Add(-5*time.Second)) ||
		red.AccessToken.ExpiresAt.After(expectedExpiry.Add(5*time.Second)) {
		t.Errorf("Expected expiry near %v, got %v", expectedExpiry, red.AccessToken.ExpiresAt)
	}
	if red.NewRefreshToken != "" {
		t.Errorf("Expected no rotation, got %q", red.NewRefreshToken)
	}

	if gotForm["grant_type"] != "refresh_token" {
		t.Errorf("Expected grant_type=refresh_token, got %q", gotForm["grant_type"])
	}
	if gotForm["client_id"] != "client-abc" || gotForm["client_secret"] != "s3cret" {
		t.Error("Client credentials not sent")
	}
	if gotForm["refresh_token"] != "RT1" {
		t.Errorf("Expected refresh_token=RT1, got %q", gotForm["refresh_token"])
	}
	if gotForm["scope"] != "Files.Read" {
		t.Errorf("Expected scope=Files.Read, got %q", gotForm["scope"])
	}
}

func TestClient_RedeemSurfacesRotation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeTokenResponse(w, "AT1", 3600, "RT2", "Files.Read User.Read")
	}))
	defer srv.Close()

	client := NewClient(testProviderConfig(srv.URL))
	red, err := client.Redeem(context.Background(), "RT1", []string{"Files.Read"})
	if err != nil {
		t.Fatalf("Redeem failed: %v", err)
	}

	if red.NewRefreshToken != "RT2" {
		t.Errorf("Expected rotated refresh token RT2, got %q", red.NewRefreshToken)
	}
	if len(red.GrantedScopes) != 2 || red.GrantedScopes[0] != "Files.Read" || red.GrantedScopes[1] != "User.Read" {
		t.Errorf("Expected granted scopes in response order, got %v", red.GrantedScopes)
	}
}

func TestClient_ScopeRetry(t *testing.T) {
	// Stub rejects any request carrying a scope parameter with a
	// scope-specific error and accepts requests without one.
	var requests []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		requests = append(requests, r.PostFormValue("scope"))
		if r.PostFormValue("scope") != "" {
			writeTokenError(w, http.StatusBadRequest, "invalid_grant",
				"AADSTS65001: The user or administrator has not consented.", 65001)
			return
		}
		writeTokenResponse(w, "AT1", 3600, "", "")
	}))
	defer srv.Close()

	client := NewClient(testProviderConfig(srv.URL))
	red, err := client.Redeem(context.Background(), "RT1", []string{"Files.Read"})
	if err != nil {
		t.Fatalf("Redeem should succeed on the scope retry, got %v", err)
	}
	if red.AccessToken.Value != "AT1" {
		t.Errorf("Expected access token AT1, got %q", red.AccessToken.Value)
	}

	if len(requests) != 2 {
		t.Fatalf("Expected exactly 2 requests, got %d", len(requests))
	}
	if requests[0] == "" {
		t.Error("First attempt should carry the explicit scope parameter")
	}
	if requests[1] != "" {
		t.Error("Only the second attempt should omit the scope parameter")
	}
}

func TestClient_ScopeRetryViaInvalidScope(t *testing.T) {
	var count int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		count++
		if r.PostFormValue("scope") != "" {
			writeTokenError(w, http.StatusBadRequest, "invalid_scope", "scope not recognized")
			return
		}
		writeTokenResponse(w, "AT1", 3600, "", "")
	}))
	defer srv.Close()

	client := NewClient(testProviderConfig(srv.URL))
	if _, err := client.Redeem(context.Background(), "RT1", []string{"Bogus.Scope"}); err != nil {
		t.Fatalf("Redeem should succeed on the scope retry, got %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 requests, got %d", count)
	}
}

func TestClient_ScopelessRedeemFallsBackToDefaultScopes(t *testing.T) {
	var gotScope string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotScope = r.PostFormValue("scope")
		writeTokenResponse(w, "AT1", 3600, "", "")
	}))
	defer srv.Close()

	client := NewClient(testProviderConfig(srv.URL))
	if _, err := client.Redeem(context.Background(), "RT1", nil); err != nil {
		t.Fatalf("Redeem failed: %v", err)
	}

	if gotScope != "offline_access Files.Read" {
		t.Errorf("Expected configured default scopes, got scope=%q", gotScope)
	}
}

func TestClient_ScopeRetryNotTriggeredWithoutScopes(t *testing.T) {
	var count int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count++
		writeTokenError(w, http.StatusBadRequest, "invalid_scope", "scope not recognized")
	}))
	defer srv.Close()

	cfg := testProviderConfig(srv.URL)
	cfg.DefaultScopes = nil
	client := NewClient(cfg)

	if _, err := client.Redeem(context.Background(), "RT1", nil); err == nil {
		t.Fatal("Redeem should fail")
	}
	if count != 1 {
		t.Errorf("A request without any scopes must not be retried, got %d requests", count)
	}
}

func TestClient_InvalidGrantIsTerminal(t *testing.T) {
	var count int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count++
		writeTokenError(w, http.StatusBadRequest, "invalid_grant", "AADSTS70008: refresh token expired", 70008)
	}))
	defer srv.Close()

	client := NewClient(testProviderConfig(srv.URL))
	_, err := client.Redeem(context.Background(), "RT-expired", []string{"Files.Read"})
	if err == nil {
		t.Fatal("Redeem should fail")
	}

	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected ProviderError, got %T", err)
	}
	if perr.Class != ClassAuthExpired {
		t.Errorf("Expected ClassAuthExpired, got %v", perr.Class)
	}
	if perr.Transient() {
		t.Error("invalid_grant must not be classified as transient")
	}
	if count != 1 {
		t.Errorf("Terminal rejection must not be retried, got %d requests", count)
	}
}

func TestClient_InvalidClientIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeTokenError(w, http.StatusUnauthorized, "invalid_client", "AADSTS7000215: invalid client secret", 7000215)
	}))
	defer srv.Close()

	client := NewClient(testProviderConfig(srv.URL))
	_, err := client.Redeem(context.Background(), "RT1", []string{"Files.Read"})

	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected ProviderError, got %v", err)
	}
	if perr.Class != ClassFatal {
		t.Errorf("Expected ClassFatal, got %v", perr.Class)
	}
}

func TestClient_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(testProviderConfig(srv.URL))
	_, err := client.Redeem(context.Background(), "RT1", []string{"Files.Read"})
	if !IsTransient(err) {
		t.Errorf("Expected transient classification for 5xx, got %v", err)
	}
}

func TestClient_NetworkFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // Closed before use: connection refused.

	client := NewClient(testProviderConfig(srv.URL))
	_, err := client.Redeem(context.Background(), "RT1", []string{"Files.Read"})
	if !IsTransient(err) {
		t.Errorf("Expected transient classification for network failure, got %v", err)
	}
}

func TestClient_TimeoutIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		writeTokenResponse(w, "AT1", 3600, "", "")
	}))
	defer srv.Close()

	cfg := testProviderConfig(srv.URL)
	cfg.Timeout = 50 * time.Millisecond
	client := NewClient(cfg)

	_, err := client.Redeem(context.Background(), "RT1", []string{"Files.Read"})
	if !IsTransient(err) {
		t.Errorf("Expected transient classification for timeout, got %v", err)
	}
}

func TestClient_UnparseableErrorBodyIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client := NewClient(testProviderConfig(srv.URL))
	_, err := client.Redeem(context.Background(), "RT1", nil)

	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected ProviderError, got %v", err)
	}
	if perr.Class != ClassFatal {
		t.Errorf("Expected ClassFatal for unparseable 4xx, got %v", perr.Class)
	}
}
