package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"graphgate/pkg/logging"

	"github.com/hashicorp/go-cleanhttp"
)

// defaultRedeemTimeout bounds a token-endpoint round trip when the
// ProviderConfig does not set one.
const defaultRedeemTimeout = 10 * time.Second

// OAuth error codes from RFC 6749 as used by the Azure AD token endpoint.
const (
	errorCodeInvalidGrant     = "invalid_grant"
	errorCodeInvalidScope     = "invalid_scope"
	errorCodeInvalidClient    = "invalid_client"
	errorCodeUnauthorized     = "unauthorized_client"
	errorCodeInvalidRequest   = "invalid_request"
	errorCodeTempUnavailable  = "temporarily_unavailable"
	errorCodeConsentRequired  = "consent_required"
	errorCodeInteractionRequd = "interaction_required"
)

// AADSTS codes that mark a rejection as scope-specific. 65001 is
// missing/withdrawn consent for the requested scope set; 70011 is an
// invalid scope value. Both can surface under invalid_grant or
// invalid_request rather than invalid_scope.
var scopeRelatedAADCodes = []int{65001, 70011}

// Client redeems refresh tokens at the provider's token endpoint.
//
// Thread-safe: the configuration is immutable and the underlying HTTP
// client is safe for concurrent use. Redeem performs at most two network
// round trips (the second being the no-scope retry) and persists nothing.
type Client struct {
	cfg        ProviderConfig
	httpClient *http.Client
}

// NewClient creates a token-endpoint client for the given provider
// configuration.
func NewClient(cfg ProviderConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRedeemTimeout
	}
	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = timeout

	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
	}
}

// Redemption is the successful result of redeeming a refresh token.
type Redemption struct {
	// AccessToken is the short-lived credential for the resource API.
	AccessToken AccessToken

	// NewRefreshToken is non-empty when the provider rotated the refresh
	// token. The caller must treat the stored bundle as superseded.
	NewRefreshToken string

	// GrantedScopes is the scope set the provider actually granted, in
	// response order. Empty when the provider omitted the scope field.
	GrantedScopes []string
}

// Redeem exchanges a refresh token for an access token, requesting the
// given scopes. When the caller passes no scopes (a bundle captured from a
// completion without a scope field), the configured default scopes are
// requested instead. If the provider rejects the request for a
// scope-specific reason, it retries exactly once with no explicit scope
// parameter, letting the provider fall back to the previously consented
// default set. No other rejection is retried at this layer.
func (c *Client) Redeem(ctx context.Context, refreshToken string, scopes []string) (*Redemption, error) {
	if len(scopes) == 0 {
		scopes = c.cfg.DefaultScopes
	}

	red, err := c.redeemOnce(ctx, refreshToken, scopes)
	if err == nil {
		return red, nil
	}

	var perr *ProviderError
	if len(scopes) > 0 && errors.As(err, &perr) && perr.ScopeRelated {
		logging.Debug("Provider", "Scope-specific rejection (%s), retrying once without explicit scope", perr.Code)
		return c.redeemOnce(ctx, refreshToken, nil)
	}

	return nil, err
}

// tokenResponse is the provider's successful token-endpoint response.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

// tokenErrorResponse is the provider's error body. ErrorCodes carries the
// AADSTS numeric codes on Azure AD.
type tokenErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCodes       []int  `json:"error_codes"`
}

func (c *Client) redeemOnce(ctx context.Context, refreshToken string, scopes []string) (*Redemption, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("client_id", c.cfg.ClientID)
	data.Set("client_secret", c.cfg.ClientSecret.Value())
	data.Set("refresh_token", refreshToken)
	if len(scopes) > 0 {
		data.Set("scope", strings.Join(scopes, " "))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenEndpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network failure or timeout: the request may never have reached
		// the provider. Transient by definition.
		return nil, &ProviderError{Class: ClassTransient, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Class: ClassTransient, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyTokenError(resp.StatusCode, body)
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, &ProviderError{Class: ClassFatal, Status: resp.StatusCode, Description: "unparseable token response", Err: err}
	}
	if token.AccessToken == "" {
		return nil, &ProviderError{Class: ClassFatal, Status: resp.StatusCode, Description: "token response missing access_token"}
	}

	red := &Redemption{
		AccessToken: AccessToken{
			Value: token.AccessToken,
		},
		NewRefreshToken: token.RefreshToken,
		GrantedScopes:   strings.Fields(token.Scope),
	}
	if token.ExpiresIn > 0 {
		red.AccessToken.ExpiresAt = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	}

	logging.Debug("Provider", "Redeemed refresh token (expires_in=%ds, rotated=%t)",
		token.ExpiresIn, token.RefreshToken != "")

	return red, nil
}

// classifyTokenError maps a non-200 token-endpoint response to a
// ProviderError. The response body is logged at debug only; error bodies
// can carry hints that do not belong in surfaced error strings.
func classifyTokenError(status int, body []byte) *ProviderError {
	logging.Debug("Provider", "Token request failed: status=%d body=%s", status, string(body))

	if status >= 500 {
		return &ProviderError{Class: ClassTransient, Status: status}
	}

	var errBody tokenErrorResponse
	if err := json.Unmarshal(body, &errBody); err != nil || errBody.Error == "" {
		// 4xx without a parseable OAuth error body is a protocol-level
		// surprise; treat as fatal so it reaches an operator.
		return &ProviderError{Class: ClassFatal, Status: status, Description: "unparseable error response"}
	}

	perr := &ProviderError{
		Status:      status,
		Code:        errBody.Error,
		Description: errBody.ErrorDescription,
	}

	switch errBody.Error {
	case errorCodeTempUnavailable:
		perr.Class = ClassTransient
	case errorCodeInvalidClient, errorCodeUnauthorized:
		perr.Class = ClassFatal
	case errorCodeInvalidScope:
		perr.Class = ClassFatal
		perr.ScopeRelated = true
	case errorCodeConsentRequired, errorCodeInteractionRequd:
		perr.Class = ClassAuthExpired
		perr.ScopeRelated = isScopeRelated(&errBody)
	case errorCodeInvalidGrant:
		// Usually a dead refresh token, but Azure AD also reports consent
		// problems for the requested scope set under this code.
		perr.Class = ClassAuthExpired
		perr.ScopeRelated = isScopeRelated(&errBody)
	case errorCodeInvalidRequest:
		perr.Class = ClassFatal
		perr.ScopeRelated = isScopeRelated(&errBody)
	default:
		perr.Class = ClassFatal
	}

	return perr
}

// isScopeRelated detects scope-specific rejections reported under generic
// OAuth error codes via their AADSTS markers.
func isScopeRelated(errBody *tokenErrorResponse) bool {
	for _, code := range errBody.ErrorCodes {
		for _, scopeCode := range scopeRelatedAADCodes {
			if code == scopeCode {
				return true
			}
		}
	}
	for _, scopeCode := range scopeRelatedAADCodes {
		if strings.Contains(errBody.ErrorDescription, fmt.Sprintf("AADSTS%d", scopeCode)) {
			return true
		}
	}
	return false
}
