package oauth

import (
	"time"
)

// DefaultExpiryMargin is the margin applied when checking access token
// expiry. It absorbs clock skew and the latency of the downstream call the
// token is about to authorize.
const DefaultExpiryMargin = 30 * time.Second

// TokenBundle is the durable unit of custody: everything needed to mint
// access tokens for a user later, long after the host's own session ended.
// A bundle is immutable once created. When the provider rotates the refresh
// token, a replacement bundle supersedes this one wholesale; fields are
// never mutated in place.
type TokenBundle struct {
	// RefreshToken is the provider's long-lived credential. It is only
	// ever sent to the token endpoint, never to the resource API.
	RefreshToken string `json:"refresh_token"`

	// Scopes is the ordered list of scopes granted at authentication time.
	Scopes []string `json:"scopes,omitempty"`

	// IssuedAt records when this bundle was created.
	IssuedAt time.Time `json:"issued_at"`
}

// Equal reports whether two bundles carry the same custody state.
// Timestamps are compared with time.Equal so serialization round trips and
// monotonic-clock stripping do not produce false mismatches.
func (b *TokenBundle) Equal(other *TokenBundle) bool {
	if b == nil || other == nil {
		return b == other
	}
	if b.RefreshToken != other.RefreshToken {
		return false
	}
	if len(b.Scopes) != len(other.Scopes) {
		return false
	}
	for i := range b.Scopes {
		if b.Scopes[i] != other.Scopes[i] {
			return false
		}
	}
	return b.IssuedAt.Equal(other.IssuedAt)
}

// AccessToken is a short-lived credential for the downstream resource API.
// It is re-derived from the TokenBundle on every call and must never be
// persisted beyond the scope of the call it was obtained for.
type AccessToken struct {
	// Value is the bearer token presented to the resource API.
	Value string `json:"-"`

	// ExpiresAt is when the provider will stop accepting the token.
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the token has expired or will expire within the
// given margin.
func (t *AccessToken) IsExpired(margin time.Duration) bool {
	if t.ExpiresAt.IsZero() {
		return false // Tokens without expiration don't expire
	}
	return time.Now().Add(margin).After(t.ExpiresAt)
}

// ProviderConfig describes the OAuth provider's token endpoint and the
// client credentials used against it. It is built once at startup from the
// process configuration and treated as immutable; every component receives
// it by value or shared read-only reference.
type ProviderConfig struct {
	// TokenEndpoint is the provider's token endpoint URL.
	TokenEndpoint string

	// ClientID identifies the registered application.
	ClientID string

	// ClientSecret authenticates the application. Never logged.
	ClientSecret RedactedSecret

	// TenantID is the Azure AD tenant the application lives in.
	TenantID string

	// DefaultScopes is the ordered scope list requested on redemption when
	// the bundle itself carries none.
	DefaultScopes []string

	// Timeout bounds each token-endpoint round trip. Zero means the
	// package default.
	Timeout time.Duration
}
