package config

import (
	"strings"
	"time"

	"golang.org/x/oauth2/microsoft"
)

const (
	// DefaultCookieName is the cookie carrying the encrypted token bundle.
	DefaultCookieName = "ms_graph"

	// DefaultCookieMaxAge bounds how long a stored artifact remains usable.
	// Azure AD expires refresh tokens after 90 days of inactivity, so a
	// longer-lived cookie would only produce AuthRequired on use.
	DefaultCookieMaxAge = 90 * 24 * time.Hour

	// DefaultTokenTimeout bounds a single token-endpoint round trip.
	DefaultTokenTimeout = 10 * time.Second

	// DefaultListenAddress is the address the HTTP server binds to.
	DefaultListenAddress = "localhost:8085"
)

// DefaultScopes are requested when the deployment does not configure its
// own scope list. Files.Read covers the drive tools; offline_access is what
// makes the provider issue a refresh token in the first place.
var DefaultScopes = []string{"offline_access", "User.Read", "Files.Read"}

// Config is the top-level configuration for graphgate. Fields without a
// yaml tag value of "-" may come from config.yaml; credentials and the
// shared secret are environment-only so they never land in a config file.
type Config struct {
	// TenantID is the Azure AD tenant (directory) identifier.
	TenantID string `yaml:"tenantID,omitempty"`

	// ClientID identifies the registered application.
	ClientID string `yaml:"clientID,omitempty"`

	// ClientSecret authenticates the application at the token endpoint.
	// Environment-only (GRAPHGATE_CLIENT_SECRET).
	ClientSecret string `yaml:"-"`

	// SharedSecret is the key-derivation input for the artifact codec.
	// Environment-only (GRAPHGATE_SHARED_SECRET). Rotating it invalidates
	// every issued artifact; holders simply re-authenticate.
	SharedSecret string `yaml:"-"`

	// TokenEndpoint overrides the Azure AD token endpoint. Empty means the
	// endpoint is derived from TenantID. Used for sovereign clouds and
	// tests.
	TokenEndpoint string `yaml:"tokenEndpoint,omitempty"`

	// Scopes is the ordered default scope list requested on redemption.
	Scopes []string `yaml:"scopes,omitempty"`

	// CookieName is the name of the artifact cookie.
	CookieName string `yaml:"cookieName,omitempty"`

	// CookieMaxAge is the lifetime of the artifact cookie.
	CookieMaxAge time.Duration `yaml:"cookieMaxAge,omitempty"`

	// TokenTimeout bounds each token-endpoint round trip.
	TokenTimeout time.Duration `yaml:"tokenTimeout,omitempty"`

	// ListenAddress is the host:port the HTTP server binds to.
	ListenAddress string `yaml:"listenAddress,omitempty"`
}

// GetDefaultConfig returns the configuration defaults. Loading layers
// config.yaml and then the environment on top of this.
func GetDefaultConfig() Config {
	return Config{
		Scopes:        append([]string(nil), DefaultScopes...),
		CookieName:    DefaultCookieName,
		CookieMaxAge:  DefaultCookieMaxAge,
		TokenTimeout:  DefaultTokenTimeout,
		ListenAddress: DefaultListenAddress,
	}
}

// ResolvedTokenEndpoint returns the configured token endpoint, deriving the
// Azure AD v2.0 endpoint from the tenant when no override is set.
func (c *Config) ResolvedTokenEndpoint() string {
	if c.TokenEndpoint != "" {
		return c.TokenEndpoint
	}
	if c.TenantID == "" {
		return ""
	}
	return microsoft.AzureADEndpoint(c.TenantID).TokenURL
}

// ScopeString returns the default scopes as a space-delimited string, the
// form the token endpoint accepts.
func (c *Config) ScopeString() string {
	return strings.Join(c.Scopes, " ")
}
