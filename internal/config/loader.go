package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"graphgate/pkg/logging"

	"gopkg.in/yaml.v3"
)

const configFileName = "config.yaml"

// Environment variable names. Credentials and the shared secret are only
// ever read from the environment.
const (
	EnvTenantID      = "GRAPHGATE_TENANT_ID"
	EnvClientID      = "GRAPHGATE_CLIENT_ID"
	EnvClientSecret  = "GRAPHGATE_CLIENT_SECRET"
	EnvSharedSecret  = "GRAPHGATE_SHARED_SECRET"
	EnvScopes        = "GRAPHGATE_SCOPES"
	EnvTokenEndpoint = "GRAPHGATE_TOKEN_ENDPOINT"
	EnvListenAddress = "GRAPHGATE_LISTEN_ADDRESS"
)

// minSharedSecretLen is the shortest accepted key-derivation input. HKDF
// stretches whatever it gets, so this is a deployment-mistake guard, not a
// cryptographic boundary.
const minSharedSecretLen = 16

// LoadConfig loads configuration from the given directory's config.yaml
// (if present), applies environment overrides, and validates the result.
// A missing file is fine; missing required inputs are not.
func LoadConfig(configPath string) (Config, error) {
	cfg := GetDefaultConfig()

	configFilePath := filepath.Join(configPath, configFileName)
	data, err := os.ReadFile(configFilePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Info("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
	case err != nil:
		return Config{}, fmt.Errorf("error reading config from %s: %w", configFilePath, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("error parsing config from %s: %w", configFilePath, err)
		}
		logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	}

	applyEnv(&cfg)

	if err := Validate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv layers environment variables over the loaded configuration.
func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvTenantID); v != "" {
		cfg.TenantID = v
	}
	if v := os.Getenv(EnvClientID); v != "" {
		cfg.ClientID = v
	}
	if v := os.Getenv(EnvClientSecret); v != "" {
		cfg.ClientSecret = v
	}
	if v := os.Getenv(EnvSharedSecret); v != "" {
		cfg.SharedSecret = v
	}
	if v := os.Getenv(EnvScopes); v != "" {
		cfg.Scopes = strings.Fields(v)
	}
	if v := os.Getenv(EnvTokenEndpoint); v != "" {
		cfg.TokenEndpoint = v
	}
	if v := os.Getenv(EnvListenAddress); v != "" {
		cfg.ListenAddress = v
	}
}

// Validate checks that every input required to serve is present and sane.
// The returned *ValidationError is fatal to startup.
func Validate(cfg *Config) error {
	verr := &ValidationError{}

	if cfg.TenantID == "" && cfg.TokenEndpoint == "" {
		verr.addMissing("tenant id (" + EnvTenantID + ")")
	}
	if cfg.ClientID == "" {
		verr.addMissing("client id (" + EnvClientID + ")")
	}
	if cfg.ClientSecret == "" {
		verr.addMissing("client secret (" + EnvClientSecret + ")")
	}
	if cfg.SharedSecret == "" {
		verr.addMissing("shared secret (" + EnvSharedSecret + ")")
	} else if len(cfg.SharedSecret) < minSharedSecretLen {
		verr.addInvalid("shared secret", fmt.Sprintf("must be at least %d bytes", minSharedSecretLen))
	}
	if len(cfg.Scopes) == 0 {
		verr.addMissing("default scopes (" + EnvScopes + ")")
	}
	if ep := cfg.ResolvedTokenEndpoint(); ep != "" && !strings.HasPrefix(ep, "https://") && !strings.HasPrefix(ep, "http://127.0.0.1") && !strings.HasPrefix(ep, "http://localhost") {
		verr.addInvalid("token endpoint", "must use HTTPS")
	}
	if cfg.TokenTimeout <= 0 {
		cfg.TokenTimeout = DefaultTokenTimeout
	}
	if cfg.CookieMaxAge <= 0 {
		cfg.CookieMaxAge = DefaultCookieMaxAge
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}

	if !verr.empty() {
		return verr
	}
	return nil
}
