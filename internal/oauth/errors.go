package oauth

import (
	"errors"
	"fmt"
)

// ErrAuthRequired signals that the user must authenticate (or
// re-authenticate) before delegated access is possible. It covers a missing
// artifact, an artifact that fails to decode for any reason, and a refresh
// token the provider reports as invalid, expired, or revoked. It is not a
// transient failure: retrying without user interaction cannot succeed.
var ErrAuthRequired = errors.New("authentication required")

// ErrDecode is the failure class for artifacts that cannot be decoded:
// tampered bytes, a rotated shared secret, or garbage input. Callers treat
// all decode failures identically and never attempt partial recovery.
var ErrDecode = errors.New("artifact decode failed")

// IsAuthRequired reports whether err means the caller should prompt the
// user to re-authenticate.
func IsAuthRequired(err error) bool {
	return errors.Is(err, ErrAuthRequired)
}

// ConfigError is a fatal deployment-level failure: missing or invalid
// provider configuration, rejected client credentials, or an authentication
// that completed without granting the refresh capability this design
// depends on. It is never retried and is surfaced to operators, not users.
type ConfigError struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// Unwrap supports errors.Is/As chains.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is a fatal configuration failure.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// ErrorClass partitions provider failures by what the caller may do next.
type ErrorClass int

const (
	// ClassTransient covers network failures, timeouts, and 5xx responses.
	// Safe to retry with backoff at a layer above the supplier.
	ClassTransient ErrorClass = iota

	// ClassAuthExpired means the refresh token itself was rejected
	// (invalid, expired, or revoked). Only re-authentication helps.
	ClassAuthExpired

	// ClassFatal covers rejected client credentials and malformed
	// requests. Never retried; indicates deployment misconfiguration.
	ClassFatal
)

// String makes ErrorClass satisfy fmt.Stringer.
func (c ErrorClass) String() string {
	switch c {
	case ClassTransient:
		return "transient"
	case ClassAuthExpired:
		return "auth_expired"
	case ClassFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ProviderError is a classified failure from the provider's token endpoint.
type ProviderError struct {
	// Class determines how callers may react.
	Class ErrorClass

	// Code is the OAuth error code from the response body, if any
	// (e.g. "invalid_grant"). Empty for network-level failures.
	Code string

	// Status is the HTTP status of the response, 0 when the request never
	// completed.
	Status int

	// Description is the provider's error_description. Operator-facing;
	// never shown raw to end users.
	Description string

	// ScopeRelated marks rejections caused specifically by the requested
	// scope set. The client retries these once without a scope parameter.
	ScopeRelated bool

	// Err is the underlying transport error, if any.
	Err error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("provider error (%s): %v", e.Class, e.Err)
	case e.Code != "":
		return fmt.Sprintf("provider error (%s): %s (status %d)", e.Class, e.Code, e.Status)
	default:
		return fmt.Sprintf("provider error (%s): status %d", e.Class, e.Status)
	}
}

// Unwrap supports errors.Is/As chains.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Transient reports whether the failure is safe to retry with backoff.
func (e *ProviderError) Transient() bool {
	return e.Class == ClassTransient
}

// IsTransient reports whether err is a retryable provider failure.
func IsTransient(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Transient()
}
