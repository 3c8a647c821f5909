package oauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"graphgate/pkg/logging"
)

// Supplier is the per-call entry point for tool logic that needs a Graph
// access token. Each GetAccessToken call is independent: it decodes the
// caller's stored artifact, redeems the refresh token, and returns the
// result. Nothing is cached across calls and no state is shared between
// concurrent invocations, so any replica can serve any user.
type Supplier struct {
	codec    *Codec
	provider *Client
}

// NewSupplier composes a supplier from a codec and a provider client.
func NewSupplier(codec *Codec, provider *Client) *Supplier {
	return &Supplier{
		codec:    codec,
		provider: provider,
	}
}

// Result is a successful GetAccessToken outcome.
type Result struct {
	// AccessToken is valid for the current operation only. Callers must
	// not cache it beyond the call they obtained it for.
	AccessToken AccessToken

	// ReplacementBundle is non-nil when the provider rotated the refresh
	// token. The stored artifact is superseded wholesale; the caller owns
	// persisting the replacement (the supplier has no storage sink).
	ReplacementBundle *TokenBundle

	// ReplacementArtifact is the encoded form of ReplacementBundle, ready
	// for the caller's sink. Empty when ReplacementBundle is nil.
	ReplacementArtifact string
}

// GetAccessToken obtains a fresh access token for the user holding the
// given artifact. Failures map onto exactly one category of the taxonomy:
//
//   - ErrAuthRequired: no artifact, undecodable artifact, or a refresh
//     token the provider rejected as invalid/expired/revoked. The user
//     must re-authenticate.
//   - *ConfigError: rejected client credentials. Operator-facing.
//   - *ProviderError: transient (retryable above this layer) or fatal.
//
// Expected failures are returned, never panicked.
func (s *Supplier) GetAccessToken(ctx context.Context, artifact string) (*Result, error) {
	if artifact == "" {
		return nil, fmt.Errorf("%w: no stored artifact", ErrAuthRequired)
	}

	bundle, err := s.codec.Decode(ctx, artifact)
	if err != nil {
		// Tampered cookie, rotated shared secret, or garbage. All equal:
		// the artifact is unusable and only re-authentication recovers.
		logging.Debug("Supplier", "Artifact failed to decode: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrAuthRequired, err)
	}

	redemption, err := s.provider.Redeem(ctx, bundle.RefreshToken, bundle.Scopes)
	if err != nil {
		return nil, s.mapRedeemError(err)
	}

	if redemption.AccessToken.IsExpired(DefaultExpiryMargin) {
		// The token is technically usable but the downstream call may lose
		// the race against its expiry. Worth surfacing to operators.
		logging.Warn("Supplier", "Provider issued a token already within the %s expiry margin", DefaultExpiryMargin)
	}

	result := &Result{AccessToken: redemption.AccessToken}

	if redemption.NewRefreshToken != "" && redemption.NewRefreshToken != bundle.RefreshToken {
		replacement := &TokenBundle{
			RefreshToken: redemption.NewRefreshToken,
			Scopes:       replacementScopes(bundle, redemption),
			IssuedAt:     time.Now().UTC(),
		}
		encoded, err := s.codec.Encode(ctx, replacement)
		if err != nil {
			// The access token is good; losing the rotation only costs a
			// future re-authentication. Surface the token, log the miss.
			logging.Warn("Supplier", "Failed to encode replacement bundle, rotation dropped: %v", err)
		} else {
			result.ReplacementBundle = replacement
			result.ReplacementArtifact = encoded
			logging.Debug("Supplier", "Provider rotated refresh token, replacement bundle surfaced")
		}
	}

	return result, nil
}

// mapRedeemError folds provider failures into the caller-facing taxonomy
// so tool logic never inspects provider-specific codes.
func (s *Supplier) mapRedeemError(err error) error {
	var perr *ProviderError
	if !errors.As(err, &perr) {
		return err
	}

	switch perr.Class {
	case ClassAuthExpired:
		logging.Debug("Supplier", "Refresh token rejected (%s), re-authentication required", perr.Code)
		return fmt.Errorf("%w: %v", ErrAuthRequired, perr)
	case ClassFatal:
		if perr.Code == errorCodeInvalidClient || perr.Code == errorCodeUnauthorized {
			return &ConfigError{Reason: "provider rejected client credentials", Err: perr}
		}
		return perr
	default:
		return perr
	}
}

// replacementScopes picks the scope list for a replacement bundle. The
// provider's granted set wins when present; otherwise the original bundle's
// scopes carry over unchanged.
func replacementScopes(bundle *TokenBundle, redemption *Redemption) []string {
	if len(redemption.GrantedScopes) > 0 {
		return redemption.GrantedScopes
	}
	return bundle.Scopes
}
