package oauth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"graphgate/pkg/logging"
)

// AuthEvent is the slice of a provider token response the interceptor cares
// about. The host fires one per successful authentication; the access and
// ID tokens in that response are the host's concern and never reach this
// package.
type AuthEvent struct {
	// RefreshToken is the provider's long-lived credential. Absent when
	// offline access was not granted.
	RefreshToken string

	// Scope is the space-delimited granted scope list.
	Scope string
}

// ArtifactSink receives the encoded artifact for delivery to the client.
// Implementations own the storage attributes (cookie flags, lifetime); the
// interceptor owns only the artifact's content.
type ArtifactSink interface {
	// StoreArtifact delivers a new or replacement artifact.
	StoreArtifact(artifact string) error
}

// Interceptor observes the host's authentication-success events and seals
// the provider's refresh grant into a stored artifact. It registers against
// the host's callback-registration point; it never reaches into host
// internals.
type Interceptor struct {
	codec *Codec
}

// NewInterceptor creates an interceptor sealing bundles with the given
// codec.
func NewInterceptor(codec *Codec) *Interceptor {
	return &Interceptor{codec: codec}
}

// OnAuthenticated handles one successful authentication event: it builds a
// TokenBundle from the event, encodes it, and delivers the artifact to the
// sink. A response without a refresh token is a ConfigError: storing an
// incomplete bundle would only defer the failure to the first tool call,
// where it is much harder to diagnose.
func (i *Interceptor) OnAuthenticated(ctx context.Context, event AuthEvent, sink ArtifactSink) error {
	if event.RefreshToken == "" {
		return &ConfigError{
			Reason: "authentication granted no refresh token; ensure the offline_access scope is requested",
		}
	}

	bundle := &TokenBundle{
		RefreshToken: event.RefreshToken,
		Scopes:       strings.Fields(event.Scope),
		IssuedAt:     time.Now().UTC(),
	}

	artifact, err := i.codec.Encode(ctx, bundle)
	if err != nil {
		return fmt.Errorf("failed to encode token bundle: %w", err)
	}

	if err := sink.StoreArtifact(artifact); err != nil {
		return fmt.Errorf("failed to store artifact: %w", err)
	}

	logging.Info("Interceptor", "Captured refresh grant (scopes=%d, artifact=%d bytes)",
		len(bundle.Scopes), len(artifact))

	return nil
}
