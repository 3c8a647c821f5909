// Package oauth implements stateless custody of a user's Microsoft Graph
// refresh token and its on-demand redemption for short-lived access tokens.
//
// The design holds no server-side token state. At authentication time the
// Interceptor captures the provider's refresh token, seals it into an
// encrypted TokenBundle artifact, and hands that artifact to a
// caller-supplied sink (in practice an HttpOnly cookie). At tool-call time
// the Supplier decodes the artifact, redeems the refresh token at the
// provider's token endpoint, and returns a fresh access token. Any replica
// holding the same shared secret and provider configuration can serve any
// user; nothing coordinates between calls or processes.
//
// The package is organized around four components:
//
//   - Codec: authenticated encryption of TokenBundle to/from an opaque
//     string artifact. The key is derived from a deployment-wide shared
//     secret via HKDF; rotating the secret invalidates every artifact.
//   - Client: redeems a refresh token at the Azure AD token endpoint,
//     retrying exactly once without an explicit scope parameter when the
//     provider rejects the request for a scope-specific reason.
//   - Interceptor: observes the host's authentication-success events and
//     produces the stored artifact.
//   - Supplier: the per-call entry point composing decode and redeem, and
//     mapping every failure to the AuthRequired / ConfigError /
//     ProviderError taxonomy in errors.go.
//
// Access tokens are never cached: each call re-derives one, trading a token
// endpoint round trip for zero stale-token risk and zero shared state.
package oauth
