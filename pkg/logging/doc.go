// Package logging provides the structured logging facade used across
// graphgate. It wraps log/slog with a small subsystem-tagged API so call
// sites stay uniform:
//
//	logging.Info("Supplier", "Redeemed access token (expires in %ds)", expiresIn)
//	logging.Error("Codec", err, "Failed to decode artifact")
//
// The logger is initialized once at startup via Init. Components must never
// pass token material, shared secrets, or derived keys as arguments; wrap
// anything sensitive in oauth.RedactedSecret before it can reach a format
// string.
package logging
