// Package graphtool exposes Microsoft Graph operations as MCP tools.
//
// Every tool call is self-contained: the handler lifts the caller's
// artifact out of the request context, redeems it for a fresh access token
// immediately before the Graph call, and never caches the token beyond
// that call. Transient provider failures are retried with bounded
// backoff; everything else surfaces as a structured status result so the
// host extension can drive the user to sign in or alert an operator.
package graphtool
