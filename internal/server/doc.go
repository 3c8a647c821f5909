// Package server wires the token-custody components into an HTTP surface.
//
// The server mounts the MCP tool endpoint behind a middleware that lifts
// the artifact cookie into the request context and re-issues the cookie
// when a tool call surfaced a replacement bundle. Alongside the tool
// endpoint it serves the authentication-completion route (where the
// interceptor captures the refresh grant), a logout route that expires
// the cookie, and a health probe.
//
// Nothing here holds per-user state. Every request is self-contained, so
// any number of replicas can sit behind a load balancer with no session
// affinity.
package server
