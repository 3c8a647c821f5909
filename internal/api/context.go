package api

import (
	"context"
	"sync"
)

// ArtifactContextKey is the context key for the caller's stored artifact.
// The type is defined here so the HTTP layer and the tool layer agree on
// the same type identity when setting and getting the value.
type ArtifactContextKey struct{}

// ArtifactFromContext extracts the caller's artifact from context. Returns
// the artifact and true if one was presented, or empty string and false
// when the request carried no artifact cookie.
func ArtifactFromContext(ctx context.Context) (string, bool) {
	if artifact, ok := ctx.Value(ArtifactContextKey{}).(string); ok && artifact != "" {
		return artifact, true
	}
	return "", false
}

// WithArtifact returns a new context carrying the caller's artifact.
func WithArtifact(ctx context.Context, artifact string) context.Context {
	return context.WithValue(ctx, ArtifactContextKey{}, artifact)
}

// RotationRecorder carries a replacement artifact from the tool layer back
// to the HTTP layer within a single request. When the provider rotates the
// refresh token mid-request, the tool handler records the replacement here
// and the response writer re-issues the cookie before headers are sent.
//
// Safe for concurrent use; the last recorded artifact wins.
type RotationRecorder struct {
	mu       sync.Mutex
	artifact string
}

// Record stores a replacement artifact for cookie re-issue.
func (r *RotationRecorder) Record(artifact string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.artifact = artifact
}

// Pending returns the recorded replacement artifact, if any.
func (r *RotationRecorder) Pending() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.artifact, r.artifact != ""
}

// RotationRecorderContextKey is the context key for the per-request
// rotation recorder.
type RotationRecorderContextKey struct{}

// RotationRecorderFromContext extracts the per-request rotation recorder.
func RotationRecorderFromContext(ctx context.Context) (*RotationRecorder, bool) {
	rec, ok := ctx.Value(RotationRecorderContextKey{}).(*RotationRecorder)
	return rec, ok && rec != nil
}

// WithRotationRecorder returns a new context carrying the rotation recorder.
func WithRotationRecorder(ctx context.Context, rec *RotationRecorder) context.Context {
	return context.WithValue(ctx, RotationRecorderContextKey{}, rec)
}

// RequestIDContextKey is the context key for the per-request correlation id.
type RequestIDContextKey struct{}

// RequestIDFromContext extracts the request correlation id from context.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if id, ok := ctx.Value(RequestIDContextKey{}).(string); ok && id != "" {
		return id, true
	}
	return "", false
}

// WithRequestID returns a new context carrying the request correlation id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDContextKey{}, id)
}
