package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"graphgate/internal/api"
	"graphgate/internal/oauth"
	"graphgate/pkg/logging"
)

// artifactMiddleware prepares a request for the tool layer: it attaches a
// fresh rotation recorder and a correlation id to the request context, and
// wraps the response writer so a recorded replacement artifact becomes a
// Set-Cookie header before the response is committed.
func (s *Server) artifactMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		recorder := &api.RotationRecorder{}

		ctx := api.WithRotationRecorder(r.Context(), recorder)
		ctx = api.WithRequestID(ctx, requestID)

		rw := &rotationWriter{
			ResponseWriter: w,
			recorder:       recorder,
			cookieName:     s.cfg.CookieName,
			cookieMaxAge:   s.cfg.CookieMaxAge,
			requestID:      requestID,
		}
		next.ServeHTTP(rw, r.WithContext(ctx))
	})
}

// toolContext carries the per-request values into the tool handler context.
// The MCP transport builds its own context per message, so the artifact and
// the rotation recorder are copied over from the HTTP request explicitly.
func (s *Server) toolContext(ctx context.Context, r *http.Request) context.Context {
	if recorder, ok := api.RotationRecorderFromContext(r.Context()); ok {
		ctx = api.WithRotationRecorder(ctx, recorder)
	}
	if requestID, ok := api.RequestIDFromContext(r.Context()); ok {
		ctx = api.WithRequestID(ctx, requestID)
	}
	if cookie, err := r.Cookie(s.cfg.CookieName); err == nil && cookie.Value != "" {
		ctx = api.WithArtifact(ctx, cookie.Value)
	}
	return ctx
}

// rotationWriter injects the replacement-artifact cookie just before the
// first byte of the response is written. Headers are immutable after that
// point, which is why the tool layer never sets the cookie itself.
type rotationWriter struct {
	http.ResponseWriter
	recorder     *api.RotationRecorder
	cookieName   string
	cookieMaxAge time.Duration
	requestID    string
	wroteHeader  bool
}

func (w *rotationWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true

	if artifact, ok := w.recorder.Pending(); ok {
		sink := &oauth.CookieSink{
			Writer: w.ResponseWriter,
			Name:   w.cookieName,
			MaxAge: w.cookieMaxAge,
		}
		if err := sink.StoreArtifact(artifact); err != nil {
			logging.Warn("Server", "Failed to re-issue artifact cookie (request=%s): %v", w.requestID, err)
		} else {
			logging.Debug("Server", "Re-issued artifact cookie after rotation (request=%s)", w.requestID)
		}
	}

	w.ResponseWriter.WriteHeader(status)
}

func (w *rotationWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Flush keeps streaming transports working through the wrapper.
func (w *rotationWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		if !w.wroteHeader {
			w.WriteHeader(http.StatusOK)
		}
		flusher.Flush()
	}
}

// Hijack passes through for transports that take over the connection.
func (w *rotationWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying response writer does not support hijacking")
}
