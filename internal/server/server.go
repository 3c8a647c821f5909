package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"graphgate/internal/config"
	"graphgate/internal/oauth"
	"graphgate/pkg/auth"
	"graphgate/pkg/logging"
)

const (
	// DefaultReadHeaderTimeout is the timeout for reading request headers.
	DefaultReadHeaderTimeout = 10 * time.Second
	// DefaultWriteTimeout is the timeout for writing responses.
	DefaultWriteTimeout = 120 * time.Second
	// DefaultIdleTimeout is the idle timeout for keepalive connections.
	DefaultIdleTimeout = 120 * time.Second

	// shutdownTimeout bounds graceful shutdown of in-flight requests.
	shutdownTimeout = 5 * time.Second
)

// AuthCompletedHook observes one successful authentication. Hooks run in
// registration order; the first error aborts the chain.
type AuthCompletedHook func(ctx context.Context, event oauth.AuthEvent, sink oauth.ArtifactSink) error

// Server serves the MCP tool endpoint plus the auth-completion, logout and
// health routes.
type Server struct {
	cfg        *config.Config
	mcpServer  *mcpserver.MCPServer
	httpServer *http.Server
	hooks      []AuthCompletedHook
}

// New creates a server. The interceptor is registered as the first
// auth-completion hook; further observers can attach before Start.
func New(cfg *config.Config, interceptor *oauth.Interceptor, mcpServer *mcpserver.MCPServer) *Server {
	s := &Server{
		cfg:       cfg,
		mcpServer: mcpServer,
	}
	s.RegisterAuthCompletedHook(interceptor.OnAuthenticated)
	return s
}

// RegisterAuthCompletedHook adds an observer for authentication events.
// Not safe to call after Start.
func (s *Server) RegisterAuthCompletedHook(hook AuthCompletedHook) {
	s.hooks = append(s.hooks, hook)
}

// Handler builds the HTTP routing for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health probe, unauthenticated.
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("/auth/complete", s.handleAuthComplete)
	mux.HandleFunc("/auth/logout", s.handleLogout)

	streamable := mcpserver.NewStreamableHTTPServer(
		s.mcpServer,
		mcpserver.WithEndpointPath("/mcp"),
		mcpserver.WithHTTPContextFunc(s.toolContext),
	)
	mux.Handle("/mcp", s.artifactMiddleware(streamable))

	return mux
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.ListenAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
	}

	logging.Info("Server", "Listening on %s", s.cfg.ListenAddress)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	logging.Info("Server", "Shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// authCompletion is the request body of the auth-completion route. The
// host's auth flow posts the grant fields here after finishing the code
// exchange; the access and ID tokens of that exchange stay with the host.
type authCompletion struct {
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

// handleAuthComplete fires the registered hooks for one authentication
// event. The cookie sink is bound to this response, so a successful chain
// leaves the artifact cookie on the reply.
func (s *Server) handleAuthComplete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var completion authCompletion
	if err := json.NewDecoder(r.Body).Decode(&completion); err != nil {
		s.writeStatus(w, http.StatusBadRequest, auth.StatusConfigError, "malformed completion payload")
		return
	}

	event := oauth.AuthEvent{
		RefreshToken: completion.RefreshToken,
		Scope:        completion.Scope,
	}
	sink := &oauth.CookieSink{
		Writer: w,
		Name:   s.cfg.CookieName,
		MaxAge: s.cfg.CookieMaxAge,
	}

	for _, hook := range s.hooks {
		if err := hook(r.Context(), event, sink); err != nil {
			logging.Error("Server", err, "Auth completion hook failed")
			if oauth.IsConfigError(err) {
				// Operator problem: the grant is unusable as configured.
				s.writeStatus(w, http.StatusInternalServerError, auth.StatusConfigError, err.Error())
			} else {
				// Hook or sink hiccup; re-posting the completion can succeed.
				s.writeStatus(w, http.StatusInternalServerError, auth.StatusTransientError, "auth completion failed; try again")
			}
			return
		}
	}

	s.writeStatus(w, http.StatusOK, auth.StatusOK, "authenticated")
}

// handleLogout expires the artifact cookie. Discarding the client-held
// copy is the design's only deletion path; there is no server-side state
// to clear.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	oauth.ClearArtifactCookie(w, s.cfg.CookieName)
	s.writeStatus(w, http.StatusOK, auth.StatusOK, "logged out")
}

func (s *Server) writeStatus(w http.ResponseWriter, code int, status, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(auth.StatusResponse{Status: status, Message: message})
}
