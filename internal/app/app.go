package app

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"graphgate/internal/config"
	"graphgate/internal/graphtool"
	"graphgate/internal/oauth"
	"graphgate/internal/server"
	"graphgate/pkg/logging"
)

// Config carries the command-line level settings into the application.
type Config struct {
	// Debug enables verbose logging.
	Debug bool

	// ConfigPath is the directory holding config.yaml. Empty means
	// defaults plus environment only.
	ConfigPath string

	// Version is the build version, exposed through the MCP server info.
	Version string
}

// Application owns the composed components and their lifecycle.
type Application struct {
	cfg *config.Config
	srv *server.Server
}

// NewApplication loads configuration and wires the codec, provider client,
// supplier, interceptor, tool service and HTTP server together. A
// validation failure here is fatal by design: refusing to start beats
// serving requests that can only fail later.
func NewApplication(appCfg Config) (*Application, error) {
	level := logging.LevelInfo
	if appCfg.Debug {
		level = logging.LevelDebug
	}
	logging.Init(level, os.Stdout)

	cfg, err := config.LoadConfig(appCfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	codec, err := oauth.NewCodec([]byte(cfg.SharedSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize artifact codec: %w", err)
	}

	client := oauth.NewClient(oauth.ProviderConfig{
		TokenEndpoint: cfg.ResolvedTokenEndpoint(),
		ClientID:      cfg.ClientID,
		ClientSecret:  oauth.NewRedactedSecret(cfg.ClientSecret),
		TenantID:      cfg.TenantID,
		DefaultScopes: cfg.Scopes,
		Timeout:       cfg.TokenTimeout,
	})

	supplier := oauth.NewSupplier(codec, client)
	interceptor := oauth.NewInterceptor(codec)

	service := graphtool.NewService(supplier, graphtool.NewGraphClient(""))
	mcpServer := service.BuildMCPServer(appCfg.Version)

	srv := server.New(&cfg, interceptor, mcpServer)

	logging.Info("App", "Initialized for tenant %s (client %s)",
		logging.TruncateID(cfg.TenantID), logging.TruncateID(cfg.ClientID))
	logging.Debug("App", "Default scopes: %s", cfg.ScopeString())

	return &Application{cfg: &cfg, srv: srv}, nil
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		// Fresh context: the group context is already cancelled.
		return a.srv.Shutdown(context.Background())
	})

	return g.Wait()
}
