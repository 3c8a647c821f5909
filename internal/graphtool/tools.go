package graphtool

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"graphgate/internal/api"
	"graphgate/internal/oauth"
	"graphgate/pkg/auth"
	"graphgate/pkg/logging"
)

// maxRedeemRetries caps retries of transient provider failures per tool
// call (initial attempt plus two retries).
const maxRedeemRetries = 2

// Service implements the MCP tool handlers over a token supplier and a
// Graph client. It holds no per-user state.
type Service struct {
	supplier *oauth.Supplier
	graph    *GraphClient

	// newBackOff builds the retry policy for transient redemption
	// failures. Overridable in tests to avoid real waits.
	newBackOff func() backoff.BackOff
}

// NewService creates the tool service.
func NewService(supplier *oauth.Supplier, graph *GraphClient) *Service {
	return &Service{
		supplier: supplier,
		graph:    graph,
		newBackOff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.InitialInterval = 250 * time.Millisecond
			bo.MaxInterval = 2 * time.Second
			return backoff.WithMaxRetries(bo, maxRedeemRetries)
		},
	}
}

// BuildMCPServer creates the MCP server with all Graph tools registered.
func (s *Service) BuildMCPServer(version string) *mcpserver.MCPServer {
	srv := mcpserver.NewMCPServer(
		"graphgate",
		version,
		mcpserver.WithToolCapabilities(false),
	)
	s.registerTools(srv)
	return srv
}

func (s *Service) registerTools(srv *mcpserver.MCPServer) {
	profileTool := mcp.NewTool("profile_get",
		mcp.WithDescription("Get the signed-in user's Microsoft 365 profile"),
	)
	srv.AddTool(profileTool, s.handleProfileGet)

	driveTool := mcp.NewTool("drive_list",
		mcp.WithDescription("List the OneDrive drives available to the signed-in user"),
	)
	srv.AddTool(driveTool, s.handleDriveList)

	logging.Debug("GraphTool", "Registered Graph tools")
}

func (s *Service) handleProfileGet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token, statusResult := s.accessToken(ctx)
	if statusResult != nil {
		return statusResult, nil
	}

	profile, err := s.graph.Profile(ctx, token)
	if err != nil {
		logging.Warn("GraphTool", "profile_get failed: %v", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to fetch profile: %v", err)), nil
	}
	return mcp.NewToolResultText(string(profile)), nil
}

func (s *Service) handleDriveList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token, statusResult := s.accessToken(ctx)
	if statusResult != nil {
		return statusResult, nil
	}

	drives, err := s.graph.Drives(ctx, token)
	if err != nil {
		logging.Warn("GraphTool", "drive_list failed: %v", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to list drives: %v", err)), nil
	}
	return mcp.NewToolResultText(string(drives)), nil
}

// accessToken obtains a fresh access token for the current call. It
// returns either the token or a ready-to-send status result; never both.
// Transient provider failures are retried with backoff, everything else
// short-circuits.
func (s *Service) accessToken(ctx context.Context) (string, *mcp.CallToolResult) {
	artifact, _ := api.ArtifactFromContext(ctx)

	operation := func() (*oauth.Result, error) {
		result, err := s.supplier.GetAccessToken(ctx, artifact)
		if err != nil && !oauth.IsTransient(err) {
			return nil, backoff.Permanent(err)
		}
		return result, err
	}

	result, err := backoff.RetryWithData(operation, backoff.WithContext(s.newBackOff(), ctx))
	if err != nil {
		return "", s.statusForError(ctx, err)
	}

	if result.ReplacementArtifact != "" {
		if recorder, ok := api.RotationRecorderFromContext(ctx); ok {
			recorder.Record(result.ReplacementArtifact)
		} else {
			logging.Warn("GraphTool", "Rotation surfaced but no recorder in context, replacement dropped")
		}
	}

	return result.AccessToken.Value, nil
}

// statusForError folds a redemption failure into the status vocabulary the
// host extension understands. Messages stay generic; error bodies and
// token material never reach the tool caller.
func (s *Service) statusForError(ctx context.Context, err error) *mcp.CallToolResult {
	requestID, _ := api.RequestIDFromContext(ctx)

	switch {
	case oauth.IsAuthRequired(err):
		logging.Debug("GraphTool", "Tool call requires authentication (request=%s)", requestID)
		return statusResult(auth.StatusAuthRequired, "authentication required; sign in to continue")
	case oauth.IsConfigError(err):
		logging.Error("GraphTool", err, "Tool call hit a configuration error (request=%s)", requestID)
		return statusResult(auth.StatusConfigError, "service is misconfigured; contact an operator")
	case oauth.IsTransient(err):
		logging.Warn("GraphTool", "Tool call exhausted retries (request=%s): %v", requestID, err)
		return statusResult(auth.StatusTransientError, "identity provider unavailable; try again")
	default:
		logging.Error("GraphTool", err, "Tool call failed (request=%s)", requestID)
		return mcp.NewToolResultError("token redemption failed")
	}
}

func statusResult(status, message string) *mcp.CallToolResult {
	body, err := json.Marshal(auth.StatusResponse{Status: status, Message: message})
	if err != nil {
		return mcp.NewToolResultError(message)
	}
	return mcp.NewToolResultText(string(body))
}
