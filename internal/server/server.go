// Package server exposes PlantUML diagram generation over the Model Context
// Protocol. It registers rendering and codec tools plus template and example
// resources, and serves them over stdio or HTTP transports.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/singleflight"

	plantuml "plantuml-go"
	"plantuml-go/internal/cache"
	"plantuml-go/internal/logging"
	"plantuml-go/internal/notify"
)

// Version is reported through the MCP handshake and the info resource.
const Version = "1.0.0"

// Config holds MCP server configuration.
type Config struct {
	// RendererURL is the PlantUML server base URL, e.g.
	// "http://127.0.0.1:8000/plantuml/".
	RendererURL string

	// FetchTimeout bounds individual renderer requests.
	FetchTimeout time.Duration

	// Cache, when non-nil, stores rendered images keyed by token.
	Cache *cache.RenderCache

	// Notifier, when non-nil, receives renderer failure alerts.
	Notifier *notify.NtfyClient
}

// Server wraps the MCP server with PlantUML rendering functionality.
type Server struct {
	mcp      *mcp.Server
	client   *plantuml.Client
	cache    *cache.RenderCache
	notifier *notify.NtfyClient
	flight   singleflight.Group
}

// New creates an MCP server with all tools and resources registered.
func New(cfg *Config) *Server {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = 30 * time.Second
	}

	s := &Server{
		client: plantuml.NewClient(cfg.RendererURL,
			plantuml.WithTimeout(cfg.FetchTimeout),
		),
		cache:    cfg.Cache,
		notifier: cfg.Notifier,
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "plantuml",
			Title:   "PlantUML MCP Server",
			Version: Version,
		},
		&mcp.ServerOptions{
			Instructions: "Generate UML diagrams from PlantUML text descriptions. " +
				"Use generate_plantuml_image for rendered images, validate_plantuml_syntax " +
				"to check code before rendering, and the plantuml:// resources for " +
				"templates and examples.",
		},
	)

	s.registerTools()
	s.registerResources()

	return s
}

// MCPServer returns the underlying MCP server for direct access (e.g. testing).
func (s *Server) MCPServer() *mcp.Server { return s.mcp }

// RunStdio runs the MCP server over the stdio transport. This is the primary
// mode for IDE and assistant integrations.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// renderToken fetches the rendered image for an encoded token, consulting
// the cache first and collapsing concurrent fetches of the same token into a
// single renderer request.
func (s *Server) renderToken(ctx context.Context, token string, format plantuml.Format) ([]byte, error) {
	if s.cache != nil {
		image, err := s.cache.Get(ctx, string(format), token)
		if err == nil {
			return image, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			logging.FromContext(ctx).Warn("render cache lookup failed", "err", err)
		}
	}

	v, err, _ := s.flight.Do(string(format)+"/"+token, func() (any, error) {
		return s.client.Fetch(ctx, token, format)
	})
	if err != nil {
		if notifyErr := s.notifier.RenderFailure(ctx, string(format), err); notifyErr != nil {
			logging.FromContext(ctx).Warn("failed to send render failure alert", "err", notifyErr)
		}
		return nil, err
	}
	image := v.([]byte)

	if s.cache != nil {
		if err := s.cache.Set(ctx, string(format), token, image); err != nil {
			logging.FromContext(ctx).Warn("render cache store failed", "err", err)
		}
	}
	return image, nil
}

// ---------------------------------------------------------------------------
// Tool helpers
// ---------------------------------------------------------------------------

type toolHandler = mcp.ToolHandler

// instrumented tags each tool call with a request ID and logs its outcome.
func instrumented(name string, h toolHandler) toolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx = logging.WithRequestID(ctx, uuid.NewString())
		logger := logging.FromContext(ctx).With("tool", name)

		start := time.Now()
		result, err := h(ctx, req)
		elapsed := time.Since(start)

		switch {
		case err != nil:
			logger.Error("tool call failed", "err", err, "duration", elapsed)
		case result != nil && result.IsError:
			logger.Warn("tool call returned error result", "duration", elapsed)
		default:
			logger.Info("tool call completed", "duration", elapsed)
		}
		return result, err
	}
}

// parseArgs unmarshals the raw JSON arguments from a tool call into dst.
func parseArgs(req *mcp.CallToolRequest, dst any) error {
	if len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Params.Arguments, dst); err != nil {
		return fmt.Errorf("parsing tool arguments: %w", err)
	}
	return nil
}

// textResult creates a CallToolResult with a single text content block.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// jsonResult marshals v to indented JSON and wraps it in a CallToolResult.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return textResult(string(data)), nil
}

// errorResult creates an IsError CallToolResult so the calling model can see
// the error and self-correct rather than hitting a protocol-level failure.
func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}
