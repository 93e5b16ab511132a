package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/openrechev/openrechev/internal/datagov"
)

// completionHandler handles completion/complete requests with empty results.
// Returning empty completions is intentional today because useful suggestions
// would need facet queries against the datastore, and those are not wired yet.
// TODO: Suggest manufacturer names for search_vehicles arguments once the
// client exposes a distinct-values query.
func completionHandler(ctx context.Context, req *mcp.CompleteRequest) (*mcp.CompleteResult, error) {
	return &mcp.CompleteResult{
		Completion: mcp.CompletionResultDetails{
			Values: []string{},
		},
	}, nil
}

// resourceSubscribeHandler accepts resource subscriptions with a valid URI.
// The handler currently validates only addressing because registry records
// change on the portal's publication cadence, not through this server.
func resourceSubscribeHandler(_ context.Context, req *mcp.SubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}

// resourceUnsubscribeHandler accepts resource unsubscriptions with a valid URI.
// URI-level validation is still the boundary because MCP unsubscription is a
// resource routing signal, not a registry operation.
func resourceUnsubscribeHandler(_ context.Context, req *mcp.UnsubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}

// Run is the service entrypoint for MCP and blocks until context cancellation.
// It is intentionally transport-agnostic so startup can choose stdio for local
// tools and HTTP for browser/remote integrations.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}

	switch cfg.Transport {
	case TransportStdio:
		return runWithTransport(ctx, cfg, &mcp.StdioTransport{})
	case TransportHTTP:
		return runWithHTTPTransport(ctx, cfg)
	default:
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
}

// runWithHTTPTransport creates a server and serves it over HTTP transport.
// runWithHTTPTransport keeps HTTP session/stateful transport concerns isolated from
// the same MCP domain handlers used by stdio.
func runWithHTTPTransport(ctx context.Context, cfg Config) error {
	// Default to localhost-only binding for security
	httpAddr := cfg.HTTPAddr
	if httpAddr == "" {
		httpAddr = "localhost:8081"
	}

	client, err := newRegistryClient(cfg)
	if err != nil {
		return err
	}
	mcpServer, err := newServer(client)
	if err != nil {
		return err
	}
	defer mcpServer.Close()

	// Create HTTP transport with reference to MCP server
	httpTransport := NewHTTPTransportWithServer(httpAddr, mcpServer.mcpServer)
	httpTransport.applyConfig(cfg)

	// Start HTTP server (this will handle all HTTP requests)
	return httpTransport.Start(ctx)
}

// Serve starts the MCP server on stdio and blocks until it stops or the context ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// Close releases the upstream client held by the server.
func (s *Server) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	if err := s.client.Close(); err != nil {
		return err
	}
	s.client = nil
	return nil
}

// serveWithTransport starts the MCP server using the provided transport.
// The server and its upstream client share a single exit path so cleanup behavior
// is consistent for both stdio and HTTP runs.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	closeErr := s.Close()
	if closeErr != nil {
		if err == nil {
			return fmt.Errorf("close upstream client: %w", closeErr)
		}
		return fmt.Errorf("serve MCP: %v; close upstream client: %w", err, closeErr)
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

// runWithTransport creates a server and serves it over the provided transport.
func runWithTransport(ctx context.Context, cfg Config, transport mcp.Transport) error {
	client, err := newRegistryClient(cfg)
	if err != nil {
		return err
	}
	mcpServer, err := newServer(client)
	if err != nil {
		return err
	}
	return mcpServer.serveWithTransport(ctx, transport)
}

// newRegistryClient builds the data portal client shared by all MCP handlers.
func newRegistryClient(cfg Config) (*datagov.Client, error) {
	return datagov.New(datagov.Config{
		BaseURL:    upstreamBaseURL(cfg.UpstreamURL),
		ResourceID: cfg.ResourceID,
		Timeout:    cfg.UpstreamTimeout,
	})
}

// upstreamBaseURL resolves the upstream base URL from the explicit fallback or env when empty.
func upstreamBaseURL(fallback string) string {
	if strings.TrimSpace(fallback) != "" {
		return fallback
	}
	if value := strings.TrimSpace(os.Getenv("OPENRECHEV_UPSTREAM_URL")); value != "" {
		return value
	}
	return fallback
}
