package service

import (
	"crypto/tls"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/openrechev/openrechev/internal/datagov"
	"github.com/openrechev/openrechev/internal/platform/branding"
	"github.com/openrechev/openrechev/internal/services/mcp/conformance"
)

// serverVersion identifies the MCP server version.
const serverVersion = "0.1.0"

// serverName identifies this MCP server to clients.
var serverName = branding.AppName + " MCP"

// serverInstructions is surfaced to MCP clients during initialize so model
// callers know what the tool surface is for without probing it.
const serverInstructions = "Tools for the Israeli national vehicle registry. " +
	"Look up a single vehicle by license plate with get_vehicle, search registrations " +
	"by manufacturer, model, or plate with search_vehicles, and inspect the dataset's " +
	"licensing terms with list_dataset_licenses and get_dataset_license. Individual " +
	"registrations are also readable as vehicles://{license_plate} resources."

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP runs MCP over HTTP/SSE for browser or remote clients.
	TransportHTTP TransportKind = "http"
)

// Config configures the MCP server.
type Config struct {
	// UpstreamURL is the base URL of the government data portal API.
	// Empty selects the public data.gov.il action endpoint.
	UpstreamURL string
	// ResourceID selects the vehicle registry dataset on the portal.
	// Empty selects the published private-vehicle registry resource.
	ResourceID string
	// UpstreamTimeout caps a single upstream HTTP attempt.
	UpstreamTimeout time.Duration
	Transport       TransportKind
	HTTPAddr        string // HTTP server address (e.g., "localhost:8081"). Defaults to localhost:8081 for HTTP transport.
	// TLSConfig serves the HTTP transport over HTTPS when set.
	TLSConfig *tls.Config
}

// Server hosts the MCP server.
type Server struct {
	mcpServer *mcp.Server
	client    *datagov.Client
}

// New creates a configured MCP server that queries the government data portal
// and hydrates tool/resource handlers from its datastore API.
func New(cfg Config) (*Server, error) {
	client, err := newRegistryClient(cfg)
	if err != nil {
		return nil, err
	}
	return newServer(client)
}

// newServer creates MCP tool/resource handler bindings once and keeps the
// upstream client so transports share a single lifecycle.
func newServer(client *datagov.Client) (*Server, error) {
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, &mcp.ServerOptions{
		Instructions:       serverInstructions,
		CompletionHandler:  completionHandler,
		SubscribeHandler:   resourceSubscribeHandler,
		UnsubscribeHandler: resourceUnsubscribeHandler,
	})

	server := &Server{mcpServer: mcpServer, client: client}

	resourceID := datagov.DefaultResourceID
	if client != nil {
		resourceID = client.ResourceID()
	}

	for _, module := range newMCPRegistrationModules(mcpRegistrationClients{
		registry:   client,
		catalog:    client,
		resourceID: resourceID,
	}) {
		if err := module.register(mcpServerRegistrationAdapter{server: mcpServer}); err != nil {
			return nil, fmt.Errorf("register MCP module %q: %w", module.name, err)
		}
	}

	conformance.Register(mcpServer)

	return server, nil
}
