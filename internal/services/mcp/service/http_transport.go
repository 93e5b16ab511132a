package service

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/openrechev/openrechev/internal/platform/config"
	"github.com/openrechev/openrechev/internal/platform/timeouts"
)

var listenTCP = net.Listen
var newTLSListener = tls.NewListener

// mcpHTTPEnv holds env-parsed configuration for MCP HTTP transport.
type mcpHTTPEnv struct {
	AllowedHosts []string `env:"OPENRECHEV_MCP_ALLOWED_HOSTS" envSeparator:","`
}

const (
	// defaultChannelBufferSize buffers per-session message channels so
	// short bursts do not block the HTTP handlers.
	defaultChannelBufferSize = 10

	// defaultRequestTimeout is the maximum time to wait for a JSON-RPC response.
	// It must exceed the upstream call budget so slow portal responses surface
	// as in-band tool results instead of transport timeouts.
	defaultRequestTimeout = 40 * time.Second

	// defaultShutdownTimeout exceeds defaultRequestTimeout so in-flight
	// requests can finish before the server exits.
	defaultShutdownTimeout = 45 * time.Second

	// sessionCleanupInterval is the janitor's sweep period.
	sessionCleanupInterval = 5 * time.Minute

	// sessionExpirationTime is the idle window after which a session is
	// dropped.
	sessionExpirationTime = 1 * time.Hour

	// sseHeartbeatInterval paces activity refreshes for open SSE streams.
	sseHeartbeatInterval = 30 * time.Second

	// defaultSessionReadyTimeout bounds how long we wait for a session connection
	// to become ready before request handling continues.
	defaultSessionReadyTimeout = 100 * time.Millisecond
)

// HTTPTransport implements mcp.Transport over an HTTP server: JSON-RPC
// messages arrive as POST bodies and notifications stream back over SSE.
// Session lifecycle is explicit so long-lived local MCP clients cannot
// leak connections even when the data portal stops responding.
type HTTPTransport struct {
	addr         string
	allowedHosts map[string]struct{}
	server       *mcp.Server
	sessions     map[string]*httpSession
	sessionsMu   sync.RWMutex
	httpServer   *http.Server
	serverCtx    context.Context
	serverCancel context.CancelFunc
	serverOnceMu sync.Mutex
	serverOnce   map[string]*sync.Once
	tlsConfig    *tls.Config

	serverReadyTimeout time.Duration
	randomReader       func([]byte) (int, error)
	readyAfter         func(time.Duration) <-chan time.Time
}

func (t *HTTPTransport) applyConfig(cfg Config) {
	if t == nil {
		return
	}
	t.tlsConfig = cfg.TLSConfig
}

// httpSession pairs one client conversation with its connection and the
// liveness bookkeeping the janitor sweeps on.
type httpSession struct {
	id        string
	conn      *httpConnection
	createdAt time.Time
	lastUsed  time.Time
}

// NewHTTPTransport creates an HTTP transport bound to addr. The default
// bind is localhost-only; OPENRECHEV_MCP_ALLOWED_HOSTS widens the set of
// Host/Origin values the transport accepts.
func NewHTTPTransport(addr string) *HTTPTransport {
	if addr == "" {
		addr = "localhost:8081"
	}
	var raw mcpHTTPEnv
	_ = config.ParseEnv(&raw)
	ctx, cancel := context.WithCancel(context.Background())
	return &HTTPTransport{
		addr:               addr,
		allowedHosts:       parseAllowedHosts(raw.AllowedHosts),
		sessions:           make(map[string]*httpSession),
		serverCtx:          ctx,
		serverCancel:       cancel,
		serverOnce:         make(map[string]*sync.Once),
		serverReadyTimeout: defaultSessionReadyTimeout,
		randomReader:       rand.Read,
		readyAfter:         time.After,
	}
}

// NewHTTPTransportWithServer creates an HTTP transport that drives the
// given MCP server, letting callers inject a preconfigured runtime
// without repeating transport setup.
func NewHTTPTransportWithServer(addr string, server *mcp.Server) *HTTPTransport {
	transport := NewHTTPTransport(addr)
	transport.server = server
	return transport
}

// Start serves MCP over HTTP until ctx is cancelled. One /mcp endpoint
// carries both directions: POST for client messages, GET for the SSE
// notification stream. Host validation and session lifecycle apply to
// both.
func (t *HTTPTransport) Start(ctx context.Context) error {
	t.serverCtx, t.serverCancel = context.WithCancel(ctx)

	go t.sweepSessions(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			t.handleSSE(w, r)
		case http.MethodPost:
			t.handleMessages(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/mcp/health", t.handleHealth)

	t.httpServer = &http.Server{
		Addr:              t.addr,
		Handler:           mux,
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	log.Printf("Starting MCP HTTP server on %s", t.addr)

	errChan := make(chan error, 1)
	go func() {
		listener, err := listenTCP("tcp", t.addr)
		if err != nil {
			errChan <- err
			return
		}

		serverListener := listener
		if t.tlsConfig != nil {
			serverListener = newTLSListener(listener, t.tlsConfig)
		}

		if err := t.httpServer.Serve(serverListener); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Printf("Shutting down MCP HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		if err := t.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown HTTP server: %w", err)
		}
		// Stops the per-session server goroutines as well.
		if t.serverCancel != nil {
			t.serverCancel()
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("HTTP server error: %w", err)
	}
}
