// Package mcp parses MCP command flags and selects stdio or HTTP transport.
package mcp

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/openrechev/openrechev/internal/platform/config"
	"github.com/openrechev/openrechev/internal/platform/otel"
	"github.com/openrechev/openrechev/internal/platform/timeouts"
	mcpapp "github.com/openrechev/openrechev/internal/services/mcp/app"
)

// Config holds MCP command configuration.
type Config struct {
	UpstreamURL     string        `env:"OPENRECHEV_UPSTREAM_URL"`
	ResourceID      string        `env:"OPENRECHEV_RESOURCE_ID"`
	HTTPAddr        string        `env:"OPENRECHEV_MCP_HTTP_ADDR" envDefault:"localhost:8081"`
	Transport       string        `env:"OPENRECHEV_MCP_TRANSPORT" envDefault:"stdio"`
	UpstreamTimeout time.Duration `env:"OPENRECHEV_UPSTREAM_TIMEOUT"`
}

// configEnvKeys lists the environment variables probed through the lookup.
var configEnvKeys = []string{
	"OPENRECHEV_UPSTREAM_URL",
	"OPENRECHEV_RESOURCE_ID",
	"OPENRECHEV_MCP_HTTP_ADDR",
	"OPENRECHEV_MCP_TRANSPORT",
	"OPENRECHEV_UPSTREAM_TIMEOUT",
}

// ParseConfig parses environment and flags into a Config. Environment values
// come from lookup so callers and tests control the source.
func ParseConfig(fs *flag.FlagSet, args []string, lookup func(string) (string, bool)) (Config, error) {
	environment := make(map[string]string, len(configEnvKeys))
	for _, key := range configEnvKeys {
		if value, ok := lookup(key); ok {
			environment[key] = value
		}
	}

	var cfg Config
	if err := config.ParseEnvFrom(&cfg, environment); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.UpstreamURL, "upstream-url", cfg.UpstreamURL, "data portal API base URL")
	fs.StringVar(&cfg.ResourceID, "resource-id", cfg.ResourceID, "vehicle dataset resource ID")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	fs.DurationVar(&cfg.UpstreamTimeout, "timeout", cfg.UpstreamTimeout, "upstream request timeout")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP protocol adapter.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := otel.Setup(ctx, "mcp")
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	return mcpapp.Run(ctx, mcpapp.Config{
		UpstreamURL:     cfg.UpstreamURL,
		ResourceID:      cfg.ResourceID,
		HTTPAddr:        cfg.HTTPAddr,
		Transport:       cfg.Transport,
		UpstreamTimeout: cfg.UpstreamTimeout,
	})
}
