// Package app composes the MCP service from process-level configuration.
package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/openrechev/openrechev/internal/platform/config"
	"github.com/openrechev/openrechev/internal/services/mcp/service"
)

// Config holds the process-level settings for the MCP app.
type Config struct {
	// UpstreamURL is the data portal API base URL. Empty selects the
	// public portal.
	UpstreamURL string
	// ResourceID selects the vehicle dataset. Empty selects the
	// published registry resource.
	ResourceID string
	// HTTPAddr is the HTTP transport bind address.
	HTTPAddr string
	// Transport is "stdio" or "http". Empty selects stdio.
	Transport string
	// UpstreamTimeout caps a single upstream request attempt.
	UpstreamTimeout time.Duration
}

// tlsEnv holds env-parsed TLS material paths for the HTTP transport.
type tlsEnv struct {
	CertFile string `env:"OPENRECHEV_MCP_TLS_CERT"`
	KeyFile  string `env:"OPENRECHEV_MCP_TLS_KEY"`
}

// Run starts the MCP app with the provided upstream and transport settings.
func Run(ctx context.Context, cfg Config) error {
	var transportKind service.TransportKind
	switch cfg.Transport {
	case "http":
		transportKind = service.TransportHTTP
	case "stdio", "":
		transportKind = service.TransportStdio
	default:
		return fmt.Errorf("invalid transport %q: must be 'stdio' or 'http'", cfg.Transport)
	}

	tlsConfig, err := loadTLSFromEnv()
	if err != nil {
		return err
	}

	return service.Run(ctx, service.Config{
		UpstreamURL:     cfg.UpstreamURL,
		ResourceID:      cfg.ResourceID,
		UpstreamTimeout: cfg.UpstreamTimeout,
		Transport:       transportKind,
		HTTPAddr:        cfg.HTTPAddr,
		TLSConfig:       tlsConfig,
	})
}

// loadTLSFromEnv builds a TLS config when certificate material is configured.
// Setting only one of the cert/key pair is a configuration error, not a
// silent fallback to plain HTTP.
func loadTLSFromEnv() (*tls.Config, error) {
	var raw tlsEnv
	if err := config.ParseEnv(&raw); err != nil {
		return nil, err
	}
	if raw.CertFile == "" && raw.KeyFile == "" {
		return nil, nil
	}
	if raw.CertFile == "" || raw.KeyFile == "" {
		return nil, fmt.Errorf("TLS requires both OPENRECHEV_MCP_TLS_CERT and OPENRECHEV_MCP_TLS_KEY")
	}
	cert, err := tls.LoadX509KeyPair(raw.CertFile, raw.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load TLS key pair: %w", err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
