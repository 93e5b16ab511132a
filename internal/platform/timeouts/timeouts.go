// Package timeouts defines shared timeout constants used across the
// service. Centralizing these values prevents drift between layers and
// makes the durations discoverable.
package timeouts

import "time"

// UpstreamRequest caps a single HTTP request to the government registry
// API, including connection setup and body read.
const UpstreamRequest = 10 * time.Second

// ReadHeader limits how long the HTTP transport waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long cleanup tasks may run when the process exits.
const Shutdown = 5 * time.Second
