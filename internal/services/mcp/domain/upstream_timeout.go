package domain

import "time"

// upstreamCallTimeout caps the time for a single registry API call from an
// MCP tool or resource handler. It must cover the client's bounded retries
// of transient failures, so it is wider than one request timeout.
const upstreamCallTimeout = 35 * time.Second
