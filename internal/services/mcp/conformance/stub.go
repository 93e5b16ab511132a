//go:build !conformance

package conformance

import "github.com/modelcontextprotocol/go-sdk/mcp"

// Register is a no-op in regular builds. Conformance fixtures are only
// compiled in when the "conformance" build tag is set.
func Register(*mcp.Server) {}
