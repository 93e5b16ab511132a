// Package domain translates MCP tool calls into government registry
// queries.
//
// The package is intentionally explicit about that mapping:
// - validate tool input and translate it into an upstream search query,
// - route the query through a narrow client interface,
// - and normalize the upstream response into shapes MCP clients render.
//
// Query translation and response normalization are pure functions with
// no I/O of their own; everything that can fail upstream is folded into
// the result shape in exactly one place.
package domain
