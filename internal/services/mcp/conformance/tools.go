//go:build conformance

package conformance

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	defaultEchoResponse       = "This is a deterministic echo response for testing."
	errorTextResponse         = "This is an error response for testing."
	errorHandlingResponse     = "This tool intentionally returns an error for testing"
	lookupPromptText          = "Look up the registration record for license plate 4304032."
	staticTextResourceContent = "Static conformance document served without portal access."
	staticTextResourceName    = "test_static_text"
	staticTextResourceURI     = "test://static-text"
)

type textEchoInput struct {
	Text string `json:"text,omitempty" jsonschema:"text to echo back, defaults to a fixed payload"`
}

// Register adds conformance-only MCP fixtures (tools, prompts, resources).
func Register(mcpServer *mcp.Server) {
	if mcpServer == nil {
		return
	}

	mcp.AddTool(mcpServer, textEchoTool(), textEchoHandler())
	mcp.AddTool(mcpServer, errorContentTool(), errorContentHandler())
	mcp.AddTool(mcpServer, errorHandlingTool(), errorHandlingHandler())
	mcpServer.AddPrompt(lookupPrompt(), lookupPromptHandler())
	mcpServer.AddResource(staticTextResource(), staticTextResourceHandler())
}

// textEchoTool defines the MCP conformance tool schema for text echo output.
func textEchoTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "test_text_echo",
		Description: "Conformance tool that echoes text or returns a fixed payload.",
	}
}

// textEchoHandler echoes the input text, falling back to a fixed payload so
// clients can validate both argument delivery and plain text responses.
func textEchoHandler() mcp.ToolHandlerFor[textEchoInput, any] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input textEchoInput) (*mcp.CallToolResult, any, error) {
		text := input.Text
		if text == "" {
			text = defaultEchoResponse
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: text},
			},
		}, nil, nil
	}
}

// errorContentTool defines the MCP conformance tool schema for error responses.
func errorContentTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "test_error_content",
		Description: "Conformance tool that returns an error response.",
	}
}

// errorContentHandler returns a fixed tool error payload for conformance validation.
func errorContentHandler() mcp.ToolHandlerFor[struct{}, any] {
	return func(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: errorTextResponse},
			},
		}, nil, nil
	}
}

// errorHandlingTool defines the MCP conformance tool schema for tool error handling.
func errorHandlingTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "test_error_handling",
		Description: "Conformance tool that always returns a tool error.",
	}
}

// errorHandlingHandler returns a fixed tool error payload for conformance validation.
func errorHandlingHandler() mcp.ToolHandlerFor[struct{}, any] {
	return func(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: errorHandlingResponse},
			},
		}, nil, nil
	}
}

func lookupPrompt() *mcp.Prompt {
	return &mcp.Prompt{
		Name:        "test_lookup_prompt",
		Description: "Conformance prompt that asks for a registry lookup.",
	}
}

func lookupPromptHandler() mcp.PromptHandler {
	return func(_ context.Context, _ *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		return &mcp.GetPromptResult{
			Messages: []*mcp.PromptMessage{
				{
					Role: "user",
					Content: &mcp.TextContent{
						Text: lookupPromptText,
					},
				},
			},
		}, nil
	}
}

// staticTextResource defines the MCP conformance resource schema for static text content.
func staticTextResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        staticTextResourceName,
		Description: "Conformance resource that returns fixed text content.",
		MIMEType:    "text/plain",
		URI:         staticTextResourceURI,
	}
}

// staticTextResourceHandler returns fixed text content for conformance validation.
func staticTextResourceHandler() mcp.ResourceHandler {
	return func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      staticTextResourceURI,
					MIMEType: "text/plain",
					Text:     staticTextResourceContent,
				},
			},
		}, nil
	}
}
