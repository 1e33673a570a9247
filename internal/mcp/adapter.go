package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"mcpdiag/internal/tool"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolAdapter exposes a local Tool as an MCP server tool.
// Calls go through the executor so hooks, logging and telemetry apply.
type ToolAdapter struct {
	tool     tool.Tool
	executor *tool.Executor
}

// NewToolAdapter creates an adapter for a registered tool
func NewToolAdapter(t tool.Tool, executor *tool.Executor) *ToolAdapter {
	return &ToolAdapter{
		tool:     t,
		executor: executor,
	}
}

// MCPTool returns the MCP view of the tool's descriptor
func (a *ToolAdapter) MCPTool() *mcp.Tool {
	desc := tool.Describe(a.tool)
	return &mcp.Tool{
		Name:        desc.Name,
		Description: desc.Description,
		InputSchema: desc.InputSchema,
	}
}

// Handle is the MCP tool handler.
// Caller mistakes (missing or invalid arguments, denied calls) come back as an
// error result the host can show; cancellation and server faults are returned as errors.
func (a *ToolAdapter) Handle(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args json.RawMessage
	if req.Params != nil {
		args = req.Params.Arguments
	}

	res, err := a.executor.Execute(ctx, &tool.Call{
		Name:   a.tool.Name(),
		Params: args,
	})
	if err != nil {
		if tool.IsCallerError(err) {
			return errorResult(err), nil
		}
		return nil, err
	}

	return &mcp.CallToolResult{
		Content: toMCPContent(res.Result.Content),
	}, nil
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}

// toMCPContent converts local result items into MCP content, preserving order
func toMCPContent(items []tool.Content) []mcp.Content {
	content := make([]mcp.Content, 0, len(items))
	for _, item := range items {
		switch item.Type {
		case tool.ContentTypeText:
			content = append(content, &mcp.TextContent{Text: item.Text})
		default:
			// Unknown kinds degrade to text so the host still sees something
			content = append(content, &mcp.TextContent{Text: fmt.Sprintf("[%s] %s", item.Type, item.Text)})
		}
	}
	return content
}

// FormatContent converts an MCP content array to a string
func FormatContent(content []mcp.Content) string {
	var parts []string

	for _, item := range content {
		// Use type assertion to check content type
		switch c := item.(type) {
		case *mcp.TextContent:
			parts = append(parts, c.Text)

		case *mcp.ImageContent:
			parts = append(parts, fmt.Sprintf("[Image: %s]", c.MIMEType))

		case *mcp.AudioContent:
			parts = append(parts, fmt.Sprintf("[Audio: %s]", c.MIMEType))

		default:
			// Unknown content type - try to marshal to JSON
			data, err := json.Marshal(item)
			if err != nil {
				parts = append(parts, fmt.Sprintf("[Unknown content type: %T]", item))
			} else {
				parts = append(parts, string(data))
			}
		}
	}

	return strings.Join(parts, "\n")
}
