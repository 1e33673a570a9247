package mcp

import (
	"context"
	"fmt"
	"os/exec"

	"mcpdiag/internal/config"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Client wraps the official MCP SDK client and session
type Client struct {
	name    string
	client  *mcp.Client
	session *mcp.ClientSession
	tools   []*mcp.Tool
}

// NewClient connects to the MCP server described by cfg
func NewClient(ctx context.Context, cfg config.MCPServerConfig) (*Client, error) {
	var transport mcp.Transport

	switch cfg.Transport {
	case config.TransportStdio:
		cmd := exec.Command(cfg.Command, cfg.Args...)
		if env := config.ExpandEnvMap(cfg.Env); len(env) > 0 {
			cmd.Env = append(cmd.Environ(), formatEnvVars(env)...)
		}
		transport = &mcp.CommandTransport{Command: cmd}

	case config.TransportHTTP:
		transport = &mcp.StreamableClientTransport{Endpoint: cfg.URL}

	default:
		return nil, fmt.Errorf("unsupported transport: %s", cfg.Transport)
	}

	return Connect(ctx, cfg.Name, transport)
}

// Connect initializes a session over an already built transport
func Connect(ctx context.Context, name string, transport mcp.Transport) (*Client, error) {
	impl := &mcp.Implementation{
		Name:    "mcpdiag-probe",
		Version: "1.0.0",
	}
	client := mcp.NewClient(impl, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MCP server: %w", err)
	}

	// Collect tools from server
	var tools []*mcp.Tool
	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			session.Close()
			return nil, fmt.Errorf("failed to list tools: %w", err)
		}
		tools = append(tools, tool)
	}

	return &Client{
		name:    name,
		client:  client,
		session: session,
		tools:   tools,
	}, nil
}

// formatEnvVars converts env map to KEY=VALUE slice
func formatEnvVars(env map[string]string) []string {
	result := make([]string, 0, len(env))
	for key, value := range env {
		result = append(result, fmt.Sprintf("%s=%s", key, value))
	}
	return result
}

// Name returns the server name
func (c *Client) Name() string {
	return c.name
}

// Tools returns the cached list of tools
func (c *Client) Tools() []*mcp.Tool {
	return c.tools
}

// Tool returns the advertised tool with the given name
func (c *Client) Tool(name string) (*mcp.Tool, bool) {
	for _, t := range c.tools {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// CallTool executes a tool with given arguments
func (c *Client) CallTool(ctx context.Context, toolName string, arguments map[string]any) (*mcp.CallToolResult, error) {
	params := &mcp.CallToolParams{
		Name:      toolName,
		Arguments: arguments,
	}

	result, err := c.session.CallTool(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("call tool request failed: %w", err)
	}

	return result, nil
}

// Close shuts down the client and session
func (c *Client) Close() error {
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}
