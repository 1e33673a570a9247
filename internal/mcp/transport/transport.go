// Package transport carries an MCP server over stdio or streamable HTTP.
package transport

import (
	"context"
	"fmt"

	"mcpdiag/internal/config"
	"mcpdiag/internal/logger"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Transport defines how an MCP server is exposed to hosts
type Transport interface {
	// Name returns the transport kind, e.g. "stdio"
	Name() string

	// Serve blocks until ctx is cancelled or the peer goes away.
	// A shutdown caused by ctx is not an error.
	Serve(ctx context.Context, server *mcp.Server) error
}

// New builds the transport selected by the server config
func New(cfg config.ServerConfig, log *logger.Logger) (Transport, error) {
	switch cfg.Transport {
	case config.TransportStdio:
		return NewStdioTransport(), nil
	case config.TransportHTTP:
		return NewHTTPTransport(cfg.Addr, cfg.Path, cfg.Token, log), nil
	default:
		return nil, fmt.Errorf("unsupported transport: %s", cfg.Transport)
	}
}
