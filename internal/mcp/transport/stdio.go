package transport

import (
	"context"
	"errors"
	"io"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// StdioTransport serves a single host over the process's stdin/stdout.
// Nothing else may write to stdout while it runs.
type StdioTransport struct{}

// NewStdioTransport creates a new stdio transport
func NewStdioTransport() *StdioTransport {
	return &StdioTransport{}
}

func (t *StdioTransport) Name() string {
	return "stdio"
}

// Serve runs until the host closes stdin or ctx is cancelled
func (t *StdioTransport) Serve(ctx context.Context, server *mcp.Server) error {
	err := server.Run(ctx, &mcp.StdioTransport{})
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return nil
	}
	return err
}
