package mcp

import (
	"context"
	"fmt"
	"time"

	"mcpdiag/internal/config"
	"mcpdiag/internal/logger"
	"mcpdiag/internal/mcp/transport"
	"mcpdiag/internal/tool"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const instructions = "Diagnostic server. Call the timeout tool with a number of seconds to get " +
	"a tool call that takes exactly that long."

// Server publishes the tools of an executor's registry over MCP
type Server struct {
	config   config.ServerConfig
	server   *mcp.Server
	executor *tool.Executor
	log      *logger.Logger
}

// NewServer creates an MCP server and registers every tool known to the executor
func NewServer(cfg config.ServerConfig, executor *tool.Executor, log *logger.Logger) (*Server, error) {
	if log == nil {
		log = logger.Discard()
	}

	impl := &mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}
	server := mcp.NewServer(impl, &mcp.ServerOptions{
		Instructions: instructions,
	})

	tools := executor.Registry().List()
	if len(tools) == 0 {
		return nil, fmt.Errorf("no tools registered")
	}
	for _, t := range tools {
		adapter := NewToolAdapter(t, executor)
		server.AddTool(adapter.MCPTool(), adapter.Handle)
		log.Debug("Registered MCP tool %s", t.Name())
	}

	return &Server{
		config:   cfg,
		server:   server,
		executor: executor,
		log:      log,
	}, nil
}

// Name returns the server name
func (s *Server) Name() string {
	return s.config.Name
}

// MCPServer returns the underlying SDK server
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}

// Serve runs the server on t until ctx is cancelled or the transport ends
func (s *Server) Serve(ctx context.Context, t transport.Transport) error {
	started := time.Now()
	s.log.ServerStart(s.config.Name, t.Name(), s.executor.Registry().Names())

	err := t.Serve(ctx, s.server)

	s.log.ServerStop(s.config.Name, time.Since(started), s.executor.Calls())
	if err != nil {
		return fmt.Errorf("%s transport: %w", t.Name(), err)
	}
	return nil
}
