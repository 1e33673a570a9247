package probe

import (
	"context"
	"strings"
	"testing"
	"time"

	"mcpdiag/internal/config"
	"mcpdiag/internal/mcp"
	"mcpdiag/internal/tool"
	"mcpdiag/internal/tool/builtin"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func connectTestServer(t *testing.T, maxSeconds int64) *mcp.Client {
	t.Helper()
	ctx := context.Background()

	registry := tool.NewRegistry()
	if err := registry.Register(builtin.NewTimeoutTool(maxSeconds)); err != nil {
		t.Fatalf("Failed to register timeout tool: %v", err)
	}
	srv, err := mcp.NewServer(config.Default().Server, tool.NewExecutor(registry, nil), nil)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}

	clientTransport, serverTransport := sdk.NewInMemoryTransports()
	serverSession, err := srv.MCPServer().Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server Connect failed: %v", err)
	}
	t.Cleanup(func() { _ = serverSession.Close() })

	client, err := mcp.Connect(ctx, "memory", clientTransport)
	if err != nil {
		t.Fatalf("client Connect failed: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestProbe_Completed(t *testing.T) {
	client := connectTestServer(t, 0)

	report, err := New(nil).Run(context.Background(), client, Options{Seconds: 0, Deadline: 5 * time.Second})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Outcome != OutcomeCompleted {
		t.Fatalf("Expected completed, got %s (%s)", report.Outcome, report.Message)
	}
	if report.Message != "waited 0 seconds" {
		t.Errorf("Unexpected message: %s", report.Message)
	}
	if report.Server != "memory" {
		t.Errorf("Unexpected server: %s", report.Server)
	}
	if !strings.Contains(report.String(), "outcome=completed") {
		t.Errorf("Unexpected report string: %s", report)
	}
}

func TestProbe_DeadlineExceeded(t *testing.T) {
	client := connectTestServer(t, 0)

	report, err := New(nil).Run(context.Background(), client, Options{Seconds: 30, Deadline: 100 * time.Millisecond})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Outcome != OutcomeDeadlineExceeded {
		t.Fatalf("Expected deadline_exceeded, got %s (%s)", report.Outcome, report.Message)
	}
	if report.Elapsed > 5*time.Second {
		t.Errorf("Probe did not give up at the deadline: %v", report.Elapsed)
	}
}

func TestProbe_ToolError(t *testing.T) {
	client := connectTestServer(t, 5)

	report, err := New(nil).Run(context.Background(), client, Options{Seconds: 10})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Outcome != OutcomeToolError && report.Outcome != OutcomeFailed {
		t.Fatalf("Expected the over-limit call to fail, got %s (%s)", report.Outcome, report.Message)
	}
	if !strings.Contains(report.Message, "at most 5") {
		t.Errorf("Expected limit in message, got %s", report.Message)
	}
}

func TestProbe_RejectsNegativeSeconds(t *testing.T) {
	client := connectTestServer(t, 0)

	if _, err := New(nil).Run(context.Background(), client, Options{Seconds: -1}); err == nil {
		t.Error("Expected error for negative seconds")
	}
}

func TestProbe_RunServerUnknownTransport(t *testing.T) {
	_, err := New(nil).RunServer(context.Background(), config.MCPServerConfig{Name: "x", Transport: "smoke"}, Options{})
	if err == nil {
		t.Error("Expected error for unsupported transport")
	}
}
