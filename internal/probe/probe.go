// Package probe drives a server's timeout tool and reports how the call ended.
package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mcpdiag/internal/config"
	"mcpdiag/internal/logger"
	"mcpdiag/internal/mcp"
	"mcpdiag/internal/tool/builtin"
)

// Outcome classifies how a probe call ended
type Outcome string

const (
	OutcomeCompleted        Outcome = "completed"
	OutcomeToolError        Outcome = "tool_error"
	OutcomeDeadlineExceeded Outcome = "deadline_exceeded"
	OutcomeFailed           Outcome = "failed"
)

// Options controls a single probe
type Options struct {
	Seconds  int64         // passed to the timeout tool
	Deadline time.Duration // client-side deadline for the call; 0 waits forever
}

// Report describes one probe run
type Report struct {
	Server   string        `json:"server"`
	Seconds  int64         `json:"seconds"`
	Deadline time.Duration `json:"deadline"`
	Elapsed  time.Duration `json:"elapsed"`
	Outcome  Outcome       `json:"outcome"`
	Message  string        `json:"message"`
}

func (r *Report) String() string {
	deadline := "none"
	if r.Deadline > 0 {
		deadline = r.Deadline.String()
	}
	return fmt.Sprintf("server=%s seconds=%d deadline=%s elapsed=%s outcome=%s message=%q",
		r.Server, r.Seconds, deadline, r.Elapsed.Round(time.Millisecond), r.Outcome, r.Message)
}

// Prober runs probes against MCP servers
type Prober struct {
	log *logger.Logger
}

// New creates a prober
func New(log *logger.Logger) *Prober {
	if log == nil {
		log = logger.Discard()
	}
	return &Prober{log: log}
}

// RunServer connects to the configured server, probes it and disconnects
func (p *Prober) RunServer(ctx context.Context, cfg config.MCPServerConfig, opts Options) (*Report, error) {
	p.log.Debug("Connecting to %s over %s", cfg.Name, cfg.Transport)

	client, err := mcp.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("server %s: %w", cfg.Name, err)
	}
	defer client.Close()

	return p.Run(ctx, client, opts)
}

// Run calls the timeout tool over an open client.
// Errors are returned only when the probe could not be attempted; call failures land in the report.
func (p *Prober) Run(ctx context.Context, client *mcp.Client, opts Options) (*Report, error) {
	if opts.Seconds < 0 {
		return nil, fmt.Errorf("seconds cannot be negative")
	}
	if _, ok := client.Tool(builtin.TimeoutToolName); !ok {
		return nil, fmt.Errorf("server %s does not advertise the %s tool", client.Name(), builtin.TimeoutToolName)
	}

	callCtx := ctx
	if opts.Deadline > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, opts.Deadline)
		defer cancel()
	}

	report := &Report{
		Server:   client.Name(),
		Seconds:  opts.Seconds,
		Deadline: opts.Deadline,
	}

	p.log.Info("Calling %s on %s with seconds=%d", builtin.TimeoutToolName, client.Name(), opts.Seconds)
	start := time.Now()
	res, err := client.CallTool(callCtx, builtin.TimeoutToolName, map[string]any{"seconds": opts.Seconds})
	report.Elapsed = time.Since(start)

	switch {
	case err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		report.Outcome = OutcomeDeadlineExceeded
		report.Message = fmt.Sprintf("no response within %s", opts.Deadline)
	case err != nil:
		report.Outcome = OutcomeFailed
		report.Message = err.Error()
	case res.IsError:
		report.Outcome = OutcomeToolError
		report.Message = mcp.FormatContent(res.Content)
	default:
		report.Outcome = OutcomeCompleted
		report.Message = mcp.FormatContent(res.Content)
	}

	p.log.Debug("Probe finished: %s", report)
	return report, nil
}
