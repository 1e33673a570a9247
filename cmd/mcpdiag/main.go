package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mcpdiag/internal/config"
	"mcpdiag/internal/hook"
	"mcpdiag/internal/hook/handlers"
	"mcpdiag/internal/logger"
	"mcpdiag/internal/mcp"
	"mcpdiag/internal/mcp/transport"
	"mcpdiag/internal/probe"
	"mcpdiag/internal/telemetry"
	"mcpdiag/internal/tool"
	"mcpdiag/internal/tool/builtin"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	noColor    bool

	transportName string
	listenAddr    string

	callArgs []string

	probeSeconds  int64
	probeDeadline time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "mcpdiag",
		Short:         "Diagnostic MCP server",
		Long:          "An MCP server exposing a timeout tool for testing how hosts handle slow tool calls",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: search ./mcpdiag.yaml, ~/.config/mcpdiag, /etc/mcpdiag)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose output (debug mode)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&transportName, "transport", "", "Transport: stdio or http (overrides config)")
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "Listen address for http (overrides config)")

	toolsCmd := &cobra.Command{
		Use:   "tools",
		Short: "Print the tool descriptors as JSON",
		Args:  cobra.NoArgs,
		RunE:  runTools,
	}

	callCmd := &cobra.Command{
		Use:   "call [tool]",
		Short: "Run a tool locally; repeat --args to run calls concurrently",
		Args:  cobra.ExactArgs(1),
		RunE:  runCall,
	}
	callCmd.Flags().StringArrayVar(&callArgs, "args", nil, "Tool arguments as a JSON object")

	probeCmd := &cobra.Command{
		Use:   "probe [server]",
		Short: "Call the timeout tool on a configured MCP server and report the outcome",
		Args:  cobra.ExactArgs(1),
		RunE:  runProbe,
	}
	probeCmd.Flags().Int64Var(&probeSeconds, "seconds", 1, "Seconds the server should wait")
	probeCmd.Flags().DurationVar(&probeDeadline, "deadline", 0, "Client-side deadline for the call (0 = none)")

	rootCmd.AddCommand(serveCmd, toolsCmd, callCmd, probeCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	return config.LoadWithDefaults()
}

// newLogger writes to stderr; stdout belongs to the stdio transport and command output
func newLogger(cfg *config.Config) *logger.Logger {
	level, _ := logger.ParseLevel(cfg.Log.Level)
	if verbose {
		level = logger.LevelDebug
	}
	log := logger.NewLogger(os.Stderr, level)
	if noColor || cfg.Log.NoColor {
		log.SetColorMode(false)
	}
	return log
}

// newExecutor registers the built-in tools and the configured hooks
func newExecutor(cfg *config.Config, log *logger.Logger, transportLabel string) (*tool.Executor, error) {
	registry := tool.NewRegistry()
	if err := registry.Register(builtin.NewTimeoutTool(cfg.Tools.Timeout.MaxSeconds)); err != nil {
		return nil, err
	}

	executor := tool.NewExecutor(registry, log)

	hooks := hook.NewManager()
	if len(cfg.Hooks.DenyTools) > 0 {
		hooks.Register(handlers.NewDenyToolsHandler(cfg.Hooks.DenyTools))
		log.Debug("Denying tools: %v", cfg.Hooks.DenyTools)
	}
	if cfg.Telemetry.Enabled {
		observer, err := telemetry.NewGlobalObserver()
		if err != nil {
			return nil, fmt.Errorf("failed to create telemetry observer: %w", err)
		}
		hooks.Register(handlers.NewObserverHandler(observer, transportLabel))
		log.Debug("Telemetry enabled")
	}
	executor.SetHookManager(hooks)

	return executor, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if transportName != "" {
		cfg.Server.Transport = transportName
	}
	if listenAddr != "" {
		cfg.Server.Addr = listenAddr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log := newLogger(cfg)

	executor, err := newExecutor(cfg, log, cfg.Server.Transport)
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(cfg.Server, executor, log)
	if err != nil {
		return err
	}

	t, err := transport.New(cfg.Server, log)
	if err != nil {
		return err
	}
	if cfg.Server.Transport == config.TransportHTTP && cfg.Server.Token == "" {
		log.Warn("server.token not set; the MCP endpoint is open")
	}

	ctx, stop := signalContext()
	defer stop()

	return server.Serve(ctx, t)
}

func runTools(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	executor, err := newExecutor(cfg, newLogger(cfg), "local")
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(executor.Registry().Descriptors())
}

func runCall(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	executor, err := newExecutor(cfg, log, "local")
	if err != nil {
		return err
	}

	if len(callArgs) == 0 {
		callArgs = []string{"{}"}
	}
	calls := make([]*tool.Call, len(callArgs))
	for i, raw := range callArgs {
		if !json.Valid([]byte(raw)) {
			return fmt.Errorf("--args #%d is not valid JSON: %s", i+1, raw)
		}
		calls[i] = &tool.Call{Name: args[0], Params: json.RawMessage(raw)}
	}

	ctx, stop := signalContext()
	defer stop()

	failed := 0
	for _, res := range executor.ExecuteParallel(ctx, calls) {
		if res.Err != nil {
			failed++
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] error after %s: %v\n", res.CallID, res.Duration().Round(time.Millisecond), res.Err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s (%s)\n", res.CallID, res.Result.Text(), res.Duration().Round(time.Millisecond))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d calls failed", failed, len(calls))
	}
	return nil
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	target, err := cfg.ProbeServer(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	report, err := probe.New(log).RunServer(ctx, target, probe.Options{
		Seconds:  probeSeconds,
		Deadline: probeDeadline,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), report)
	if report.Outcome == probe.OutcomeFailed {
		return fmt.Errorf("probe failed: %s", report.Message)
	}
	return nil
}
