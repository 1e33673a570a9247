package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mcpdiag/internal/logger"

	"gopkg.in/yaml.v3"
)

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config represents the complete mcpdiag configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Tools     ToolsConfig     `yaml:"tools"`
	Hooks     HooksConfig     `yaml:"hooks"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Probe     ProbeConfig     `yaml:"probe"`
}

// ServerConfig controls how the MCP server is exposed
type ServerConfig struct {
	Name      string `yaml:"name"`      // Implementation name reported to clients
	Version   string `yaml:"version"`   // Implementation version reported to clients
	Transport string `yaml:"transport"` // "stdio" or "http"
	Addr      string `yaml:"addr"`      // Listen address for http
	Path      string `yaml:"path"`      // Mount point of the MCP endpoint for http
	Token     string `yaml:"token"`     // Optional bearer token for http, supports ${VAR}
}

// ToolsConfig contains per-tool settings
type ToolsConfig struct {
	Timeout TimeoutToolConfig `yaml:"timeout"`
}

// TimeoutToolConfig configures the timeout tool
type TimeoutToolConfig struct {
	// MaxSeconds rejects longer waits; 0 means unlimited
	MaxSeconds int64 `yaml:"max_seconds"`
}

// HooksConfig contains hook-related settings
type HooksConfig struct {
	// DenyTools lists tools that are advertised but refuse every call
	DenyTools []string `yaml:"deny_tools"`
}

// LogConfig controls the server logger
type LogConfig struct {
	Level   string `yaml:"level"`
	NoColor bool   `yaml:"no_color"`
}

// TelemetryConfig toggles OpenTelemetry instrumentation
type TelemetryConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ProbeConfig lists MCP servers the probe command can target
type ProbeConfig struct {
	Servers []MCPServerConfig `yaml:"servers"`
}

// MCPServerConfig defines a single MCP server to connect to
type MCPServerConfig struct {
	Name      string            `yaml:"name"`      // Unique server identifier
	Transport string            `yaml:"transport"` // "stdio" or "http"
	Command   string            `yaml:"command"`   // Executable to run (stdio)
	Args      []string          `yaml:"args"`      // Command arguments (stdio)
	Env       map[string]string `yaml:"env"`       // Environment variables with ${VAR} support (stdio)
	URL       string            `yaml:"url"`       // Streamable HTTP endpoint (http)
	Disabled  bool              `yaml:"disabled"`  // Skip this server if true
}

// Default returns the configuration used when no file is found
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Name:      "mcpdiag",
			Version:   "1.0.0",
			Transport: TransportStdio,
			Addr:      ":8080",
			Path:      "/mcp",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads and parses the YAML config file on top of the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse parses YAML config bytes on top of the defaults
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	// An unset token variable would silently leave the endpoint open
	if missing := UnsetEnv(cfg.Server.Token); len(missing) > 0 {
		return nil, fmt.Errorf("server.token references unset environment variables: %s", strings.Join(missing, ", "))
	}
	cfg.Server.Token = ExpandEnv(cfg.Server.Token)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads config with fallback to default locations
// Checks: ./mcpdiag.yaml, ./configs/mcpdiag.yaml, ~/.config/mcpdiag/mcpdiag.yaml, /etc/mcpdiag/mcpdiag.yaml
func LoadWithDefaults() (*Config, error) {
	// Try config locations in order
	locations := []string{
		"./mcpdiag.yaml",
		"./configs/mcpdiag.yaml",
	}

	// Add user config directory if available
	if home, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(home, ".config", "mcpdiag", "mcpdiag.yaml"))
	}

	// Add system-wide config
	locations = append(locations, "/etc/mcpdiag/mcpdiag.yaml")

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return Load(loc)
		}
	}

	// No config found - defaults (not an error)
	return Default(), nil
}

// Validate checks config correctness
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	if c.Tools.Timeout.MaxSeconds < 0 {
		return fmt.Errorf("tools.timeout.max_seconds cannot be negative")
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log: %w", err)
	}

	// Check for duplicate server names
	names := make(map[string]bool)
	for i, server := range c.Probe.Servers {
		if server.Name == "" {
			return fmt.Errorf("probe server #%d: name cannot be empty", i+1)
		}

		if names[server.Name] {
			return fmt.Errorf("duplicate probe server name: %s", server.Name)
		}
		names[server.Name] = true

		if err := server.Validate(); err != nil {
			return fmt.Errorf("probe server %s: %w", server.Name, err)
		}
	}

	return nil
}

// Validate checks the server section
func (s *ServerConfig) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	switch s.Transport {
	case TransportStdio:
	case TransportHTTP:
		if s.Addr == "" {
			return fmt.Errorf("addr is required for http transport")
		}
		if !strings.HasPrefix(s.Path, "/") {
			return fmt.Errorf("path must start with '/', got %q", s.Path)
		}
	default:
		return fmt.Errorf("unsupported transport: %s (use 'stdio' or 'http')", s.Transport)
	}

	return nil
}

// Validate checks a single probe target
func (s *MCPServerConfig) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	// Names show up in CLI arguments and log lines
	for _, ch := range s.Name {
		if !((ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '_' || ch == '-') {
			return fmt.Errorf("server name '%s' contains invalid character '%c' (only alphanumeric, underscore, and hyphen allowed)", s.Name, ch)
		}
	}

	switch s.Transport {
	case TransportStdio:
		if s.Command == "" {
			return fmt.Errorf("command is required")
		}
	case TransportHTTP:
		if s.URL == "" {
			return fmt.Errorf("url is required")
		}
	case "":
		return fmt.Errorf("transport is required")
	default:
		return fmt.Errorf("unsupported transport: %s (use 'stdio' or 'http')", s.Transport)
	}

	return nil
}

// ProbeServer returns the enabled probe target with the given name
func (c *Config) ProbeServer(name string) (MCPServerConfig, error) {
	for _, s := range c.Probe.Servers {
		if s.Name != name {
			continue
		}
		if s.Disabled {
			return MCPServerConfig{}, fmt.Errorf("probe server %s is disabled", name)
		}
		return s, nil
	}
	return MCPServerConfig{}, fmt.Errorf("probe server %s not configured", name)
}
