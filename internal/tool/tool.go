package tool

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// Tool defines the interface that all tools must implement
type Tool interface {
	// Name returns the unique identifier for this tool
	Name() string

	// Description returns a brief description of what this tool does
	Description() string

	// Parameters returns the JSON schema for the tool's arguments
	Parameters() map[string]any

	// Execute runs the tool with the given arguments object
	Execute(ctx context.Context, params json.RawMessage) (*Result, error)
}

// ContentTypeText is the only content kind tools produce today
const ContentTypeText = "text"

// Content is one typed item of a tool result
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// TextContent creates a text content item
func TextContent(text string) Content {
	return Content{Type: ContentTypeText, Text: text}
}

// Result is the ordered content produced by a successful invocation
type Result struct {
	Content []Content `json:"content"`
}

// NewTextResult creates a result holding a single text item
func NewTextResult(text string) *Result {
	return &Result{Content: []Content{TextContent(text)}}
}

// Text joins all text items of the result, one per line
func (r *Result) Text() string {
	if r == nil {
		return ""
	}
	parts := make([]string, len(r.Content))
	for i, c := range r.Content {
		parts[i] = c.Text
	}
	return strings.Join(parts, "\n")
}

// Descriptor is what a host sees when it lists tools
type Descriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// Describe builds the descriptor for a tool
func Describe(t Tool) Descriptor {
	return Descriptor{
		Name:        t.Name(),
		Description: t.Description(),
		InputSchema: t.Parameters(),
	}
}

// Call is a single request to run a tool
type Call struct {
	ID     string
	Name   string
	Params json.RawMessage
}

// CallResult records the outcome of one executed call
type CallResult struct {
	ToolName  string
	CallID    string
	Params    json.RawMessage
	Result    *Result
	Err       error
	StartTime time.Time
	EndTime   time.Time
}

// Duration returns how long the call ran
func (c *CallResult) Duration() time.Duration {
	return c.EndTime.Sub(c.StartTime)
}
