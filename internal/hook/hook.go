package hook

import (
	"context"
	"time"
)

// HookPoint defines when a hook is triggered
type HookPoint string

const (
	// Tool execution hooks
	BeforeToolExecution HookPoint = "before_tool_execution"
	AfterToolExecution  HookPoint = "after_tool_execution"
)

// Keys used in HookData.Data by the tool executor
const (
	KeyParams   = "params"
	KeyResult   = "result"
	KeyError    = "error"
	KeyDuration = "duration"
)

// HookData carries context-specific information for hooks
type HookData struct {
	Point     HookPoint
	Timestamp time.Time
	ToolName  string
	CallID    string
	Data      map[string]any
}

// NewHookData creates a new HookData instance
func NewHookData(point HookPoint, toolName string) *HookData {
	return &HookData{
		Point:     point,
		Timestamp: time.Now(),
		ToolName:  toolName,
		Data:      make(map[string]any),
	}
}

// WithCallID sets the call id the hook fires for
func (d *HookData) WithCallID(id string) *HookData {
	d.CallID = id
	return d
}

// Set sets a data field
func (d *HookData) Set(key string, value any) *HookData {
	d.Data[key] = value
	return d
}

// Get retrieves a data field
func (d *HookData) Get(key string) any {
	return d.Data[key]
}

// GetString retrieves a string data field
func (d *HookData) GetString(key string) string {
	if v, ok := d.Data[key].(string); ok {
		return v
	}
	return ""
}

// GetDuration retrieves a duration data field
func (d *HookData) GetDuration(key string) time.Duration {
	if v, ok := d.Data[key].(time.Duration); ok {
		return v
	}
	return 0
}

// GetError retrieves an error data field
func (d *HookData) GetError(key string) error {
	if v, ok := d.Data[key].(error); ok {
		return v
	}
	return nil
}

// Feedback is returned by handlers to control execution flow
type Feedback struct {
	Allow   bool   // Whether to allow the operation to continue
	Message string // Optional reason, reported to the caller on deny
}

// AllowFeedback creates an allow feedback
func AllowFeedback() *Feedback {
	return &Feedback{Allow: true}
}

// DenyFeedback creates a deny feedback with message
func DenyFeedback(message string) *Feedback {
	return &Feedback{Allow: false, Message: message}
}

// Handler is the interface for hook handlers
type Handler interface {
	// Name returns the handler name
	Name() string

	// Points returns which hook points this handler listens to
	Points() []HookPoint

	// Handle processes the hook event and returns feedback
	Handle(ctx context.Context, data *HookData) (*Feedback, error)

	// Priority returns the handler priority (higher = earlier execution)
	Priority() int
}
