package handlers

import (
	"context"
	"fmt"

	"mcpdiag/internal/hook"
)

// DenyToolsHandler refuses calls to tools an operator has switched off
type DenyToolsHandler struct {
	denied map[string]bool
}

// NewDenyToolsHandler creates a handler denying the named tools
func NewDenyToolsHandler(tools []string) *DenyToolsHandler {
	denied := make(map[string]bool, len(tools))
	for _, name := range tools {
		denied[name] = true
	}
	return &DenyToolsHandler{denied: denied}
}

func (h *DenyToolsHandler) Name() string {
	return "deny_tools"
}

func (h *DenyToolsHandler) Points() []hook.HookPoint {
	return []hook.HookPoint{hook.BeforeToolExecution}
}

func (h *DenyToolsHandler) Priority() int {
	return 100 // High priority - runs first
}

func (h *DenyToolsHandler) Handle(ctx context.Context, data *hook.HookData) (*hook.Feedback, error) {
	if h.denied[data.ToolName] {
		return hook.DenyFeedback(fmt.Sprintf("tool %s is disabled by configuration", data.ToolName)), nil
	}
	return hook.AllowFeedback(), nil
}
