package handlers

import (
	"context"

	"mcpdiag/internal/hook"
	"mcpdiag/internal/telemetry"
	"mcpdiag/internal/tool"
)

// InvocationObserver receives one record per finished tool call
type InvocationObserver interface {
	ObserveInvoke(ctx context.Context, inv telemetry.Invocation)
}

// ObserverHandler forwards finished tool calls to a telemetry observer
type ObserverHandler struct {
	observer  InvocationObserver
	transport string
}

// NewObserverHandler creates a handler reporting to observer.
// transport labels every record, e.g. "stdio" or "http".
func NewObserverHandler(observer InvocationObserver, transport string) *ObserverHandler {
	return &ObserverHandler{
		observer:  observer,
		transport: transport,
	}
}

func (h *ObserverHandler) Name() string {
	return "telemetry"
}

func (h *ObserverHandler) Points() []hook.HookPoint {
	return []hook.HookPoint{hook.AfterToolExecution}
}

func (h *ObserverHandler) Priority() int {
	return 0
}

func (h *ObserverHandler) Handle(ctx context.Context, data *hook.HookData) (*hook.Feedback, error) {
	err := data.GetError(hook.KeyError)
	// The call's own context may already be cancelled; the record must still land.
	h.observer.ObserveInvoke(context.WithoutCancel(ctx), telemetry.Invocation{
		ToolName:  data.ToolName,
		CallID:    data.CallID,
		Transport: h.transport,
		Duration:  data.GetDuration(hook.KeyDuration),
		Success:   err == nil,
		ErrorCode: tool.ErrorCode(err),
	})
	return hook.AllowFeedback(), nil
}
