package tool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"mcpdiag/internal/hook"
	"mcpdiag/internal/logger"

	"github.com/google/uuid"
)

// Executor runs tool calls against a registry, firing hooks and logging around each call.
// Calls share nothing but the registry, so any number may run at once.
type Executor struct {
	registry    *Registry
	hookManager *hook.Manager
	log         *logger.Logger
	calls       atomic.Int64
}

func NewExecutor(registry *Registry, log *logger.Logger) *Executor {
	if log == nil {
		log = logger.Discard()
	}
	return &Executor{
		registry: registry,
		log:      log,
	}
}

// SetHookManager sets the hook manager for tool execution hooks
func (e *Executor) SetHookManager(manager *hook.Manager) {
	e.hookManager = manager
}

// Registry returns the registry calls are resolved against
func (e *Executor) Registry() *Registry {
	return e.registry
}

// Calls returns how many calls have been started
func (e *Executor) Calls() int64 {
	return e.calls.Load()
}

// Execute runs a single call. The returned error is the same as CallResult.Err.
func (e *Executor) Execute(ctx context.Context, call *Call) (*CallResult, error) {
	res := e.executeOne(ctx, call)
	return res, res.Err
}

// ExecuteParallel runs all calls concurrently and returns results in input order.
// A failing call does not affect the others; inspect each CallResult.Err.
func (e *Executor) ExecuteParallel(ctx context.Context, calls []*Call) []*CallResult {
	results := make([]*CallResult, len(calls))

	var wg sync.WaitGroup
	for i, c := range calls {
		wg.Add(1)
		go func(idx int, call *Call) {
			defer wg.Done()
			results[idx] = e.executeOne(ctx, call)
		}(i, c)
	}

	wg.Wait()
	return results
}

func (e *Executor) executeOne(ctx context.Context, call *Call) *CallResult {
	e.calls.Add(1)

	if call.ID == "" {
		call.ID = uuid.New().String()
	}

	res := &CallResult{
		ToolName:  call.Name,
		CallID:    call.ID,
		Params:    call.Params,
		StartTime: time.Now(),
	}

	e.log.ToolCall(call.Name, call.ID, string(call.Params))

	res.Result, res.Err = e.run(ctx, call)
	res.EndTime = time.Now()

	// After hooks don't block, just trigger
	if e.hookManager != nil {
		hookData := hook.NewHookData(hook.AfterToolExecution, call.Name).
			WithCallID(call.ID).
			Set(hook.KeyParams, string(call.Params)).
			Set(hook.KeyResult, res.Result).
			Set(hook.KeyDuration, res.Duration())
		if res.Err != nil {
			hookData.Set(hook.KeyError, res.Err)
		}
		if _, err := e.hookManager.Trigger(ctx, hookData); err != nil {
			e.log.Warn("after hook for %s failed: %v", call.Name, err)
		}
	}

	if res.Err != nil {
		e.log.ToolResult(call.Name, false, res.Err.Error(), res.Duration())
	} else {
		e.log.ToolResult(call.Name, true, res.Result.Text(), res.Duration())
	}

	return res
}

func (e *Executor) run(ctx context.Context, call *Call) (*Result, error) {
	t, err := e.registry.Get(call.Name)
	if err != nil {
		return nil, err
	}

	// Trigger before tool execution hook
	if e.hookManager != nil {
		hookData := hook.NewHookData(hook.BeforeToolExecution, call.Name).
			WithCallID(call.ID).
			Set(hook.KeyParams, string(call.Params))

		feedback, err := e.hookManager.Trigger(ctx, hookData)
		if err != nil {
			return nil, fmt.Errorf("hook error: %w", err)
		}

		if !feedback.Allow {
			return nil, fmt.Errorf("%w: %s", ErrDenied, feedback.Message)
		}
	}

	params := call.Params
	if len(params) == 0 {
		params = []byte("{}")
	}

	result, err := t.Execute(ctx, params)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = &Result{}
	}
	return result, nil
}
