package builtin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"mcpdiag/internal/tool"
)

// TimeoutToolName is the name hosts call the timeout tool by
const TimeoutToolName = "timeout"

// TimeoutTool waits for the requested number of seconds and reports back.
// Hosts use it to check how they handle slow tool calls and their own call timeouts.
type TimeoutTool struct {
	maxSeconds int64         // 0 means no upper bound
	unit       time.Duration // length of one "second"; shortened in tests
}

// NewTimeoutTool creates the timeout tool. maxSeconds > 0 rejects longer waits.
func NewTimeoutTool(maxSeconds int64) *TimeoutTool {
	return &TimeoutTool{
		maxSeconds: maxSeconds,
		unit:       time.Second,
	}
}

func (t *TimeoutTool) Name() string {
	return TimeoutToolName
}

func (t *TimeoutTool) Description() string {
	return "Sleep for the given number of seconds, then confirm. Used to test MCP tool call timeouts"
}

func (t *TimeoutTool) Parameters() map[string]any {
	seconds := map[string]any{
		"type":        "integer",
		"description": "How long to sleep, in seconds",
		"minimum":     0,
	}
	if t.maxSeconds > 0 {
		seconds["maximum"] = t.maxSeconds
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"seconds": seconds,
		},
		"required": []string{"seconds"},
	}
}

// timeoutArgs is the typed view of the argument bag; Seconds is nil when absent
type timeoutArgs struct {
	Seconds *int64
}

func (t *TimeoutTool) parseArgs(params json.RawMessage) (*timeoutArgs, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(params, &raw); err != nil {
		return nil, fmt.Errorf("%w: arguments must be a JSON object: %v", tool.ErrInvalidArgument, err)
	}

	value, ok := raw["seconds"]
	if !ok || bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
		return nil, tool.MissingArgument(t.Name(), "seconds")
	}

	seconds, err := decodeInteger(value)
	if err != nil {
		return nil, tool.InvalidArgument(t.Name(), "seconds", "%v", err)
	}

	return &timeoutArgs{Seconds: &seconds}, nil
}

// decodeInteger accepts JSON numbers with no fractional part, so 3 and 3.0 both work
func decodeInteger(value json.RawMessage) (int64, error) {
	dec := json.NewDecoder(bytes.NewReader(value))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, err
	}

	num, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("must be an integer, got %s", bytes.TrimSpace(value))
	}
	if n, err := num.Int64(); err == nil {
		return n, nil
	}

	f, err := num.Float64()
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("must be an integer, got %s", num)
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("out of range: %s", num)
	}
	return int64(f), nil
}

func (t *TimeoutTool) Execute(ctx context.Context, params json.RawMessage) (*tool.Result, error) {
	args, err := t.parseArgs(params)
	if err != nil {
		return nil, err
	}

	seconds := *args.Seconds
	if seconds < 0 {
		return nil, tool.InvalidArgument(t.Name(), "seconds", "must not be negative, got %d", seconds)
	}
	if t.maxSeconds > 0 && seconds > t.maxSeconds {
		return nil, tool.InvalidArgument(t.Name(), "seconds", "must be at most %d, got %d", t.maxSeconds, seconds)
	}
	if seconds > int64(math.MaxInt64/t.unit) {
		return nil, tool.InvalidArgument(t.Name(), "seconds", "too large: %d", seconds)
	}

	if err := sleep(ctx, time.Duration(seconds)*t.unit); err != nil {
		return nil, fmt.Errorf("%s: wait of %d seconds abandoned: %w", t.Name(), seconds, err)
	}

	return tool.NewTextResult(fmt.Sprintf("waited %d seconds", seconds)), nil
}

// sleep blocks for d or until ctx is done, whichever comes first
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
