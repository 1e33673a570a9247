package builtin

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"mcpdiag/internal/tool"
)

// newFastTimeoutTool returns a timeout tool whose "second" lasts one millisecond
func newFastTimeoutTool(maxSeconds int64) *TimeoutTool {
	t := NewTimeoutTool(maxSeconds)
	t.unit = time.Millisecond
	return t
}

func TestTimeoutTool_Descriptor(t *testing.T) {
	desc := tool.Describe(NewTimeoutTool(0))

	if desc.Name != "timeout" {
		t.Errorf("Expected name timeout, got %s", desc.Name)
	}
	if desc.Description == "" {
		t.Error("Description should not be empty")
	}
	if desc.InputSchema["type"] != "object" {
		t.Errorf("Expected object schema, got %v", desc.InputSchema["type"])
	}

	props, ok := desc.InputSchema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("properties missing or wrong type: %T", desc.InputSchema["properties"])
	}
	seconds, ok := props["seconds"].(map[string]any)
	if !ok {
		t.Fatalf("seconds property missing: %v", props)
	}
	if seconds["type"] != "integer" {
		t.Errorf("Expected seconds to be integer, got %v", seconds["type"])
	}
	if seconds["description"] == "" {
		t.Error("seconds should be described")
	}
	if _, ok := seconds["maximum"]; ok {
		t.Error("No maximum expected when max seconds is unset")
	}

	required, ok := desc.InputSchema["required"].([]string)
	if !ok || len(required) != 1 || required[0] != "seconds" {
		t.Errorf("Expected required [seconds], got %v", desc.InputSchema["required"])
	}
}

func TestTimeoutTool_DescriptorAdvertisesMaximum(t *testing.T) {
	desc := tool.Describe(NewTimeoutTool(60))

	seconds := desc.InputSchema["properties"].(map[string]any)["seconds"].(map[string]any)
	if seconds["maximum"] != int64(60) {
		t.Errorf("Expected maximum 60, got %v", seconds["maximum"])
	}
}

func TestTimeoutTool_WaitsAndConfirms(t *testing.T) {
	tl := newFastTimeoutTool(0)

	params, _ := json.Marshal(map[string]any{"seconds": 50})

	start := time.Now()
	result, err := tl.Execute(context.Background(), params)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if elapsed < 50*time.Millisecond {
		t.Errorf("Expected to wait at least 50ms, waited %v", elapsed)
	}
	if len(result.Content) != 1 {
		t.Fatalf("Expected exactly one content item, got %d", len(result.Content))
	}
	if result.Content[0].Type != "text" {
		t.Errorf("Expected text content, got %s", result.Content[0].Type)
	}
	if result.Content[0].Text != "waited 50 seconds" {
		t.Errorf("Unexpected text: %s", result.Content[0].Text)
	}
}

func TestTimeoutTool_ZeroSecondsReturnsImmediately(t *testing.T) {
	tl := NewTimeoutTool(0)

	start := time.Now()
	result, err := tl.Execute(context.Background(), []byte(`{"seconds": 0}`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Expected near-immediate return, took %v", elapsed)
	}
	if result.Text() != "waited 0 seconds" {
		t.Errorf("Unexpected text: %s", result.Text())
	}
}

func TestTimeoutTool_MissingSeconds(t *testing.T) {
	// A real-length unit: any wait would blow the test timeout
	tl := NewTimeoutTool(0)
	tl.unit = time.Hour

	for _, params := range []string{`{}`, `{"seconds": null}`, `{"other": 3}`} {
		start := time.Now()
		result, err := tl.Execute(context.Background(), []byte(params))

		if !errors.Is(err, tool.ErrMissingArgument) {
			t.Errorf("%s: expected ErrMissingArgument, got %v", params, err)
		}
		if result != nil {
			t.Errorf("%s: expected no result, got %+v", params, result)
		}
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Errorf("%s: validation should not wait, took %v", params, elapsed)
		}

		var argErr *tool.ArgumentError
		if !errors.As(err, &argErr) || argErr.Argument != "seconds" {
			t.Errorf("%s: expected ArgumentError for seconds, got %v", params, err)
		}
	}
}

func TestTimeoutTool_InvalidSeconds(t *testing.T) {
	tl := newFastTimeoutTool(0)
	tl.unit = time.Hour

	cases := []string{
		`{"seconds": -1}`,
		`{"seconds": 1.5}`,
		`{"seconds": "5"}`,
		`{"seconds": true}`,
		`{"seconds": [1]}`,
		`{"seconds": 1e300}`,
		`[1, 2]`,
		`not json`,
	}

	for _, params := range cases {
		_, err := tl.Execute(context.Background(), []byte(params))
		if !errors.Is(err, tool.ErrInvalidArgument) {
			t.Errorf("%s: expected ErrInvalidArgument, got %v", params, err)
		}
	}
}

func TestTimeoutTool_IntegralFloatAccepted(t *testing.T) {
	tl := newFastTimeoutTool(0)

	result, err := tl.Execute(context.Background(), []byte(`{"seconds": 2.0}`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Text() != "waited 2 seconds" {
		t.Errorf("Unexpected text: %s", result.Text())
	}
}

func TestTimeoutTool_MaxSeconds(t *testing.T) {
	tl := newFastTimeoutTool(10)

	if _, err := tl.Execute(context.Background(), []byte(`{"seconds": 10}`)); err != nil {
		t.Errorf("Expected 10 to be allowed, got %v", err)
	}

	_, err := tl.Execute(context.Background(), []byte(`{"seconds": 11}`))
	if !errors.Is(err, tool.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument above max, got %v", err)
	}
}

func TestTimeoutTool_CancellationPropagates(t *testing.T) {
	tl := NewTimeoutTool(0)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	result, err := tl.Execute(ctx, []byte(`{"seconds": 30}`))
	elapsed := time.Since(start)

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if result != nil {
		t.Errorf("Cancelled call should not produce a result, got %+v", result)
	}
	if elapsed > 5*time.Second {
		t.Errorf("Cancellation should abandon the wait, took %v", elapsed)
	}
}

func TestTimeoutTool_DeadlinePropagates(t *testing.T) {
	tl := NewTimeoutTool(0)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := tl.Execute(ctx, []byte(`{"seconds": 30}`))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected context.DeadlineExceeded, got %v", err)
	}
}

func TestTimeoutTool_ConcurrentCallsIndependent(t *testing.T) {
	tl := newFastTimeoutTool(0)

	var wg sync.WaitGroup
	var shortElapsed, longElapsed time.Duration
	start := time.Now()

	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := tl.Execute(context.Background(), []byte(`{"seconds": 50}`)); err != nil {
			t.Errorf("short call failed: %v", err)
		}
		shortElapsed = time.Since(start)
	}()
	go func() {
		defer wg.Done()
		if _, err := tl.Execute(context.Background(), []byte(`{"seconds": 500}`)); err != nil {
			t.Errorf("long call failed: %v", err)
		}
		longElapsed = time.Since(start)
	}()
	wg.Wait()

	if shortElapsed >= 400*time.Millisecond {
		t.Errorf("Short call was held up by the long one: %v", shortElapsed)
	}
	if longElapsed < 500*time.Millisecond {
		t.Errorf("Long call returned early: %v", longElapsed)
	}
}
