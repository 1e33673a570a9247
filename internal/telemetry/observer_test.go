package telemetry

import (
	"context"
	"testing"
	"time"

	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

func newTestMeter() (*metric.ManualReader, *metric.MeterProvider) {
	reader := metric.NewManualReader()
	mp := metric.NewMeterProvider(metric.WithReader(reader))
	return reader, mp
}

func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, scope := range rm.ScopeMetrics {
		for i := range scope.Metrics {
			if scope.Metrics[i].Name == name {
				return &scope.Metrics[i]
			}
		}
	}
	return nil
}

func TestObserver_RecordsMetrics(t *testing.T) {
	reader, mp := newTestMeter()
	observer, err := NewObserver(mp.Meter("test"), noop.NewTracerProvider().Tracer("test"))
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}

	observer.ObserveInvoke(context.Background(), Invocation{
		ToolName: "timeout",
		CallID:   "call-1",
		Duration: 1500 * time.Millisecond,
		Success:  true,
	})
	observer.ObserveInvoke(context.Background(), Invocation{
		ToolName:  "timeout",
		CallID:    "call-2",
		Success:   false,
		ErrorCode: "missing_argument",
	})

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}

	invocations := findMetric(&rm, "mcpdiag.tool.invocations")
	if invocations == nil {
		t.Fatal("mcpdiag.tool.invocations metric not found")
	}
	sum, ok := invocations.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("mcpdiag.tool.invocations type = %T, want Sum[int64]", invocations.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	if total != 2 {
		t.Errorf("invocations total = %d, want 2", total)
	}

	latency := findMetric(&rm, "mcpdiag.tool.latency")
	if latency == nil {
		t.Fatal("mcpdiag.tool.latency metric not found")
	}
	if _, ok := latency.Data.(metricdata.Histogram[float64]); !ok {
		t.Fatalf("mcpdiag.tool.latency type = %T, want Histogram[float64]", latency.Data)
	}
}

func TestObserver_RecordsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	_, mp := newTestMeter()

	observer, err := NewObserver(mp.Meter("test"), tp.Tracer("test"))
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}

	observer.ObserveInvoke(context.Background(), Invocation{
		ToolName:  "timeout",
		CallID:    "call-1",
		Duration:  time.Second,
		Success:   false,
		ErrorCode: "cancelled",
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name != "tool.invoke" {
		t.Errorf("span name = %q, want tool.invoke", span.Name)
	}
	if span.Status.Code != otelcodes.Error {
		t.Errorf("span status = %v, want Error", span.Status.Code)
	}
	if got := span.EndTime.Sub(span.StartTime); got != time.Second {
		t.Errorf("span duration = %v, want 1s", got)
	}
}

func TestObserver_NilIsNoop(t *testing.T) {
	var observer *Observer
	observer.ObserveInvoke(context.Background(), Invocation{ToolName: "timeout"})
}
