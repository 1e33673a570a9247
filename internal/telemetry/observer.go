// Package telemetry records tool invocations as OpenTelemetry metrics and spans.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName scopes the meter and tracer used by mcpdiag.
const InstrumentationName = "mcpdiag"

// Invocation describes one finished tool call.
type Invocation struct {
	ToolName  string
	CallID    string
	Transport string
	Duration  time.Duration
	Success   bool
	ErrorCode string
}

// Observer records tool invocations into OpenTelemetry.
type Observer struct {
	tracer trace.Tracer

	invocations metric.Int64Counter
	latency     metric.Float64Histogram
}

// NewObserver creates an observer bound to the provided meter/tracer.
func NewObserver(meter metric.Meter, tracer trace.Tracer) (*Observer, error) {
	invocations, err := meter.Int64Counter(
		"mcpdiag.tool.invocations",
		metric.WithDescription("Number of tool invocations"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram(
		"mcpdiag.tool.latency",
		metric.WithDescription("Tool latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Observer{
		tracer:      tracer,
		invocations: invocations,
		latency:     latency,
	}, nil
}

// NewGlobalObserver creates an observer from the globally registered providers.
// Without an SDK installed the globals are no-ops.
func NewGlobalObserver() (*Observer, error) {
	return NewObserver(otel.Meter(InstrumentationName), otel.Tracer(InstrumentationName))
}

// ObserveInvoke records one invocation result.
func (o *Observer) ObserveInvoke(ctx context.Context, inv Invocation) {
	if o == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("tool_name", inv.ToolName),
		attribute.Bool("success", inv.Success),
	}
	if inv.Transport != "" {
		attrs = append(attrs, attribute.String("transport", inv.Transport))
	}
	if inv.ErrorCode != "" {
		attrs = append(attrs, attribute.String("error_code", inv.ErrorCode))
	}

	options := metric.WithAttributes(attrs...)
	o.invocations.Add(ctx, 1, options)
	o.latency.Record(ctx, inv.Duration.Seconds(), options)

	if o.tracer == nil {
		return
	}
	end := time.Now()
	spanAttrs := append(attrs, attribute.String("call_id", inv.CallID))
	_, span := o.tracer.Start(ctx, "tool.invoke",
		trace.WithAttributes(spanAttrs...),
		trace.WithTimestamp(end.Add(-inv.Duration)),
	)
	if !inv.Success {
		span.SetStatus(codes.Error, inv.ErrorCode)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(end))
}
