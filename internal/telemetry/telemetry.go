// Package telemetry wires up the OpenTelemetry tracer and metric counters
// shared across transports, reconstructed from how the teacher's
// internal/telemetry.Instrumentation is consumed in its server/mcp.go (a
// Tracer plus per-transport request counters) -- the teacher's own
// telemetry.go source was not available to copy from directly.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Instrumentation holds the tracer and counters every transport reports
// through. One instance is shared by a whole MiniMCP instance's transports.
type Instrumentation struct {
	Tracer trace.Tracer

	// MessagesHandled counts every request Handle() dispatches, tagged with
	// mcp.method and mcp.status=success or mcp.status=error.
	MessagesHandled metric.Int64Counter
	// ActiveStreams counts live streamable-http/SSE connections currently
	// open, incremented on upgrade and decremented on disconnect.
	ActiveStreams metric.Int64UpDownCounter
}

// New builds an Instrumentation from the given providers. Passing
// noop providers (as otel's SDK packages expose) is the right choice for a
// binary with telemetry disabled -- the counters still work, they just
// report into the noop exporter.
func New(tp trace.TracerProvider, mp metric.MeterProvider) (*Instrumentation, error) {
	tracer := tp.Tracer("github.com/sreenaths/minimcp-go")
	meter := mp.Meter("github.com/sreenaths/minimcp-go")

	messagesHandled, err := meter.Int64Counter(
		"minimcp.messages_handled",
		metric.WithDescription("Count of JSON-RPC requests handled, by method and outcome."),
	)
	if err != nil {
		return nil, fmt.Errorf("creating messages_handled counter: %w", err)
	}

	activeStreams, err := meter.Int64UpDownCounter(
		"minimcp.active_streams",
		metric.WithDescription("Count of currently open streaming (SSE) connections."),
	)
	if err != nil {
		return nil, fmt.Errorf("creating active_streams counter: %w", err)
	}

	return &Instrumentation{
		Tracer:          tracer,
		MessagesHandled: messagesHandled,
		ActiveStreams:   activeStreams,
	}, nil
}

// LocalProviders builds an in-process TracerProvider/MeterProvider pair with
// no exporter attached -- spans are sampled and counters are aggregated in
// memory but never shipped anywhere. This is enough for a host application
// that wants New's instrumentation wired up without standing up a collector,
// mirroring how the teacher's telemetry.SetupOTel is optional and the server
// runs fine without an OTLP/GCP exporter configured. The returned shutdown
// func releases the providers' background resources.
func LocalProviders() (trace.TracerProvider, metric.MeterProvider, func(context.Context) error) {
	tp := sdktrace.NewTracerProvider()
	mp := sdkmetric.NewMeterProvider()

	shutdown := func(ctx context.Context) error {
		if err := tp.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutting down tracer provider: %w", err)
		}
		if err := mp.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutting down meter provider: %w", err)
		}
		return nil
	}
	return tp, mp, shutdown
}
