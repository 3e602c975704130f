// Package minimcp is a stateless Model Context Protocol message-processing
// engine: given one JSON-RPC message it dispatches to a registered tool,
// prompt, or resource handler and returns the JSON-RPC response (or nothing,
// for a notification). It carries no session state between messages --
// everything it needs to answer message N+1 differently from message N must
// come from the handler registries populated at startup, or from the scope
// value a transport passes in per call.
//
// This mirrors the architecture of the original minimcp Python package
// (src/mcp/server/minimcp/minimcp.py) and borrows its server-composition
// idiom (a struct gluing together limiter/registries/context plumbing) from
// the teacher's internal/server.Server.
package minimcp

import (
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/sreenaths/minimcp-go/internal/limiter"
	"github.com/sreenaths/minimcp-go/internal/log"
	"github.com/sreenaths/minimcp-go/internal/mcptypes"
	"github.com/sreenaths/minimcp-go/internal/prompts"
	"github.com/sreenaths/minimcp-go/internal/resources"
	"github.com/sreenaths/minimcp-go/internal/telemetry"
	"github.com/sreenaths/minimcp-go/internal/tools"
)

// DefaultIdleTimeout and DefaultMaxConcurrency match the original minimcp's
// defaults (30s idle timeout, 100 concurrent messages).
const (
	DefaultIdleTimeout    = 30 * time.Second
	DefaultMaxConcurrency = 100
)

// Options configures a MiniMCP instance at construction time.
type Options struct {
	// Version is reported as serverInfo.version during initialize.
	Version string
	// Instructions is passed to the client during initialize as a hint for
	// how to use this server's tools/prompts/resources.
	Instructions string
	// IdleTimeout bounds how long a single message may run without making
	// progress (sending a notification) before it is canceled. Zero means
	// DefaultIdleTimeout; negative means no timeout.
	IdleTimeout time.Duration
	// MaxConcurrency bounds how many messages may be processed at once
	// across the whole instance. Zero means DefaultMaxConcurrency; negative
	// means unbounded.
	MaxConcurrency int64
	// IncludeStackTrace, when true, attaches a Go stack trace to
	// INTERNAL_ERROR responses' error.data -- useful in development, never
	// in production (it leaks implementation details to the client).
	IncludeStackTrace bool
	// Logger receives diagnostic output from Handle. Defaults to a
	// stderr-only StdLogger at INFO level, matching the stdio transport's
	// constraint that stdout carries only protocol frames.
	Logger log.Logger
	// Telemetry supplies the tracer and counters Handle reports through.
	// Defaults to an Instrumentation built from the globally registered
	// OpenTelemetry providers (a no-op by default until a host application
	// registers real ones via otel.SetTracerProvider/otel.SetMeterProvider).
	Telemetry *telemetry.Instrumentation
}

// MiniMCP is the core of the engine: the handler registries plus the
// concurrency/resource controls that wrap every call to Handle.
type MiniMCP struct {
	name         string
	version      string
	instructions string

	includeStackTrace bool
	limiter           *limiter.Limiter
	logger            log.Logger
	telemetry         *telemetry.Instrumentation

	Tool     *tools.Registry
	Prompt   *prompts.Registry
	Resource *resources.Registry
}

// New builds a MiniMCP instance. name is reported as serverInfo.name during
// initialize.
func New(name string, opts Options) *MiniMCP {
	idleTimeout := opts.IdleTimeout
	if idleTimeout == 0 {
		idleTimeout = DefaultIdleTimeout
	} else if idleTimeout < 0 {
		idleTimeout = 0
	}

	maxConcurrency := opts.MaxConcurrency
	if maxConcurrency == 0 {
		maxConcurrency = DefaultMaxConcurrency
	} else if maxConcurrency < 0 {
		maxConcurrency = 0
	}

	logger := opts.Logger
	if logger == nil {
		stderrLogger, err := log.NewStderrLogger(os.Stderr, log.Info)
		if err != nil {
			// log.Info is a constant this package controls; NewStderrLogger
			// can only fail on an invalid level string.
			panic(err)
		}
		logger = stderrLogger
	}

	instrumentation := opts.Telemetry
	if instrumentation == nil {
		var err error
		instrumentation, err = telemetry.New(otel.GetTracerProvider(), otel.GetMeterProvider())
		if err != nil {
			// The global providers are always usable -- a no-op provider
			// never rejects instrument creation.
			panic(fmt.Errorf("building default instrumentation: %w", err))
		}
	}

	return &MiniMCP{
		name:              name,
		version:           opts.Version,
		instructions:      opts.Instructions,
		includeStackTrace: opts.IncludeStackTrace,
		limiter:           limiter.New(idleTimeout, maxConcurrency),
		logger:            logger,
		telemetry:         instrumentation,
		Tool:              tools.NewRegistry(),
		Prompt:            prompts.NewRegistry(),
		Resource:          resources.NewRegistry(),
	}
}

// Telemetry exposes the tracer and counters this instance reports through,
// so a transport can record its own events (e.g. an open SSE stream) on the
// same Instrumentation Handle uses.
func (m *MiniMCP) Telemetry() *telemetry.Instrumentation {
	return m.telemetry
}

// capabilities derives the ServerCapabilities advertised during initialize:
// a capability is present iff the corresponding registry has at least one
// entry, since registries are populated once at startup and never change
// afterward (no listChanged support).
func (m *MiniMCP) capabilities() mcptypes.ServerCapabilities {
	var caps mcptypes.ServerCapabilities
	if m.Tool.Len() > 0 {
		caps.Tools = &mcptypes.ListChanged{}
	}
	if m.Prompt.Len() > 0 {
		caps.Prompts = &mcptypes.ListChanged{}
	}
	if m.Resource.Len() > 0 {
		caps.Resources = &mcptypes.ListChanged{}
	}
	return caps
}
