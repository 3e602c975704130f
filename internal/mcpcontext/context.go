// Package mcpcontext carries the per-message ambient state (the raw request,
// a time-limiter handle, an optional host-supplied scope value, an optional
// Responder) the way the original minimcp's ContextManager does with a
// ContextVar -- except Go has no goroutine-local storage, so the value is
// carried explicitly on context.Context the way the teacher's
// util.WithLogger/LoggerFromContext pair already does for its logger.
package mcpcontext

import (
	"context"

	"github.com/sreenaths/minimcp-go/internal/jsonrpc"
	"github.com/sreenaths/minimcp-go/internal/limiter"
	"github.com/sreenaths/minimcp-go/internal/mcperrors"
	"github.com/sreenaths/minimcp-go/internal/responder"
)

// Context is the ambient, per-message state threaded through every handler
// invocation.
type Context struct {
	// Frame is the parsed JSON-RPC frame being processed.
	Frame jsonrpc.Frame
	// TimeLimiter is the idle-timeout handle for this message.
	TimeLimiter *limiter.TimeLimiter
	// Scope is host-supplied, opaque to minimcp (e.g. an authenticated
	// principal, a per-connection value) -- generic in the original via
	// ScopeT, here simply any since Go generics on a context-carried value
	// add ceremony without a real type-safety win across transport
	// boundaries.
	Scope any
	// Responder is non-nil only when the active transport supports pushing
	// notifications back to the caller of this message.
	Responder *responder.Responder
}

type contextKey struct{}

var activeKey = contextKey{}

// Active returns a new context.Context carrying c, for the duration of one
// Handle() call -- mirrors ContextManager.active's contextmanager-scoped set
// rather than a permanent global.
func Active(parent context.Context, c Context) context.Context {
	return context.WithValue(parent, activeKey, c)
}

// FromContext retrieves the active Context, erroring when called outside an
// active Handle() call -- mirrors ContextManager.get()'s explicit failure
// rather than returning a zero value silently.
func FromContext(ctx context.Context) (Context, error) {
	c, ok := ctx.Value(activeKey).(Context)
	if !ok {
		return Context{}, &mcperrors.ContextError{Msg: "no active context: called outside of an active message"}
	}
	return c, nil
}

// ScopeFromContext returns the active context's Scope field, erroring if no context is
// active or if the active context carries no scope.
func ScopeFromContext(ctx context.Context) (any, error) {
	c, err := FromContext(ctx)
	if err != nil {
		return nil, err
	}
	if c.Scope == nil {
		return nil, &mcperrors.ContextError{Msg: "no scope available in the active context"}
	}
	return c.Scope, nil
}

// ResponderFromContext returns the active context's Responder, erroring if
// no context is active or the active transport does not support responses.
func ResponderFromContext(ctx context.Context) (*responder.Responder, error) {
	c, err := FromContext(ctx)
	if err != nil {
		return nil, err
	}
	if c.Responder == nil {
		return nil, &mcperrors.ContextError{Msg: "no responder available: this transport does not support server-initiated messages"}
	}
	return c.Responder, nil
}
