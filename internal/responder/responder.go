// Package responder lets a handler push notifications (most commonly
// progress updates) back to the caller of the in-flight request, grounded on
// the original minimcp responder.py.
package responder

import (
	"context"
	"fmt"

	"github.com/sreenaths/minimcp-go/internal/jsonrpc"
	"github.com/sreenaths/minimcp-go/internal/limiter"
	"github.com/sreenaths/minimcp-go/internal/log"
	"github.com/sreenaths/minimcp-go/internal/mcptypes"
)

// Send delivers one already-built outgoing frame's bytes to the transport
// (the socket, the SSE stream, the stdout line). It is non-owning: the
// Responder holds only a function value, never a pointer back into the
// transport, so nothing cyclic is kept alive past one Handle() call.
type Send func(ctx context.Context, raw []byte) error

// Responder is constructed once per request that arrived with a Send
// function (i.e. every transport except a bare HTTP POST with no streaming
// upgrade) and is reachable from the active mcpcontext.Context.
type Responder struct {
	progressToken any
	hasToken      bool
	send          Send
	timeLimiter   *limiter.TimeLimiter
	logger        log.Logger
}

// New builds a Responder for one request. params is the raw request params
// used to best-effort extract _meta.progressToken, exactly as the original's
// attrgetter("params.meta.progressToken") does, swallowing any shape
// mismatch into "no token".
func New(rawParams []byte, send Send, tl *limiter.TimeLimiter, logger log.Logger) *Responder {
	token, ok := jsonrpc.ProgressToken(rawParams)
	return &Responder{progressToken: token, hasToken: ok, send: send, timeLimiter: tl, logger: logger}
}

// ReportProgress sends a notifications/progress message correlated to the
// originating request's progress token. If the request carried no token,
// this is a no-op that logs a warning -- the server is not obligated to
// provide progress notifications the client never asked for.
func (r *Responder) ReportProgress(ctx context.Context, progress float64, total *float64, message string) (any, error) {
	if !r.hasToken {
		if r.logger != nil {
			r.logger.WarnContext(ctx, "report_progress called without a progress token on the originating request")
		}
		return nil, nil
	}
	params := mcptypes.ProgressNotificationParams{
		ProgressToken: r.progressToken,
		Progress:      progress,
		Total:         total,
		Message:       message,
	}
	if err := r.SendNotification(ctx, "notifications/progress", params); err != nil {
		return nil, err
	}
	return r.progressToken, nil
}

// SendNotification builds and sends an arbitrary notification frame, and
// resets the idle timeout -- a live stream of server pushes must never be
// killed by the per-message idle timer.
func (r *Responder) SendNotification(ctx context.Context, method string, params any) error {
	if r.send == nil {
		return fmt.Errorf("responder has no send function: transport does not support server-initiated messages")
	}
	notification, err := jsonrpc.BuildNotification(method, params)
	if err != nil {
		return err
	}
	raw, err := jsonrpc.Marshal(notification)
	if err != nil {
		return fmt.Errorf("unable to marshal notification: %w", err)
	}
	if r.timeLimiter != nil {
		r.timeLimiter.Extend()
	}
	return r.send(ctx, raw)
}
