package minimcp

import (
	"context"

	"github.com/sreenaths/minimcp-go/internal/jsonrpc"
)

// handleNotification answers a notification: there is no response channel,
// so every path here only logs. A method this server does not recognize is
// logged and silently dropped rather than surfaced as an error, matching the
// original minimcp's handling of unknown notifications -- a notification's
// sender has already moved on by the time it is read.
func (m *MiniMCP) handleNotification(ctx context.Context, n *jsonrpc.Notification) {
	switch n.Method {
	case notificationInitialized:
		m.logger.DebugContext(ctx, "client reported initialization complete")
	case notificationCancelled:
		// MiniMCP is stateless across messages and keeps no registry of
		// in-flight request ids to cancel; a cancellation notification can
		// only race the already-running Handle call for the same request,
		// which will return on its own. Logged for observability only.
		m.logger.DebugContext(ctx, "received cancellation notification", "params", string(n.Params))
	default:
		m.logger.DebugContext(ctx, "dropping unknown notification", "method", n.Method)
	}
}
