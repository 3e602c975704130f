// Package streamablehttp implements the MCP "Streamable HTTP" transport: a
// single POST endpoint that starts out as a plain JSON response and
// transparently upgrades to a text/event-stream if the in-flight handler
// sends any notification (most commonly progress) before it finishes.
// Grounded on the teacher's sseSession/sseHandler (flusher-based SSE
// writing, endpoint/message event framing) and the original minimcp
// streamable_http.py, which performs this same late upgrade decision.
package streamablehttp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"

	"github.com/sreenaths/minimcp-go"
	"github.com/sreenaths/minimcp-go/internal/log"
	"github.com/sreenaths/minimcp-go/internal/mcptypes"
	"github.com/sreenaths/minimcp-go/transport/chiadapter"
)

const maxBodyBytes = 4 << 20 // 4 MiB

// DefaultPingInterval is how often an upgraded SSE stream receives a
// keep-alive "ping" event absent a Handler.PingInterval override.
const DefaultPingInterval = 15 * time.Second

// Handler serves MCP messages over the streamable-HTTP transport.
type Handler struct {
	server *minimcp.MiniMCP
	logger log.Logger

	// PingInterval overrides how often an upgraded stream is sent a
	// keep-alive ping. Zero means DefaultPingInterval; negative disables
	// pinging entirely.
	PingInterval time.Duration
}

// New builds a Handler.
func New(server *minimcp.MiniMCP, logger log.Logger) *Handler {
	return &Handler{server: server, logger: logger}
}

func (h *Handler) pingInterval() time.Duration {
	switch {
	case h.PingInterval > 0:
		return h.PingInterval
	case h.PingInterval < 0:
		return 0
	default:
		return DefaultPingInterval
	}
}

// Router returns a chi.Router exposing POST / for message exchange. GET is
// rejected: this server never pushes notifications the client did not ask
// for by way of an in-flight request, so there is nothing for a
// standing GET-opened stream to deliver.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/", h.handlePost)
	r.Get("/", h.handleGet)
	return r
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	h.writeJSONError(w, r, http.StatusMethodNotAllowed, fmt.Errorf("this server only streams responses to an in-flight POST, GET is not supported"))
}

// handlePost validates the request in the order the original implementation
// does -- Accept, then Content-Type, then MCP-Protocol-Version -- so a
// client sees the most fundamental mismatch first, then dispatches the
// message body, upgrading the response to SSE only if the handler actually
// pushes a notification.
func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	if err := chiadapter.ValidateAccept(r, "application/json", "text/event-stream"); err != nil {
		h.writeJSONError(w, r, http.StatusNotAcceptable, err)
		return
	}
	if err := chiadapter.ValidateContentType(r, "application/json"); err != nil {
		h.writeJSONError(w, r, http.StatusUnsupportedMediaType, err)
		return
	}
	if err := chiadapter.ValidateProtocolVersion(r, mcptypes.SupportedProtocolVersions); err != nil {
		h.writeJSONError(w, r, http.StatusBadRequest, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeJSONError(w, r, http.StatusInternalServerError, fmt.Errorf("response writer does not support streaming"))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		h.writeJSONError(w, r, http.StatusBadRequest, fmt.Errorf("reading request body: %w", err))
		return
	}
	if len(body) > maxBodyBytes {
		h.writeJSONError(w, r, http.StatusBadRequest, fmt.Errorf("request body exceeds %d bytes", maxBodyBytes))
		return
	}

	state := newResponseState(w, flusher, h.server.Telemetry().ActiveStreams)
	defer state.release(r.Context())
	send := func(ctx context.Context, raw []byte) error { return state.sendEvent(raw) }

	stopPing := state.startPingLoop(r.Context(), h.pingInterval())
	defer stopPing()

	resp, handleErr := h.server.Handle(r.Context(), body, send, nil)
	if handleErr != nil {
		var protoErr *minimcp.ProtocolError
		if errors.As(handleErr, &protoErr) {
			// raw was rejected before dispatch (bad JSON or a malformed
			// envelope) -- protoErr.Body is already a marshaled ErrorResponse
			// frame, so write it directly rather than re-wrapping it.
			chiadapter.WriteResult(w, r, chiadapter.Result{StatusCode: http.StatusBadRequest, Content: protoErr.Body, ContentType: "application/json"})
			return
		}
		// Every other Handle failure is this server's own (acquiring a
		// processing slot, marshaling a response) or the request's context
		// ending -- spec.md's error-handling
		// contract reserves 500 for that and 400 for malformed client input
		// (already handled above and via ProtocolError).
		h.writeJSONError(w, r, http.StatusInternalServerError, handleErr)
		return
	}
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	if state.isUpgraded() {
		if err := state.sendEvent(resp); err != nil {
			h.logger.ErrorContext(r.Context(), "writing final sse event failed", "error", err.Error())
		}
		return
	}

	chiadapter.WriteResult(w, r, chiadapter.Result{StatusCode: http.StatusOK, Content: resp, ContentType: "application/json"})
}

func (h *Handler) writeJSONError(w http.ResponseWriter, r *http.Request, status int, err error) {
	h.logger.ErrorContext(r.Context(), "streamable http transport error", "status", status, "error", err.Error())
	chiadapter.WriteError(w, r, status, err)
}

// responseState guards the one-way transition from "plain JSON response" to
// "SSE stream", via a sync.Once so the event-stream headers are written
// exactly once no matter how many notifications race to be the first.
type responseState struct {
	w       http.ResponseWriter
	flusher http.Flusher

	activeStreams metric.Int64UpDownCounter

	upgradeOnce sync.Once
	upgraded    bool

	writeMu sync.Mutex
}

func newResponseState(w http.ResponseWriter, flusher http.Flusher, activeStreams metric.Int64UpDownCounter) *responseState {
	return &responseState{w: w, flusher: flusher, activeStreams: activeStreams}
}

func (s *responseState) ensureUpgraded() {
	s.upgradeOnce.Do(func() {
		s.writeMu.Lock()
		defer s.writeMu.Unlock()
		s.w.Header().Set("Content-Type", "text/event-stream")
		s.w.Header().Set("Cache-Control", "no-cache, no-transform")
		s.w.Header().Set("Connection", "keep-alive")
		s.w.WriteHeader(http.StatusOK)
		s.upgraded = true
		s.activeStreams.Add(context.Background(), 1)
	})
}

// startPingLoop starts a background keep-alive loop and returns a func that
// stops it. A ping is only ever written once the stream has actually
// upgraded to SSE -- sending one against a response still pending its first
// real event would force an upgrade a plain JSON caller never asked for.
// Stops on its own once ctx is done (the request finished) even if the
// caller forgets to call the returned stop func.
func (s *responseState) startPingLoop(ctx context.Context, interval time.Duration) func() {
	if interval <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				if !s.isUpgraded() {
					continue
				}
				if err := s.sendPing(); err != nil {
					return
				}
			}
		}
	}()
	return func() { close(done) }
}

func (s *responseState) sendPing() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if !s.upgraded {
		return nil
	}
	if _, err := fmt.Fprint(s.w, "event: ping\ndata: {}\n\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// release decrements the active-stream count if this response ever upgraded
// to SSE. Safe to call unconditionally once the request is done.
func (s *responseState) release(ctx context.Context) {
	if s.isUpgraded() {
		s.activeStreams.Add(ctx, -1)
	}
}

func (s *responseState) isUpgraded() bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.upgraded
}

func (s *responseState) sendEvent(raw []byte) error {
	s.ensureUpgraded()
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := fmt.Fprintf(s.w, "event: message\ndata: %s\n\n", raw); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
