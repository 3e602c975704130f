// Package httptransport exposes a MiniMCP instance over a single synchronous
// HTTP POST endpoint: one request body in, one JSON-RPC response body out,
// no streaming upgrade. Grounded on the teacher's internal/server.httpHandler
// (chi routing, go-chi/render for the JSON response, per-request uuid for
// tracing) minus the toolset/session-id plumbing that only applied to
// genai-toolbox's multi-toolset model.
package httptransport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/sreenaths/minimcp-go"
	"github.com/sreenaths/minimcp-go/internal/log"
	"github.com/sreenaths/minimcp-go/internal/mcptypes"
	"github.com/sreenaths/minimcp-go/transport/chiadapter"
)

// maxBodyBytes bounds a single request body -- generous for tool-call
// arguments, small enough to stop an unbounded read from exhausting memory.
const maxBodyBytes = 4 << 20 // 4 MiB

// Handler serves MCP messages over plain HTTP POST.
type Handler struct {
	server *minimcp.MiniMCP
	logger log.Logger
}

// New builds a Handler. Mount its Router() under whatever path prefix the
// host application chooses.
func New(server *minimcp.MiniMCP, logger log.Logger) *Handler {
	return &Handler{server: server, logger: logger}
}

// Router returns a chi.Router exposing POST / for message exchange. A GET or
// DELETE on the same path is explicitly rejected (405) rather than silently
// 404ing, since a client probing for streaming support needs to see this
// transport does not offer it.
func (h *Handler) Router() chi.Router {
	httpLogger := httplog.NewLogger("httplog", httplog.Options{
		LogLevel:         slog.LevelInfo,
		Concise:          true,
		RequestHeaders:   false,
		MessageFieldName: "message",
	})

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(httplog.RequestLogger(httpLogger))
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Post("/", h.handleMessage)
	r.Get("/", h.methodNotAllowed)
	r.Delete("/", h.methodNotAllowed)
	return r
}

func (h *Handler) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	chiadapter.WriteError(w, r, http.StatusMethodNotAllowed, fmt.Errorf("this endpoint only accepts POST for message exchange"))
}

func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := chiadapter.ValidateAccept(r, "application/json"); err != nil {
		h.writeTransportError(w, r, http.StatusNotAcceptable, err)
		return
	}
	if err := chiadapter.ValidateContentType(r, "application/json"); err != nil {
		h.writeTransportError(w, r, http.StatusUnsupportedMediaType, err)
		return
	}
	if err := chiadapter.ValidateProtocolVersion(r, mcptypes.SupportedProtocolVersions); err != nil {
		h.writeTransportError(w, r, http.StatusBadRequest, err)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		h.writeTransportError(w, r, http.StatusBadRequest, fmt.Errorf("reading request body: %w", err))
		return
	}
	if len(body) > maxBodyBytes {
		h.writeTransportError(w, r, http.StatusBadRequest, fmt.Errorf("request body exceeds %d bytes", maxBodyBytes))
		return
	}

	requestID := uuid.New().String()
	ctx = withRequestID(ctx, requestID)

	resp, err := h.server.Handle(ctx, body, nil, nil)
	if err != nil {
		var protoErr *minimcp.ProtocolError
		if errors.As(err, &protoErr) {
			// raw was rejected before dispatch (bad JSON or a malformed
			// envelope) -- protoErr.Body is already a marshaled ErrorResponse
			// frame, so write it directly rather than re-wrapping it.
			h.logger.WarnContext(ctx, "rejected malformed message", "request_id", requestID, "error", err.Error())
			chiadapter.WriteResult(w, r, chiadapter.Result{StatusCode: http.StatusBadRequest, Content: protoErr.Body, ContentType: "application/json"})
			return
		}
		// Acquiring a processing slot failed, the response could not be
		// marshaled, or the request's context ended -- the other ways Handle
		// returns an error rather than encoding one into its response. All of
		// them are answered 503.
		h.logger.ErrorContext(ctx, "message processing failed", "request_id", requestID, "error", err.Error())
		chiadapter.WriteError(w, r, http.StatusServiceUnavailable, fmt.Errorf("server is at capacity, try again"))
		return
	}
	if resp == nil {
		// A notification: acknowledged, no body to return.
		w.WriteHeader(http.StatusAccepted)
		return
	}

	chiadapter.WriteResult(w, r, chiadapter.Result{StatusCode: http.StatusOK, Content: resp, ContentType: "application/json"})
}

func (h *Handler) writeTransportError(w http.ResponseWriter, r *http.Request, status int, err error) {
	h.logger.ErrorContext(r.Context(), "transport-level error", "error", err.Error())
	chiadapter.WriteError(w, r, status, err)
}

type requestIDKey struct{}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}
