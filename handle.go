package minimcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/sreenaths/minimcp-go/internal/jsonrpc"
	"github.com/sreenaths/minimcp-go/internal/limiter"
	"github.com/sreenaths/minimcp-go/internal/mcpcontext"
	"github.com/sreenaths/minimcp-go/internal/mcperrors"
	"github.com/sreenaths/minimcp-go/internal/mcptypes"
	"github.com/sreenaths/minimcp-go/internal/prompts"
	"github.com/sreenaths/minimcp-go/internal/resources"
	"github.com/sreenaths/minimcp-go/internal/responder"
	"github.com/sreenaths/minimcp-go/internal/tools"
)

// Handle processes exactly one raw JSON-RPC message and returns the bytes to
// send back (nil for a notification, which expects no response). send, when
// non-nil, lets the active handler push notifications (most commonly
// progress updates) back to the caller before Handle returns; pass nil from
// transports with no way to stream (a bare synchronous HTTP POST).
// scope is opaque, host-supplied context (an authenticated principal, a
// per-connection value) made available to handlers via mcpcontext.
//
// A dispatch-level failure (unknown method, bad params, a handler's own
// error) is encoded into the returned bytes as an ErrorResponse, exactly as a
// successful call encodes a Response -- both are a nil error, since the
// message itself was handled. A non-nil error means raw never reached
// dispatch: *ProtocolError carries the ErrorResponse frame for a message that
// was not valid JSON-RPC at all (the transport should answer 400, not 200);
// any other error means the message could not be processed (the transport
// should translate it into its own failure signal, a 503 or a dropped
// connection).
func (m *MiniMCP) Handle(ctx context.Context, raw []byte, send responder.Send, scope any) ([]byte, error) {
	tl, release, err := m.limiter.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring a processing slot: %w", err)
	}
	defer release()

	frame, err := jsonrpc.Parse(raw)
	if err != nil {
		return m.protocolErrorResponse(err)
	}

	switch frame.Kind {
	case jsonrpc.KindNotification:
		m.handleNotification(tl.Context(), frame.Notification)
		return nil, nil
	default:
		resp, err := m.handleRequest(tl, send, scope, frame)
		if ctxErr := ctx.Err(); ctxErr != nil {
			// The caller's own context ended: hand that back unconverted
			// instead of answering the request.
			return nil, ctxErr
		}
		if errors.Is(context.Cause(tl.Context()), context.DeadlineExceeded) {
			return m.errorResponse(frame.Request.ID, &mcperrors.TimeoutError{})
		}
		return resp, err
	}
}

// ProtocolError is returned by Handle when raw never made it to dispatch --
// invalid JSON or a malformed JSON-RPC envelope. Body is the already-marshaled
// ErrorResponse frame a transport should write verbatim; unlike a dispatch
// error (still a normal 200 JSON-RPC response), this is the signal an HTTP
// transport uses to answer with its malformed-input status instead.
type ProtocolError struct {
	Body []byte
	Err  error
}

func (e *ProtocolError) Error() string { return e.Err.Error() }
func (e *ProtocolError) Unwrap() error { return e.Err }

// protocolErrorResponse classifies a jsonrpc.Parse failure into PARSE_ERROR or
// INVALID_REQUEST (per spec.md §7, mirroring the original's InvalidMessageError
// split), builds its ErrorResponse frame, and wraps it in a ProtocolError.
func (m *MiniMCP) protocolErrorResponse(parseErr error) ([]byte, error) {
	classified := classifyParseFailure(parseErr)
	body, err := m.errorResponse(jsonrpc.NewID(jsonrpc.NoIDSentinel), classified)
	if err != nil {
		return nil, err
	}
	return nil, &ProtocolError{Body: body, Err: classified}
}

func classifyParseFailure(err error) error {
	var syntaxErr *jsonrpc.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &mcperrors.ParseError{Err: err}
	}
	return &mcperrors.InvalidRequestError{Err: err}
}

func (m *MiniMCP) handleRequest(tl *limiter.TimeLimiter, send responder.Send, scope any, frame jsonrpc.Frame) ([]byte, error) {
	req := frame.Request

	ctx, span := m.telemetry.Tracer.Start(tl.Context(), "minimcp.handle")
	defer span.End()
	span.SetAttributes(attribute.String("mcp.method", req.Method))

	var resp *responder.Responder
	if send != nil {
		resp = responder.New(req.Params, send, tl, m.logger)
	}

	ctx = mcpcontext.Active(ctx, mcpcontext.Context{
		Frame:       frame,
		TimeLimiter: tl,
		Scope:       scope,
		Responder:   resp,
	})

	result, dispatchErr := m.dispatch(ctx, req)

	status := "success"
	if dispatchErr != nil {
		status = "error"
		span.SetStatus(codes.Error, dispatchErr.Error())
	}
	m.telemetry.MessagesHandled.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("mcp.method", req.Method),
			attribute.String("mcp.status", status),
		),
	)

	if dispatchErr != nil {
		return m.errorResponse(req.ID, dispatchErr)
	}
	return jsonrpc.Marshal(jsonrpc.BuildResponse(req.ID, result))
}

// dispatch routes one request to its handler and returns the raw result
// value to be marshaled into the response -- or an error for errorResponse
// to classify into a JSON-RPC error code.
func (m *MiniMCP) dispatch(ctx context.Context, req *jsonrpc.Request) (any, error) {
	switch req.Method {
	case methodInitialize:
		var params mcptypes.InitializeParams
		if err := decodeParams(req.Params, &params); err != nil {
			return nil, &mcperrors.InvalidParamsError{Err: err}
		}
		return m.initialize(params), nil

	case methodToolsList:
		return mcptypes.ListToolsResult{Tools: m.Tool.List()}, nil

	case methodToolsCall:
		var params mcptypes.CallToolParams
		if err := decodeParams(req.Params, &params); err != nil {
			return nil, &mcperrors.InvalidParamsError{Err: err}
		}
		result, err := m.Tool.Call(ctx, params.Name, params.Arguments)
		if err != nil {
			var nfe *tools.NotFoundError
			if errors.As(err, &nfe) {
				return nil, &mcperrors.InvalidParamsError{Err: err}
			}
			return nil, &mcperrors.RuntimeError{Err: err}
		}
		return result, nil

	case methodPromptsList:
		return mcptypes.ListPromptsResult{Prompts: m.Prompt.List()}, nil

	case methodPromptsGet:
		var params mcptypes.GetPromptParams
		if err := decodeParams(req.Params, &params); err != nil {
			return nil, &mcperrors.InvalidParamsError{Err: err}
		}
		result, err := m.Prompt.Get(ctx, params.Name, params.Arguments)
		if err != nil {
			var nfe *prompts.NotFoundError
			if errors.As(err, &nfe) {
				return nil, &mcperrors.InvalidParamsError{Err: err}
			}
			return nil, &mcperrors.RuntimeError{Err: err}
		}
		return result, nil

	case methodResourcesList:
		return mcptypes.ListResourcesResult{Resources: m.Resource.List()}, nil

	case methodResourcesTemplatesList:
		return mcptypes.ListResourceTemplatesResult{ResourceTemplates: m.Resource.ListTemplates()}, nil

	case methodResourcesRead:
		var params mcptypes.ReadResourceParams
		if err := decodeParams(req.Params, &params); err != nil {
			return nil, &mcperrors.InvalidParamsError{Err: err}
		}
		result, err := m.Resource.Read(ctx, params.URI)
		if err != nil {
			var nfe *resources.NotFoundError
			if errors.As(err, &nfe) {
				return nil, &mcperrors.ResourceNotFoundError{URI: params.URI, Data: err.Error()}
			}
			return nil, &mcperrors.RuntimeError{Err: err}
		}
		return result, nil

	case methodResourcesSubscribe, methodResourcesUnsubscribe:
		// Subscriptions are acknowledged but never tracked: change
		// notifications for resources are an explicit non-goal.
		return mcptypes.EmptyResult{}, nil

	case methodLoggingSetLevel:
		var params mcptypes.SetLevelParams
		if err := decodeParams(req.Params, &params); err != nil {
			return nil, &mcperrors.InvalidParamsError{Err: err}
		}
		m.logger.InfoContext(ctx, "client requested log level change", "level", params.Level)
		return mcptypes.EmptyResult{}, nil

	case methodCompletionComplete:
		// No completion providers are registered; every request is answered
		// with an empty, non-error completion list.
		return mcptypes.CompleteResult{}, nil

	default:
		return nil, &mcperrors.MethodNotFoundError{Method: req.Method}
	}
}

// errorResponse classifies err into a JSON-RPC error code/message and
// marshals the resulting ErrorResponse, attaching a stack trace to the data
// field when configured to and the failure is an internal one.
func (m *MiniMCP) errorResponse(id jsonrpc.ID, err error) ([]byte, error) {
	code, message, detail := classify(err)
	if m.includeStackTrace && code == jsonrpc.InternalError {
		detail = map[string]any{"detail": detail, "stack": string(debug.Stack())}
	}
	return marshalError(code, id, message, detail)
}

func classify(err error) (code int, message string, detail any) {
	var parseErr *mcperrors.ParseError
	if errors.As(err, &parseErr) {
		return jsonrpc.ParseError, "Parse error", err.Error()
	}
	var invalidRequest *mcperrors.InvalidRequestError
	if errors.As(err, &invalidRequest) {
		return jsonrpc.InvalidRequest, "Invalid Request", err.Error()
	}
	var invalidParams *mcperrors.InvalidParamsError
	if errors.As(err, &invalidParams) {
		return jsonrpc.InvalidParams, "Invalid params", err.Error()
	}
	var methodNotFound *mcperrors.MethodNotFoundError
	if errors.As(err, &methodNotFound) {
		return jsonrpc.MethodNotFound, "Method not found", err.Error()
	}
	var resourceNotFound *mcperrors.ResourceNotFoundError
	if errors.As(err, &resourceNotFound) {
		return jsonrpc.ResourceNotFound, "Resource not found", resourceNotFound.Data
	}
	var contextErr *mcperrors.ContextError
	if errors.As(err, &contextErr) {
		return jsonrpc.InternalError, "Internal error", err.Error()
	}
	var timeoutErr *mcperrors.TimeoutError
	if errors.As(err, &timeoutErr) {
		return jsonrpc.InternalError, "Internal error", err.Error()
	}
	return jsonrpc.InternalError, "Internal error", err.Error()
}

func marshalError(code int, id jsonrpc.ID, message string, detail any) ([]byte, error) {
	raw, err := jsonrpc.Marshal(jsonrpc.BuildError(code, id, message, detail))
	if err != nil {
		return nil, fmt.Errorf("marshaling error response: %w", err)
	}
	return raw, nil
}

func decodeParams(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}
