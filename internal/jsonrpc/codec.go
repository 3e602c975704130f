package jsonrpc

import (
	"encoding/json"
	"fmt"
	"time"
)

// FrameKind tags which concrete shape a parsed Frame holds.
type FrameKind int

const (
	// KindRequest is a message with an id that expects a Response.
	KindRequest FrameKind = iota
	// KindNotification is a message with no id and no response.
	KindNotification
)

// Frame is the result of parsing one raw JSON-RPC message: exactly one of
// Request/Notification is populated, selected by Kind. Using one tagged
// struct instead of a type-switch over interface{} keeps the dispatcher's
// entry point a single, exhaustive switch (design note: open sum types).
type Frame struct {
	Kind         FrameKind
	Request      *Request
	Notification *Notification
}

// rawEnvelope is used to sniff the shape of an incoming message before
// committing to Request or Notification: an "id" key (even `"id":null`)
// means Request, its absence means Notification.
type rawEnvelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// SyntaxError means the raw bytes were not valid JSON at all -- the only
// failure Parse reports that maps to JSON-RPC PARSE_ERROR (-32700). Every
// other rejection in Parse is a syntactically valid document that just isn't
// a well-formed JSON-RPC 2.0 envelope, which maps to INVALID_REQUEST instead.
type SyntaxError struct{ Err error }

func (e *SyntaxError) Error() string { return fmt.Sprintf("invalid JSON: %s", e.Err) }
func (e *SyntaxError) Unwrap() error { return e.Err }

// EnvelopeError means the bytes parsed as JSON but not as a valid JSON-RPC
// 2.0 request/notification (a non-object value or wrongly typed field,
// bad/missing version, missing method, a batch array, or an unparseable id).
type EnvelopeError struct{ Reason string }

func (e *EnvelopeError) Error() string { return e.Reason }

// Parse decodes raw bytes into a Frame. It rejects batch (array) payloads,
// missing/incorrect jsonrpc version, and missing method -- exactly the
// validation performed by the teacher's processMcpMessage before it looks at
// the method name. Callers distinguish the two failure kinds via errors.As
// against *SyntaxError/*EnvelopeError to pick PARSE_ERROR vs. INVALID_REQUEST.
func Parse(raw []byte) (Frame, error) {
	trimmed := trimLeadingSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return Frame{}, &EnvelopeError{Reason: "batch requests are not supported"}
	}

	var env rawEnvelope
	if err := fastJSON.Unmarshal(raw, &env); err != nil {
		if fastJSON.Valid(raw) {
			return Frame{}, &EnvelopeError{Reason: fmt.Sprintf("not a JSON-RPC 2.0 object: %s", err)}
		}
		return Frame{}, &SyntaxError{Err: err}
	}
	if env.JSONRPC != Version {
		return Frame{}, &EnvelopeError{Reason: fmt.Sprintf("invalid or missing jsonrpc version, want %q", Version)}
	}
	if env.Method == "" {
		return Frame{}, &EnvelopeError{Reason: "missing method"}
	}

	if env.ID == nil {
		return Frame{
			Kind: KindNotification,
			Notification: &Notification{
				JSONRPC: env.JSONRPC,
				Method:  env.Method,
				Params:  env.Params,
			},
		}, nil
	}

	var id ID
	if err := fastJSON.Unmarshal(env.ID, &id); err != nil {
		return Frame{}, &EnvelopeError{Reason: fmt.Sprintf("invalid id: %s", err)}
	}
	return Frame{
		Kind: KindRequest,
		Request: &Request{
			JSONRPC: env.JSONRPC,
			ID:      id,
			Method:  env.Method,
			Params:  env.Params,
		},
	}, nil
}

func trimLeadingSpace(b []byte) []byte {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t' || b[i] == '\n' || b[i] == '\r') {
		i++
	}
	return b[i:]
}

// BuildResponse builds a successful response frame for the given id.
func BuildResponse(id ID, result any) Response {
	return Response{JSONRPC: Version, ID: id, Result: result}
}

// BuildNotification builds an outgoing notification frame (used for
// notifications/progress and any other server-to-client push).
func BuildNotification(method string, params any) (Notification, error) {
	raw, err := fastJSON.Marshal(params)
	if err != nil {
		return Notification{}, fmt.Errorf("unable to marshal notification params: %w", err)
	}
	return Notification{JSONRPC: Version, Method: method, Params: raw}, nil
}

// errorData is the structured `data` payload every error response carries,
// matching the original's inclusion of an ISO timestamp alongside caller data.
type errorData struct {
	ISOTimestamp string `json:"iso_timestamp"`
	Detail       any    `json:"detail,omitempty"`
}

// BuildError builds an error response frame. id is NoIDSentinel when the
// original request's id could not be determined (e.g. on ParseError).
func BuildError(code int, id ID, message string, detail any) ErrorResponse {
	return ErrorResponse{
		JSONRPC: Version,
		ID:      id,
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Data: errorData{
				ISOTimestamp: time.Now().UTC().Format(time.RFC3339Nano),
				Detail:       detail,
			},
		},
	}
}

// Marshal serializes any of Response/Notification/ErrorResponse/Request to
// the single-line wire form the stdio transport requires (no embedded
// newlines): encoding/json never emits literal newlines inside a JSON value,
// so a plain Marshal already satisfies that invariant.
func Marshal(v any) ([]byte, error) {
	return fastJSON.Marshal(v)
}
