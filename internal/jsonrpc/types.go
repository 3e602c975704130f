// Package jsonrpc implements the JSON-RPC 2.0 envelope minimcp dispatches
// over: parsing an incoming frame into a typed request/notification, and
// building the response/notification/error frames sent back.
//
// Field shapes follow the teacher's internal/server/mcp/types.go; the
// build_* helpers follow the original minimcp json_rpc.py.
package jsonrpc

import (
	"encoding/json"

	jsoniter "github.com/json-iterator/go"
)

// fastJSON is the jsoniter codec used on the hot marshal/unmarshal path
// (every message in and out), configured to stay drop-in-compatible with
// encoding/json's behavior (map ordering, struct tags, json.RawMessage,
// json.Number handling).
var fastJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// Version is the only JSON-RPC version minimcp accepts or emits.
const Version = "2.0"

// Standard JSON-RPC 2.0 error codes.
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

// MCP-specific error codes, outside the JSON-RPC reserved range.
const (
	ResourceNotFound = -32002
)

// NoIDSentinel is substituted for the request id when an error occurs before
// an id could be parsed out of the frame (e.g. on ParseError).
const NoIDSentinel = "no-id"

// ID is a JSON-RPC request identifier: a string, a number, or null.
type ID struct {
	value any
}

// NewID wraps a string or float64 (or nil) as a request ID.
func NewID(v any) ID { return ID{value: v} }

// IsNil reports whether the ID is the JSON-RPC null id (used by
// notifications, which never carry ids at all -- this is for frames where an
// explicit `"id": null` was sent).
func (id ID) IsNil() bool { return id.value == nil }

// Value returns the underlying string/float64/nil.
func (id ID) Value() any { return id.value }

func (id ID) MarshalJSON() ([]byte, error) {
	return fastJSON.Marshal(id.value)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	return fastJSON.Unmarshal(data, &id.value)
}

// Request is a JSON-RPC 2.0 request: it has an id and expects a Response.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      ID              `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Notification is a JSON-RPC 2.0 notification: no id, no response expected.
type Notification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a successful (non-error) JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	ID      ID     `json:"id"`
	Result  any    `json:"result"`
}

// ErrorDetail carries the code/message/data triple of a JSON-RPC error.
type ErrorDetail struct {
	Code    int `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse is a non-successful JSON-RPC 2.0 response.
type ErrorResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      ID          `json:"id"`
	Error   ErrorDetail `json:"error"`
}

// progressMeta mirrors the `_meta.progressToken` field used to correlate a
// request with its notifications/progress stream.
type progressMeta struct {
	ProgressToken any `json:"progressToken,omitempty"`
}

type requestParamsMeta struct {
	Meta progressMeta `json:"_meta,omitempty"`
}

// ProgressToken best-effort extracts params._meta.progressToken from a raw
// request, returning (nil, false) on any shape mismatch -- mirrors the
// original Responder's attrgetter-with-fallback extraction.
func ProgressToken(params json.RawMessage) (any, bool) {
	if len(params) == 0 {
		return nil, false
	}
	var m requestParamsMeta
	if err := fastJSON.Unmarshal(params, &m); err != nil {
		return nil, false
	}
	if m.Meta.ProgressToken == nil {
		return nil, false
	}
	return m.Meta.ProgressToken, true
}
