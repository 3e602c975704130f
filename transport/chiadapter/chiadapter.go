// Package chiadapter is the thin translation layer between a transport's raw
// []byte responses and an http.ResponseWriter, shared by
// transport/httptransport and transport/streamablehttp: writing a result or
// error frame, and validating the Accept/Content-Type/MCP-Protocol-Version
// headers both transports require. Grounded on the original minimcp's
// transports/starlette.py -- both translate an internal Result-shaped value
// into a framework response with no MCP-specific logic of its own -- realized
// here against chi's http.ResponseWriter, the teacher's own framework choice,
// instead of Starlette.
package chiadapter

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/sreenaths/minimcp-go/internal/jsonrpc"
)

// Result is the framework-agnostic shape a transport hands to WriteResult:
// a status code, a body already encoded to bytes, and the content type that
// body was encoded with.
type Result struct {
	StatusCode  int
	Content     []byte
	ContentType string
}

// WriteResult renders a Result to w, setting Content-Type and status before
// writing the body verbatim -- the MCP response bytes are already a
// complete JSON-RPC frame, so this never re-encodes them.
func WriteResult(w http.ResponseWriter, _ *http.Request, res Result) {
	if res.ContentType != "" {
		w.Header().Set("Content-Type", res.ContentType)
	}
	w.WriteHeader(res.StatusCode)
	_, _ = w.Write(res.Content)
}

// WriteError renders a transport-level validation failure (an unacceptable
// Accept/Content-Type/MCP-Protocol-Version header, a body too large to read --
// any rejection that happens before Handle ever sees the message) as a
// JSON-RPC ErrorResponse frame coded INVALID_REQUEST, matching the shape
// every other error this server returns takes. id is always NoIDSentinel:
// the request was rejected before an id could even be read out of it.
func WriteError(w http.ResponseWriter, _ *http.Request, status int, err error) {
	body, merr := jsonrpc.Marshal(jsonrpc.BuildError(jsonrpc.InvalidRequest, jsonrpc.NewID(jsonrpc.NoIDSentinel), "Invalid Request", err.Error()))
	if merr != nil {
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// ValidateAccept requires r's Accept header to carry every entry in required.
// A missing header or the "*/*" wildcard is always accepted -- shared by
// both HTTP transports so a plain POST client that only ever asks for
// application/json and a streaming client that asks for both get the same
// 406-then-JSON-RPC-frame treatment (spec.md §4.9, seed scenario #5).
func ValidateAccept(r *http.Request, required ...string) error {
	accept := r.Header.Get("Accept")
	if accept == "" || accept == "*/*" {
		return nil
	}
	for _, want := range required {
		if !strings.Contains(accept, want) {
			return fmt.Errorf("Accept header must include %s", strings.Join(required, " and "))
		}
	}
	return nil
}

// ValidateContentType requires r's Content-Type to start with want.
func ValidateContentType(r *http.Request, want string) error {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, want) {
		return fmt.Errorf("Content-Type must be %s, got %q", want, ct)
	}
	return nil
}

// ValidateProtocolVersion requires r's MCP-Protocol-Version header, when
// present, to name one of supported -- the header is optional, so its
// absence is never a failure.
func ValidateProtocolVersion(r *http.Request, supported []string) error {
	version := r.Header.Get("MCP-Protocol-Version")
	if version == "" {
		return nil
	}
	for _, s := range supported {
		if s == version {
			return nil
		}
	}
	return fmt.Errorf("unsupported MCP-Protocol-Version %q", version)
}
