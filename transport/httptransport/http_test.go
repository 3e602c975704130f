package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sreenaths/minimcp-go"
	"github.com/sreenaths/minimcp-go/internal/log"
	"github.com/sreenaths/minimcp-go/internal/schema"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	server := minimcp.New("test", minimcp.Options{})
	echo, err := schema.NewDescriptor("echo", "", schema.Object(map[string]*schema.Schema{
		"text": schema.String(""),
	}, "text"), nil, func(_ context.Context, args map[string]any) (any, error) {
		return args["text"].(string), nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := server.Tool.Add(echo); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	logger, err := log.NewStderrLogger(nopWriter{}, log.Error)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	return New(server, logger)
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestHandlerRejectsGet(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("want 405, got %d", rec.Code)
	}
}

func TestHandlerAnswersToolCall(t *testing.T) {
	h := newTestHandler(t)
	body := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"echo","arguments":{"text":"hi"}}}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Result struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshaling response: %s", err)
	}
	if len(envelope.Result.Content) != 1 || envelope.Result.Content[0].Text != "hi" {
		t.Fatalf("unexpected response: %s", rec.Body.String())
	}
}

func TestHandlerAcksNotificationWith202(t *testing.T) {
	h := newTestHandler(t)
	body := `{"jsonrpc":"2.0","method":"notifications/initialized"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("want 202, got %d", rec.Code)
	}
}

func TestHandlerRejectsUnacceptableAccept(t *testing.T) {
	h := newTestHandler(t)
	body := `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/plain")
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotAcceptable {
		t.Fatalf("want 406, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"code":-32600`) {
		t.Fatalf("want a JSON-RPC INVALID_REQUEST body, got %s", rec.Body.String())
	}
}

func TestHandlerRejectsMalformedJSONWith400(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"code":-32700`) {
		t.Fatalf("want a JSON-RPC PARSE_ERROR body, got %s", rec.Body.String())
	}
}

func TestHandlerRejectsBadEnvelopeAsInvalidRequest(t *testing.T) {
	h := newTestHandler(t)
	body := `{"jsonrpc":"1.0","id":1,"method":"tools/list"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"code":-32600`) {
		t.Fatalf("want a JSON-RPC INVALID_REQUEST body, got %s", rec.Body.String())
	}
}

func TestHandlerRejectsBadContentType(t *testing.T) {
	h := newTestHandler(t)
	body := `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("want 415, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"code":-32600`) {
		t.Fatalf("want a JSON-RPC INVALID_REQUEST body, got %s", rec.Body.String())
	}
}
