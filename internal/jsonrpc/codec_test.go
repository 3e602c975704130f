package jsonrpc

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseRequest(t *testing.T) {
	raw := []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{"cursor":""}}`)
	f, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if f.Kind != KindRequest {
		t.Fatalf("want KindRequest, got %v", f.Kind)
	}
	if f.Request.Method != "tools/list" {
		t.Fatalf("want method tools/list, got %q", f.Request.Method)
	}
	if f.Request.ID.Value() != float64(1) {
		t.Fatalf("want id 1, got %v", f.Request.ID.Value())
	}
}

func TestParseNotification(t *testing.T) {
	raw := []byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	f, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if f.Kind != KindNotification {
		t.Fatalf("want KindNotification, got %v", f.Kind)
	}
	if f.Notification.Method != "notifications/initialized" {
		t.Fatalf("unexpected method: %q", f.Notification.Method)
	}
}

func TestParseRejectsBatch(t *testing.T) {
	raw := []byte(`[{"jsonrpc":"2.0","id":1,"method":"a"}]`)
	if _, err := Parse(raw); err == nil {
		t.Fatalf("expected error for batch request")
	}
}

func TestParseRejectsBadVersion(t *testing.T) {
	raw := []byte(`{"jsonrpc":"1.0","id":1,"method":"a"}`)
	if _, err := Parse(raw); err == nil {
		t.Fatalf("expected error for bad jsonrpc version")
	}
}

func TestParseRejectsMissingMethod(t *testing.T) {
	raw := []byte(`{"jsonrpc":"2.0","id":1}`)
	if _, err := Parse(raw); err == nil {
		t.Fatalf("expected error for missing method")
	}
}

func TestParseRejectsInvalidJSON(t *testing.T) {
	if _, err := Parse([]byte(`{not json`)); err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
}

func TestBuildResponseRoundTrips(t *testing.T) {
	resp := BuildResponse(NewID("abc"), map[string]any{"ok": true})
	raw, err := Marshal(resp)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if strings.Contains(string(raw), "\n") {
		t.Fatalf("marshaled frame must not contain embedded newlines: %q", raw)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unexpected error decoding: %s", err)
	}
	if decoded["id"] != "abc" {
		t.Fatalf("want id abc, got %v", decoded["id"])
	}
}

func TestBuildErrorUsesNoIDSentinelWhenIDUnknown(t *testing.T) {
	errResp := BuildError(ParseError, NewID(NoIDSentinel), "parse error", nil)
	if errResp.ID.Value() != NoIDSentinel {
		t.Fatalf("want sentinel id, got %v", errResp.ID.Value())
	}
	if errResp.Error.Code != ParseError {
		t.Fatalf("want code %d, got %d", ParseError, errResp.Error.Code)
	}
}

func TestProgressTokenExtraction(t *testing.T) {
	params := json.RawMessage(`{"name":"x","_meta":{"progressToken":"tok-1"}}`)
	tok, ok := ProgressToken(params)
	if !ok || tok != "tok-1" {
		t.Fatalf("want tok-1, got %v, %v", tok, ok)
	}

	_, ok = ProgressToken(json.RawMessage(`{"name":"x"}`))
	if ok {
		t.Fatalf("expected no progress token")
	}

	_, ok = ProgressToken(nil)
	if ok {
		t.Fatalf("expected no progress token for nil params")
	}
}
