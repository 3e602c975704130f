package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestSeverityToLevel(t *testing.T) {
	tcs := []struct {
		name string
		in   string
		want slog.Level
	}{
		{name: "debug", in: "Debug", want: slog.LevelDebug},
		{name: "info", in: "Info", want: slog.LevelInfo},
		{name: "warn", in: "Warn", want: slog.LevelWarn},
		{name: "error", in: "Error", want: slog.LevelError},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			got, err := severityToLevel(tc.in)
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			if got != tc.want {
				t.Fatalf("incorrect level to severity: got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSeverityToLevelError(t *testing.T) {
	if _, err := severityToLevel("fail"); err == nil {
		t.Fatalf("expected error on incorrect level")
	}
}

func TestStdLoggerRoutesWarnAndErrorToErrWriter(t *testing.T) {
	var out, errW bytes.Buffer
	logger, err := NewStdLogger(&out, &errW, Debug)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	if out.Len() == 0 {
		t.Fatalf("expected debug/info messages on out writer")
	}
	if errW.Len() == 0 {
		t.Fatalf("expected warn/error messages on err writer")
	}
	for _, line := range bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n")) {
		var rec map[string]any
		if err := json.Unmarshal(line, &rec); err != nil {
			t.Fatalf("expected valid JSON log line, got %q: %s", line, err)
		}
	}
}

func TestStdLoggerRespectsLevel(t *testing.T) {
	var out, errW bytes.Buffer
	logger, err := NewStdLogger(&out, &errW, Warn)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	logger.Debug("should be dropped")
	logger.Info("should be dropped")
	if out.Len() != 0 {
		t.Fatalf("expected debug/info to be dropped at warn level, got %q", out.String())
	}
	logger.Warn("should appear")
	if errW.Len() == 0 {
		t.Fatalf("expected warn message to appear")
	}
}

func TestNewStderrLogger(t *testing.T) {
	var errW bytes.Buffer
	logger, err := NewStderrLogger(&errW, Debug)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	logger.Info("goes to stderr, never stdout")
	if errW.Len() == 0 {
		t.Fatalf("expected message to be written to stderr writer")
	}
}
