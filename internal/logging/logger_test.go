package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newBuffered(service string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New(service)
	l.SetOutput(&buf)
	return l, &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("log line %q is not JSON: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		serviceName string
	}{
		{
			name:        "create logger with service name",
			serviceName: "ticketsim",
		},
		{
			name:        "create logger with empty service name",
			serviceName: "",
		},
		{
			name:        "create logger with complex service name",
			serviceName: "supportflow-receiver-v1.2.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.serviceName)

			if logger == nil {
				t.Fatal("New() returned nil logger")
			}
			if logger.service != tt.serviceName {
				t.Errorf("New() service = %q, want %q", logger.service, tt.serviceName)
			}
			if logger.minLevel != LevelInfo {
				t.Errorf("New() minLevel = %q, want info", logger.minLevel)
			}
		})
	}
}

func TestLogger_WithContext(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(trace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)

	tests := []struct {
		name     string
		hasTrace bool
	}{
		{name: "with trace context", hasTrace: true},
		{name: "without trace context", hasTrace: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New("ticketsim")
			ctx := context.Background()

			if tt.hasTrace {
				newCtx, span := otel.Tracer("test-tracer").Start(ctx, "test-span")
				ctx = newCtx
				defer span.End()
			}

			before := time.Now().UTC()
			entry := logger.WithContext(ctx)
			after := time.Now().UTC()

			if entry.Service != "ticketsim" {
				t.Errorf("WithContext() Service = %q, want ticketsim", entry.Service)
			}
			if entry.Time.Before(before) || entry.Time.After(after) {
				t.Errorf("WithContext() Time %v not between %v and %v", entry.Time, before, after)
			}
			if entry.Fields == nil {
				t.Error("WithContext() Fields should not be nil")
			}
			if tt.hasTrace && entry.TraceID == "" {
				t.Error("WithContext() TraceID should not be empty with trace context")
			}
			if tt.hasTrace && entry.SpanID == "" {
				t.Error("WithContext() SpanID should not be empty with trace context")
			}
			if !tt.hasTrace && entry.TraceID != "" {
				t.Errorf("WithContext() TraceID = %q, want empty without trace", entry.TraceID)
			}
		})
	}
}

func TestLogger_WithFields(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]any
	}{
		{name: "with string fields", fields: map[string]any{"key1": "value1", "key2": "value2"}},
		{name: "with mixed type fields", fields: map[string]any{"count": 42, "active": true}},
		{name: "with empty fields", fields: map[string]any{}},
		{name: "with nil fields", fields: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := New("ticketsim").WithFields(tt.fields)

			if tt.fields == nil {
				if entry.Fields != nil {
					t.Error("WithFields() Fields should be nil when input is nil")
				}
				return
			}
			if len(entry.Fields) != len(tt.fields) {
				t.Errorf("WithFields() Fields length = %d, want %d", len(entry.Fields), len(tt.fields))
			}
			for k, v := range tt.fields {
				if entry.Fields[k] != v {
					t.Errorf("WithFields() Fields[%q] = %v, want %v", k, entry.Fields[k], v)
				}
			}
		})
	}
}

func TestLogEntry_Output(t *testing.T) {
	logger, buf := newBuffered("ticketsim")

	logger.Plain().
		WithRun("run-1").
		WithTicket("T-7").
		WithEndpoint("http://localhost:8081/tickets").
		WithField("status_code", 200).
		WithError(errors.New("boom")).
		Info("ticket sent")

	lines := decodeLines(t, buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	got := lines[0]

	checks := map[string]string{
		"level":       "info",
		"msg":         "ticket sent",
		"service":     "ticketsim",
		"run_id":      "run-1",
		"external_id": "T-7",
		"endpoint":    "http://localhost:8081/tickets",
	}
	for k, want := range checks {
		if got[k] != want {
			t.Errorf("%s = %v, want %q", k, got[k], want)
		}
	}
	fields, ok := got["fields"].(map[string]any)
	if !ok {
		t.Fatalf("fields = %v, want object", got["fields"])
	}
	if fields["status_code"] != float64(200) || fields["error"] != "boom" {
		t.Errorf("fields = %v", fields)
	}
	if _, err := time.Parse(time.RFC3339Nano, got["time"].(string)); err != nil {
		t.Errorf("time = %v: %v", got["time"], err)
	}
}

func TestLogEntry_EmptyFieldsOmitted(t *testing.T) {
	logger, buf := newBuffered("ticketsim")
	logger.Plain().Info("hello")

	if strings.Contains(buf.String(), `"fields"`) {
		t.Errorf("empty fields should be omitted: %s", buf.String())
	}
	if strings.Contains(buf.String(), `"run_id"`) {
		t.Errorf("empty run_id should be omitted: %s", buf.String())
	}
}

func TestLogger_SetLevel(t *testing.T) {
	tests := []struct {
		name      string
		level     LogLevel
		wantCount int
	}{
		{name: "debug shows everything", level: LevelDebug, wantCount: 4},
		{name: "info hides debug", level: LevelInfo, wantCount: 3},
		{name: "warn", level: LevelWarn, wantCount: 2},
		{name: "error", level: LevelError, wantCount: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newBuffered("ticketsim")
			logger.SetLevel(tt.level)

			logger.Plain().Debug("d")
			logger.Plain().Infof("i %d", 1)
			logger.Plain().Warnf("w %s", "x")
			logger.Plain().Errorf("e %v", true)

			if got := len(decodeLines(t, buf)); got != tt.wantCount {
				t.Errorf("lines = %d, want %d", got, tt.wantCount)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"fatal", LevelFatal},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDefaultLogger(t *testing.T) {
	var buf bytes.Buffer
	Default().SetOutput(&buf)
	defer Default().SetOutput(os.Stderr)
	SetDefaultService("ticketsim-test")
	defer SetDefaultService("supportflow")

	Default().WithContext(context.Background()).Info("from context")
	Default().WithFields(map[string]any{"k": "v"}).Warn("from fields")
	Default().Plain().Error("plain")

	lines := decodeLines(t, &buf)
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
	for _, l := range lines {
		if l["service"] != "ticketsim-test" {
			t.Errorf("service = %v, want ticketsim-test", l["service"])
		}
	}
}
