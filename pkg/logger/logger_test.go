package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/cwrk-planet/chatcord/pkg/logger"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestDetectEnv(t *testing.T) {
	t.Setenv("APP_ENV", "")
	if got := logger.DetectEnv(); got != logger.EnvDev {
		t.Fatalf("default should be dev, got %q", got)
	}

	t.Setenv("APP_ENV", "staging")
	if got := logger.DetectEnv(); got != logger.EnvStage {
		t.Fatalf("expected stage, got %q", got)
	}

	t.Setenv("APP_ENV", "production")
	if got := logger.DetectEnv(); got != logger.EnvProd {
		t.Fatalf("expected prod, got %q", got)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := logger.ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInit_DevStd_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	logger.Init(logger.Config{
		Service: "chatcord",
		Version: "v0.0.1",
		Env:     logger.EnvDev,
		Backend: logger.BackendStd,
		Level:   slog.LevelDebug,
		Output:  &buf,
	})
	slog.Info("hello world")

	out := buf.String()
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Fatalf("expected text output in dev/std, got JSON: %s", out)
	}
	for _, want := range []string{"hello world", "service=chatcord", "env=dev", "instance_id="} {
		if !strings.Contains(out, want) {
			t.Fatalf("%q missing: %s", want, out)
		}
	}
}

func TestInit_ProdStd_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger.Init(logger.Config{
		Service: "chatcord",
		Env:     logger.EnvProd,
		Backend: logger.BackendStd,
		Output:  &buf,
	})
	slog.Warn("disk", slog.Int("free", 3))

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("expected JSON line, got %s, err=%v", buf.String(), err)
	}
	if m["msg"] != "disk" || m["service"] != "chatcord" || m["level"] != "WARN" {
		t.Fatalf("unexpected record: %v", m)
	}
}

func TestInit_ProdZap_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger.Init(logger.Config{
		Service:          "chatcord",
		Version:          "1.2.3",
		Env:              logger.EnvProd,
		Backend:          logger.BackendZap,
		Level:            slog.LevelInfo,
		SampleInitial:    100000,
		SampleThereafter: 100000,
		Output:           &buf,
	})
	slog.Info("booted", slog.String("k", "v"))
	_ = logger.Sync()

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("expected JSON line, got %s, err=%v", buf.String(), err)
	}
	if m["msg"] != "booted" {
		t.Fatalf("msg mismatch: %v", m["msg"])
	}
	if m["service"] != "chatcord" || m["env"] != "prod" || m["version"] != "1.2.3" {
		t.Fatalf("attrs missing: service=%v env=%v version=%v", m["service"], m["env"], m["version"])
	}
	if m["level"] != "INFO" {
		t.Fatalf("level mismatch: %v", m["level"])
	}
	if m["k"] != "v" {
		t.Fatalf("custom field missing: %v", m["k"])
	}
}

func TestInit_LevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	logger.Init(logger.Config{Env: logger.EnvDev, Backend: logger.BackendStd, Level: slog.LevelInfo, Output: &buf})
	slog.Debug("hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("debug record leaked at info level: %s", buf.String())
	}
}

func TestFromCtx_PropagatesTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	l := logger.Init(logger.Config{
		Service: "chatcord",
		Env:     logger.EnvProd,
		Backend: logger.BackendStd,
		Output:  &buf,
	})

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	logger.FromCtx(ctx, l).InfoContext(ctx, "with trace")
	span.End()

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("expected JSON, got: %s, err=%v", buf.String(), err)
	}
	if m["trace_id"] == nil || m["span_id"] == nil {
		t.Fatalf("trace_id/span_id missing in log: %v", m)
	}
	if m["msg"] != "with trace" {
		t.Fatalf("msg mismatch: %v", m["msg"])
	}
}

func TestAttrsFromCtx_NoSpan(t *testing.T) {
	if attrs := logger.AttrsFromCtx(context.Background()); attrs != nil {
		t.Fatalf("expected no attrs without a span, got %v", attrs)
	}
}
