package telemetry

import (
	"context"
	"errors"
	"strings"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func clearOTELEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"OTEL_ENABLED", "OTEL_SERVICE_NAME", "OTEL_SERVICE_VERSION",
		"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_PROTOCOL",
		"OTEL_EXPORTER_OTLP_HEADERS", "OTEL_EXPORTER_OTLP_INSECURE",
		"OTEL_TRACES_SAMPLER", "OTEL_TRACES_SAMPLER_ARG", "OTEL_RESOURCE_ATTRIBUTES",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		clearOTELEnv(t)
		cfg := LoadFromEnv()

		if cfg.Enabled {
			t.Error("Expected Enabled to be false by default")
		}
		if cfg.ServiceName != DefaultServiceName {
			t.Errorf("Expected ServiceName %q, got %q", DefaultServiceName, cfg.ServiceName)
		}
		if cfg.Protocol != "grpc" {
			t.Errorf("Expected Protocol 'grpc', got %q", cfg.Protocol)
		}
		if len(cfg.Headers) != 0 {
			t.Errorf("Expected no headers, got %v", cfg.Headers)
		}
	})

	t.Run("custom values", func(t *testing.T) {
		clearOTELEnv(t)
		t.Setenv("OTEL_ENABLED", "TRUE")
		t.Setenv("OTEL_SERVICE_NAME", "menus")
		t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "Authorization=Bearer a=b, x-team = trees ,broken")
		t.Setenv("OTEL_RESOURCE_ATTRIBUTES", "env=prod")

		cfg := LoadFromEnv()
		if !cfg.Enabled {
			t.Error("Expected Enabled to be true")
		}
		if cfg.ServiceName != "menus" {
			t.Errorf("Expected ServiceName 'menus', got %q", cfg.ServiceName)
		}
		if cfg.Headers["Authorization"] != "Bearer a=b" || cfg.Headers["x-team"] != "trees" || len(cfg.Headers) != 2 {
			t.Errorf("unexpected headers: %v", cfg.Headers)
		}
		if cfg.ResourceAttrs["env"] != "prod" {
			t.Errorf("unexpected resource attrs: %v", cfg.ResourceAttrs)
		}
	})
}

func TestApply(t *testing.T) {
	base := &Config{ServiceVersion: "unknown", Protocol: "grpc", Endpoint: "collector:4317"}

	out := base.Apply(Overrides{Enabled: true, Protocol: "http", Version: "1.2.0"})
	if !out.Enabled || out.Protocol != "http" || out.Endpoint != "collector:4317" || out.ServiceVersion != "1.2.0" {
		t.Errorf("unexpected config: %+v", out)
	}
	if base.Enabled || base.Protocol != "grpc" {
		t.Error("Apply must not modify the receiver")
	}
}

func TestInit_Disabled(t *testing.T) {
	ctx := context.Background()
	for _, cfg := range []*Config{nil, {Enabled: false}} {
		shutdown, err := Init(ctx, cfg)
		if err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
		if err := shutdown(ctx); err != nil {
			t.Errorf("Expected no error on shutdown, got %v", err)
		}
	}
}

func TestEndSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	_, span := tp.Tracer(InstrumentationName).Start(context.Background(), "build")
	EndSpan(span, errors.New("parent cycle detected"))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if !strings.Contains(spans[0].Status().Description, "parent cycle") {
		t.Errorf("unexpected status: %+v", spans[0].Status())
	}
}

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		in        string
		host      string
		plaintext bool
	}{
		{"http://collector:4318", "collector:4318", true},
		{"https://collector:4318", "collector:4318", false},
		{"collector:4317", "collector:4317", false},
	}
	for _, tt := range tests {
		host, plaintext := splitEndpoint(tt.in)
		if host != tt.host || plaintext != tt.plaintext {
			t.Errorf("splitEndpoint(%q) = %q, %v", tt.in, host, plaintext)
		}
	}
}

func TestParseRatio(t *testing.T) {
	tests := map[string]float64{
		"":     1.0,
		"abc":  1.0,
		"0.25": 0.25,
		"-1":   0,
		"7":    1.0,
	}
	for in, want := range tests {
		if got := parseRatio(in); got != want {
			t.Errorf("parseRatio(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestCreateSampler(t *testing.T) {
	tests := map[string]string{
		"":                       "AlwaysOnSampler",
		"always_off":             "AlwaysOffSampler",
		"traceidratio":           "TraceIDRatioBased",
		"parentbased_always_off": "ParentBased",
	}
	for name, want := range tests {
		got := createSampler(&Config{Sampler: name, SamplerArg: "0.5"}).Description()
		if !strings.HasPrefix(got, want) {
			t.Errorf("createSampler(%q) = %q, want prefix %q", name, got, want)
		}
	}
}
