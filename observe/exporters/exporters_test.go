package exporters

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func withEnv(t *testing.T, env map[string]string) {
	t.Helper()
	prev := lookupEnv
	lookupEnv = func(k string) string { return env[k] }
	t.Cleanup(func() { lookupEnv = prev })
}

func TestTracingExporter_UnknownName(t *testing.T) {
	_, err := NewTracingExporter(context.Background(), "zipkin", nil)
	if !errors.Is(err, ErrUnknownExporter) {
		t.Fatalf("err = %v, want ErrUnknownExporter", err)
	}
}

func TestTracingExporter_StdoutAndNone(t *testing.T) {
	var buf bytes.Buffer
	for _, name := range []string{"stdout", "none", ""} {
		exp, err := NewTracingExporter(context.Background(), name, &buf)
		if err != nil {
			t.Fatalf("%q: %v", name, err)
		}
		if exp == nil {
			t.Fatalf("%q: nil exporter", name)
		}
		_ = exp.Shutdown(context.Background())
	}
}

func TestTracingExporter_EndpointRequired(t *testing.T) {
	withEnv(t, nil)
	for _, name := range []string{"otlp", "jaeger"} {
		_, err := NewTracingExporter(context.Background(), name, nil)
		if !errors.Is(err, ErrEndpointNotConfigured) {
			t.Errorf("%s: err = %v, want ErrEndpointNotConfigured", name, err)
		}
	}
}

func TestMetricsReader_UnknownName(t *testing.T) {
	_, err := NewMetricsReader(context.Background(), "statsd", nil)
	if !errors.Is(err, ErrUnknownExporter) {
		t.Fatalf("err = %v, want ErrUnknownExporter", err)
	}
}

func TestMetricsReader_StdoutAndNone(t *testing.T) {
	var buf bytes.Buffer
	for _, name := range []string{"stdout", "none"} {
		r, err := NewMetricsReader(context.Background(), name, &buf)
		if err != nil {
			t.Fatalf("%q: %v", name, err)
		}
		if r == nil {
			t.Fatalf("%q: nil reader", name)
		}
	}
}

func TestMetricsReader_OtlpEndpointRequired(t *testing.T) {
	withEnv(t, map[string]string{"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT": "localhost:4317"})
	_, err := NewMetricsReader(context.Background(), "otlp", nil)
	if !errors.Is(err, ErrEndpointNotConfigured) {
		t.Fatalf("err = %v, want ErrEndpointNotConfigured", err)
	}
}
