package otel

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestNewProviders_EmptyEndpointIsNoop(t *testing.T) {
	ctx := context.Background()
	providers, err := NewProviders(ctx, "   ", "policysonar-test", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	if providers.TracerProvider == nil || providers.MeterProvider == nil || providers.LoggerProvider == nil {
		t.Fatal("no-op providers should still be non-nil")
	}
	// No-op shutdown is callable repeatedly.
	if err := providers.Shutdown(ctx); err != nil {
		t.Errorf("first shutdown: %v", err)
	}
	if err := providers.Shutdown(ctx); err != nil {
		t.Errorf("second shutdown: %v", err)
	}
}

func TestNewProviders_InvalidEndpoint(t *testing.T) {
	for _, endpoint := range []string{"://invalid", "http://[invalid", "http://"} {
		if _, err := NewProviders(context.Background(), endpoint, "policysonar-test", false); err == nil {
			t.Errorf("NewProviders(%q) should fail", endpoint)
		}
	}
}

func TestParseEndpoint(t *testing.T) {
	cases := []struct {
		endpoint     string
		wantTarget   string
		wantInsecure bool
	}{
		{"localhost:4317", "localhost:4317", true},
		{"http://collector:4317", "collector:4317", true},
		{"https://collector:4317", "collector:4317", false},
		{"http://collector:4317/v1/traces", "collector:4317", true},
	}
	for _, c := range cases {
		target, insecure, err := parseEndpoint(c.endpoint)
		if err != nil {
			t.Errorf("parseEndpoint(%q): %v", c.endpoint, err)
			continue
		}
		if target != c.wantTarget || insecure != c.wantInsecure {
			t.Errorf("parseEndpoint(%q) = %q/%v, want %q/%v",
				c.endpoint, target, insecure, c.wantTarget, c.wantInsecure)
		}
	}
}

func TestSetGlobal(t *testing.T) {
	providers, err := NewProviders(context.Background(), "", "policysonar-test", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}

	oldTracer := otel.GetTracerProvider()
	oldMeter := otel.GetMeterProvider()
	defer func() {
		otel.SetTracerProvider(oldTracer)
		otel.SetMeterProvider(oldMeter)
	}()

	providers.SetGlobal()
	if otel.GetTracerProvider() == oldTracer {
		t.Error("tracer provider not installed")
	}
	if otel.GetMeterProvider() == oldMeter {
		t.Error("meter provider not installed")
	}
}

func TestNewMetrics(t *testing.T) {
	providers, err := NewProviders(context.Background(), "", "policysonar-test", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	m, err := NewMetrics(providers.MeterProvider)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	// Recording against no-op providers must not panic.
	ctx := context.Background()
	m.RecordAnalogAnalysis(ctx)
	m.RecordSimulationRun(ctx, "keynesian")
	m.RecordConsensusRequest(ctx)

	// A nil Metrics records nothing and must not panic either.
	var unset *Metrics
	unset.RecordAnalogAnalysis(ctx)
	unset.RecordSimulationRun(ctx, "keynesian")
	unset.RecordConsensusRequest(ctx)
}
