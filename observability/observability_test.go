package observability

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDefaultTracerConfig(t *testing.T) {
	cfg := DefaultTracerConfig("test-service")

	if cfg.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %s", cfg.ServiceName)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected Endpoint 'localhost:4318', got %s", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
	if !cfg.Insecure {
		t.Error("expected Insecure to be true")
	}
}

func TestDefaultMeterConfig(t *testing.T) {
	cfg := DefaultMeterConfig("test-service")
	if cfg.Interval != 15*time.Second {
		t.Errorf("expected Interval 15s, got %v", cfg.Interval)
	}
}

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{2.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
	}
	for _, tc := range tests {
		if got := samplerFor(tc.rate).Description(); got != tc.want {
			t.Errorf("samplerFor(%v) = %s, want %s", tc.rate, got, tc.want)
		}
	}
	if got := samplerFor(0.5).Description(); got == "AlwaysOnSampler" || got == "AlwaysOffSampler" {
		t.Errorf("expected ratio sampler for 0.5, got %s", got)
	}
}

func TestNewResource(t *testing.T) {
	res, err := newResource("svc", "1.2.3", "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, kv := range res.Attributes() {
		if string(kv.Key) == "service.name" && kv.Value.AsString() == "svc" {
			found = true
		}
	}
	if !found {
		t.Error("expected service.name=svc in resource")
	}
}

func TestInitTracerAndMeter(t *testing.T) {
	ctx := context.Background()
	prevTP := otel.GetTracerProvider()
	prevMP := otel.GetMeterProvider()
	defer otel.SetTracerProvider(prevTP)
	defer otel.SetMeterProvider(prevMP)

	tp, err := InitTracer(ctx, DefaultTracerConfig("init-test"))
	if err != nil {
		t.Fatalf("InitTracer: %v", err)
	}
	mp, err := InitMeter(ctx, DefaultMeterConfig("init-test"))
	if err != nil {
		t.Fatalf("InitMeter: %v", err)
	}

	// No collector is listening; bound the final flush.
	shutdownCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	_ = tp.Shutdown(shutdownCtx)
	_ = mp.Shutdown(shutdownCtx)
}

func TestStartSpanRecordsAttributesAndErrors(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	ctx, span := StartSpan(context.Background(), SpanProcessExecute)
	SetSpanAttribute(ctx, AttrCommand, "echo hi")
	SetSpanAttribute(ctx, AttrExitStatus, 3)
	SetSpanAttribute(ctx, AttrPID, int64(1234))
	SetSpanAttribute(ctx, "ratio", 0.5)
	SetSpanAttribute(ctx, AttrHasErrors, true)
	SetSpanAttribute(ctx, "args", []string{"a", "b"})
	SetSpanAttribute(ctx, "ignored", struct{}{})
	SetSpanError(ctx, fmt.Errorf("boom"))
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	got := spans[0]
	if got.Name != SpanProcessExecute {
		t.Errorf("expected span name %q, got %q", SpanProcessExecute, got.Name)
	}
	if len(got.Attributes) != 6 {
		t.Errorf("expected 6 attributes, got %d: %v", len(got.Attributes), got.Attributes)
	}
	if len(got.Events) != 1 || got.Events[0].Name != "exception" {
		t.Errorf("expected one exception event, got %v", got.Events)
	}
}

func TestSpanHelpersWithoutSpan(t *testing.T) {
	ctx := context.Background()
	// must not panic on a non-recording span
	SetSpanAttribute(ctx, "key", "value")
	SetSpanError(ctx, fmt.Errorf("no span"))
}

func TestNewMetricsNoop(t *testing.T) {
	metrics, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}

	ctx := context.Background()
	metrics.ExecutionStarted(ctx, "job")
	metrics.ExecutionFinished(ctx, "job", OutcomeOK, 100*time.Millisecond)
	metrics.RecordError(ctx, "job", "SPAWN_FAILED")
}

func TestMetricsRecorded(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	metrics.ExecutionStarted(ctx, "job")
	metrics.ExecutionFinished(ctx, "job", OutcomeHasErrors, 10*time.Millisecond)
	metrics.RecordError(ctx, "job", "TIMEOUT")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}

	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if data, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}

	if sums["process.executions"] != 1 {
		t.Errorf("expected 1 execution, got %d", sums["process.executions"])
	}
	if sums["process.active"] != 0 {
		t.Errorf("expected active back to 0, got %d", sums["process.active"])
	}
	if sums["process.errors"] != 1 {
		t.Errorf("expected 1 error, got %d", sums["process.errors"])
	}
}
