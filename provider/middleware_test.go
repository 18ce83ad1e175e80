package provider_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	goerrors "github.com/kbukum/procexec/errors"
	"github.com/kbukum/procexec/logger"
	"github.com/kbukum/procexec/observability"
	"github.com/kbukum/procexec/provider"
)

func TestChain_Empty(t *testing.T) {
	wrapped := provider.Chain[string, outcome]()(echo("test"))
	if wrapped.Name() != "test" {
		t.Fatalf("expected 'test', got %q", wrapped.Name())
	}
	result, err := wrapped.Execute(context.Background(), "hello")
	if err != nil || result.out != "echo:hello" {
		t.Fatalf("expected echo:hello, got %q, err %v", result.out, err)
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(tag string) provider.Middleware[string, outcome] {
		return func(inner provider.RequestResponse[string, outcome]) provider.RequestResponse[string, outcome] {
			return provider.Func[string, outcome]{
				ProviderName: inner.Name(),
				Fn: func(ctx context.Context, in string) (outcome, error) {
					order = append(order, tag+":before")
					out, err := inner.Execute(ctx, in)
					order = append(order, tag+":after")
					return out, err
				},
			}
		}
	}

	if _, err := provider.Chain(mw("A"), mw("B"), mw("C"))(echo("test")).Execute(context.Background(), "x"); err != nil {
		t.Fatal(err)
	}

	want := []string{"A:before", "B:before", "C:before", "C:after", "B:after", "A:after"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, order)
	}
}

func TestWithLogging(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "debug", "test")

	if _, err := provider.WithLogging[string, outcome](log)(echo("ok-job")).Execute(context.Background(), "hi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "provider execute ok") || !strings.Contains(buf.String(), `"provider":"ok-job"`) {
		t.Errorf("expected debug line for ok-job, got %q", buf.String())
	}

	buf.Reset()
	if _, err := provider.WithLogging[string, outcome](log)(failing("bad-job")).Execute(context.Background(), "hi"); err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(buf.String(), `"level":"error"`) || !strings.Contains(buf.String(), errTransient.Error()) {
		t.Errorf("expected error line, got %q", buf.String())
	}
}

func TestMiddlewares_DelegateNameAndAvailability(t *testing.T) {
	metrics, err := observability.NewMetrics(observability.Meter("test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	for name, mw := range map[string]provider.Middleware[string, outcome]{
		"logging": provider.WithLogging[string, outcome](logger.NewNop()),
		"metrics": provider.WithMetrics[string, outcome](metrics),
		"tracing": provider.WithTracing[string, outcome]("svc"),
	} {
		wrapped := mw(echo("inner"))
		if wrapped.Name() != "inner" {
			t.Errorf("%s: expected name 'inner', got %q", name, wrapped.Name())
		}
		if !wrapped.IsAvailable(context.Background()) {
			t.Errorf("%s: expected IsAvailable to delegate", name)
		}
	}
}

func TestWithMetrics_RecordsOutcomes(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	metrics, err := observability.NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	ctx := context.Background()
	withErrors := provider.Func[string, outcome]{
		ProviderName: "job",
		Fn: func(context.Context, string) (outcome, error) {
			return outcome{failed: true}, nil
		},
	}
	appFail := provider.Func[string, outcome]{
		ProviderName: "job",
		Fn: func(context.Context, string) (outcome, error) {
			return outcome{}, goerrors.New(goerrors.ErrCodeSpawnFailed, "fork")
		},
	}
	for _, p := range []provider.RequestResponse[string, outcome]{echo("job"), withErrors, appFail, failing("job")} {
		_, _ = provider.WithMetrics[string, outcome](metrics)(p).Execute(ctx, "x")
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}

	outcomes := map[string]int64{}
	codes := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				switch m.Name {
				case "process.executions":
					v, _ := dp.Attributes.Value(attribute.Key("outcome"))
					outcomes[v.AsString()] += dp.Value
				case "process.errors":
					v, _ := dp.Attributes.Value(attribute.Key("code"))
					codes[v.AsString()] += dp.Value
				}
			}
		}
	}

	want := map[string]int64{
		observability.OutcomeOK:        1,
		observability.OutcomeHasErrors: 1,
		observability.OutcomeError:     2,
	}
	for o, n := range want {
		if outcomes[o] != n {
			t.Errorf("expected %d executions with outcome %q, got %d (%v)", n, o, outcomes[o], outcomes)
		}
	}
	// Plain errors are counted as internal failures.
	if codes[string(goerrors.ErrCodeSpawnFailed)] != 1 || codes[string(goerrors.ErrCodeInternal)] != 1 {
		t.Errorf("expected one SPAWN_FAILED and one INTERNAL_ERROR, got %v", codes)
	}
}

func TestWithTracing_RecordsSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	_, _ = provider.WithTracing[string, outcome]("svc")(echo("ok")).Execute(context.Background(), "x")
	_, _ = provider.WithTracing[string, outcome]("svc")(failing("bad")).Execute(context.Background(), "x")

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name != "svc.ok" || spans[1].Name != "svc.bad" {
		t.Errorf("unexpected span names %q, %q", spans[0].Name, spans[1].Name)
	}
	if len(spans[0].Events) != 0 {
		t.Errorf("expected no events on the ok span, got %v", spans[0].Events)
	}
	if len(spans[1].Events) != 1 {
		t.Errorf("expected an exception event on the failed span, got %v", spans[1].Events)
	}
}
