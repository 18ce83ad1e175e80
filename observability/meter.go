package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/procexec/logger"
)

// Execution outcomes recorded on process.executions.
const (
	OutcomeOK        = "ok"
	OutcomeHasErrors = "has_errors"
	OutcomeError     = "error"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	ServiceName    string        `yaml:"service_name" mapstructure:"service_name"`
	ServiceVersion string        `yaml:"service_version" mapstructure:"service_version"`
	Environment    string        `yaml:"environment" mapstructure:"environment"`
	Endpoint       string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure       bool          `yaml:"insecure" mapstructure:"insecure"`
	Interval       time.Duration `yaml:"interval" mapstructure:"interval"`
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter installs a global MeterProvider exporting over OTLP/HTTP.
// The caller must Shutdown the returned provider on exit.
func InitMeter(ctx context.Context, cfg MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(cfg.ServiceName, cfg.ServiceVersion, cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Get("observability").Info("meter initialized", logger.Fields(
		"service", cfg.ServiceName,
		"endpoint", cfg.Endpoint,
		"interval", cfg.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded around process executions.
type Metrics struct {
	executions metric.Int64Counter
	duration   metric.Float64Histogram
	active     metric.Int64UpDownCounter
	errors     metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	executions, err := meter.Int64Counter("process.executions",
		metric.WithDescription("Completed process executions by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating process.executions counter: %w", err)
	}

	duration, err := meter.Float64Histogram("process.duration",
		metric.WithDescription("Wall time from spawn to reap"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating process.duration histogram: %w", err)
	}

	active, err := meter.Int64UpDownCounter("process.active",
		metric.WithDescription("Children currently running"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating process.active counter: %w", err)
	}

	errs, err := meter.Int64Counter("process.errors",
		metric.WithDescription("Process-level failures by error code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating process.errors counter: %w", err)
	}

	return &Metrics{
		executions: executions,
		duration:   duration,
		active:     active,
		errors:     errs,
	}, nil
}

// ExecutionStarted increments the active execution count.
func (m *Metrics) ExecutionStarted(ctx context.Context, name string) {
	m.active.Add(ctx, 1, metric.WithAttributes(attribute.String("name", name)))
}

// ExecutionFinished decrements the active count and records the outcome and duration.
func (m *Metrics) ExecutionFinished(ctx context.Context, name, outcome string, d time.Duration) {
	nameAttr := attribute.String("name", name)
	m.active.Add(ctx, -1, metric.WithAttributes(nameAttr))
	m.executions.Add(ctx, 1, metric.WithAttributes(nameAttr, attribute.String("outcome", outcome)))
	m.duration.Record(ctx, d.Seconds(), metric.WithAttributes(nameAttr))
}

// RecordError records a process-level failure by error code.
func (m *Metrics) RecordError(ctx context.Context, name, code string) {
	m.errors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("name", name),
		attribute.String("code", code),
	))
}
