// Package observability provides OpenTelemetry tracing and metrics for
// process executions.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("procexec"))
//	defer tp.Shutdown(ctx)
//
// Every Process.Execute opens a "process.execute" span on the global tracer,
// so installing a provider is all that is needed to see executions.
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("procexec"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("procexec"))
//	metrics.ExecutionFinished(ctx, "build", observability.OutcomeOK, d)
package observability
