package provider

import (
	"context"
	"time"

	goerrors "github.com/kbukum/procexec/errors"
	"github.com/kbukum/procexec/observability"
)

// errorReporter is implemented by outputs that can succeed while still
// reporting errors, such as a process result with a non-zero status.
type errorReporter interface {
	HasErrors() bool
}

// WithMetrics returns a Middleware that records execution count, duration,
// in-flight gauge and error codes on the given instruments.
func WithMetrics[I, O any](metrics *observability.Metrics) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return &metricsRR[I, O]{inner: inner, metrics: metrics}
	}
}

type metricsRR[I, O any] struct {
	inner   RequestResponse[I, O]
	metrics *observability.Metrics
}

func (m *metricsRR[I, O]) Name() string                         { return m.inner.Name() }
func (m *metricsRR[I, O]) IsAvailable(ctx context.Context) bool { return m.inner.IsAvailable(ctx) }

func (m *metricsRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	name := m.inner.Name()
	m.metrics.ExecutionStarted(ctx, name)
	start := time.Now()
	output, err := m.inner.Execute(ctx, input)

	outcome := observability.OutcomeOK
	switch {
	case err != nil:
		outcome = observability.OutcomeError
		appErr, ok := goerrors.AsAppError(err)
		if !ok {
			appErr = goerrors.Internal(err)
		}
		m.metrics.RecordError(ctx, name, string(appErr.Code))
	default:
		if r, ok := any(output).(errorReporter); ok && r.HasErrors() {
			outcome = observability.OutcomeHasErrors
		}
	}
	m.metrics.ExecutionFinished(ctx, name, outcome, time.Since(start))

	return output, err
}
