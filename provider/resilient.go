package provider

import (
	"context"
	"errors"

	goerrors "github.com/kbukum/procexec/errors"
	"github.com/kbukum/procexec/resilience"
)

// WithResilience wraps a RequestResponse provider with resilience policies.
// Execution chain: Bulkhead -> CircuitBreaker -> Retry -> Execute.
// An empty config returns the provider unchanged.
func WithResilience[I, O any](p RequestResponse[I, O], cfg ResilienceConfig) RequestResponse[I, O] {
	if cfg.IsEmpty() {
		return p
	}
	return &resilientRR[I, O]{
		inner: p,
		state: BuildResilience(p.Name(), cfg),
	}
}

type resilientRR[I, O any] struct {
	inner RequestResponse[I, O]
	state *ResilienceState
}

func (r *resilientRR[I, O]) Name() string { return r.inner.Name() }

// IsAvailable reports false while the circuit is open.
func (r *resilientRR[I, O]) IsAvailable(ctx context.Context) bool {
	if cb := r.state.CircuitBreaker(); cb != nil && cb.State() == resilience.StateOpen {
		return false
	}
	return r.inner.IsAvailable(ctx)
}

func (r *resilientRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	return ExecuteWithResilience(ctx, r.state, func() (O, error) {
		return r.inner.Execute(ctx, input)
	})
}

// ExecuteWithResilience runs fn through the chain
// Bulkhead -> CircuitBreaker -> Retry -> fn.
// The value of the last attempt is returned even when it failed.
// Resilience sentinels are converted to AppErrors.
func ExecuteWithResilience[T any](ctx context.Context, s *ResilienceState, fn func() (T, error)) (T, error) {
	if s == nil {
		return fn()
	}

	call := fn
	if s.retryCfg != nil {
		retryCfg := *s.retryCfg
		call = func() (T, error) {
			return resilience.Retry(ctx, retryCfg, fn)
		}
	}

	if s.cb != nil {
		cbCall := call
		call = func() (T, error) {
			var result T
			var resultErr error
			cbErr := s.cb.Execute(func() error {
				result, resultErr = cbCall()
				return resultErr
			})
			if resultErr != nil {
				return result, resultErr
			}
			return result, cbErr
		}
	}

	var result T
	var err error
	if s.bh != nil {
		result, err = resilience.ExecuteWithResult(ctx, s.bh, call)
	} else {
		result, err = call()
	}
	return result, wrapResilienceError(s.name, err)
}

// wrapResilienceError converts resilience sentinels and bare context errors
// to AppErrors. AppErrors pass through untouched.
func wrapResilienceError(name string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := goerrors.AsAppError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return goerrors.ServiceUnavailable(name).WithCause(err).
			WithDetail("reason", "circuit open")
	case errors.Is(err, resilience.ErrBulkheadFull), errors.Is(err, resilience.ErrBulkheadTimeout):
		return goerrors.ServiceUnavailable(name).WithCause(err).
			WithDetail("reason", "concurrency limit reached")
	case errors.Is(err, context.Canceled):
		return goerrors.Timeout("request canceled").WithCause(err)
	case errors.Is(err, context.DeadlineExceeded):
		return goerrors.Timeout("deadline exceeded").WithCause(err)
	default:
		return err
	}
}
