// Package resilience provides the guards the process runner wraps around
// executions:
//   - CircuitBreaker: stops spawning a command that keeps failing
//   - Retry: re-executes with exponential backoff
//   - Bulkhead: caps the number of concurrent children
//
// They compose from the outside in:
//
//	bh := resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 4})
//	cb := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("build"))
//
//	err := bh.Execute(ctx, func() error {
//	    return cb.Execute(func() error {
//	        return resilience.RetryFunc(ctx, resilience.DefaultRetryConfig(), run)
//	    })
//	})
package resilience
