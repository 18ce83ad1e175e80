// Package provider defines the request/response provider abstraction that
// process execution is exposed through, plus composable middleware.
//
// A RequestResponse[I, O] takes one input and returns one output. Middleware
// wraps a provider with cross-cutting behaviour; Chain composes several:
//
//	wrapped := provider.Chain(
//	    provider.WithLogging[process.Job, *process.Result](log),
//	    provider.WithMetrics[process.Job, *process.Result](metrics),
//	    provider.WithTracing[process.Job, *process.Result]("procexec"),
//	)(process.NewAdapter(cfg))
//
// WithResilience and ExecuteWithResilience apply a bulkhead, a circuit
// breaker and retry, in that order from the outside in.
package provider
