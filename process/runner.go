package process

import (
	"context"

	goerrors "github.com/kbukum/procexec/errors"
	"github.com/kbukum/procexec/provider"
)

// maxStderrDetail caps the stderr excerpt attached to COMMAND_FAILED errors.
const maxStderrDetail = 512

// Runner executes jobs through persistent resilience state, so repeated
// failures trip the circuit breaker and the bulkhead caps live children
// across calls.
type Runner struct {
	config ExecutorConfig
	exec   provider.RequestResponse[Job, *Result]
	state  *provider.ResilienceState
}

// NewRunner creates a Runner. Middlewares wrap each individual attempt, so
// retries are logged, traced and counted separately.
func NewRunner(cfg ExecutorConfig, middlewares ...provider.Middleware[Job, *Result]) *Runner {
	cfg.ApplyDefaults()
	return &Runner{
		config: cfg,
		exec:   provider.Chain(middlewares...)(NewAdapter(cfg)),
		state:  provider.BuildResilience(cfg.Name, cfg.ResilienceConfig),
	}
}

// Name returns the executor name.
func (r *Runner) Name() string { return r.config.Name }

// Run executes job through the chain Bulkhead -> CircuitBreaker -> Retry.
// With FailOnErrors set, a Result that HasErrors is returned together with a
// COMMAND_FAILED error.
func (r *Runner) Run(ctx context.Context, job Job) (*Result, error) {
	return provider.ExecuteWithResilience(ctx, r.state, func() (*Result, error) {
		result, err := r.exec.Execute(ctx, job)
		if err == nil && r.config.FailOnErrors && result.HasErrors() {
			return result, commandFailed(job.Command, result)
		}
		return result, err
	})
}

func commandFailed(command string, result *Result) *goerrors.AppError {
	stderr := result.Stderr()
	if len(stderr) > maxStderrDetail {
		stderr = stderr[:maxStderrDetail]
	}
	return goerrors.CommandFailed(command, result.Status()).WithDetail("stderr", stderr)
}
