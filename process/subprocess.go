package process

import (
	"context"

	goerrors "github.com/kbukum/procexec/errors"
	"github.com/kbukum/procexec/provider"
)

var _ provider.RequestResponse[string, string] = (*SubprocessProvider[string, string])(nil)

// SubprocessProvider turns a command-line tool into a typed
// provider.RequestResponse. buildJob maps the input to a Job and parseOut
// maps the Result to the output.
type SubprocessProvider[I, O any] struct {
	name      string
	buildJob  func(I) Job
	parseOut  func(*Result) (O, error)
	runner    *Runner
	available func(context.Context) bool
}

// NewSubprocessProvider creates a RequestResponse provider backed by subprocess execution.
func NewSubprocessProvider[I, O any](
	name string,
	buildJob func(I) Job,
	parseOut func(*Result) (O, error),
) *SubprocessProvider[I, O] {
	return &SubprocessProvider[I, O]{
		name:     name,
		buildJob: buildJob,
		parseOut: parseOut,
	}
}

// WithRunner routes executions through r and its resilience state.
func (p *SubprocessProvider[I, O]) WithRunner(r *Runner) *SubprocessProvider[I, O] {
	p.runner = r
	return p
}

// WithAvailabilityCheck sets a custom availability check for the provider.
func (p *SubprocessProvider[I, O]) WithAvailabilityCheck(fn func(context.Context) bool) *SubprocessProvider[I, O] {
	p.available = fn
	return p
}

func (p *SubprocessProvider[I, O]) Name() string { return p.name }

func (p *SubprocessProvider[I, O]) IsAvailable(ctx context.Context) bool {
	if p.available != nil {
		return p.available(ctx)
	}
	return true
}

// Execute runs the job built from input. Any failure to run it is reported
// as EXTERNAL_SERVICE_ERROR with the original error as cause.
func (p *SubprocessProvider[I, O]) Execute(ctx context.Context, input I) (O, error) {
	job := p.buildJob(input)

	var result *Result
	var err error
	if p.runner != nil {
		result, err = p.runner.Run(ctx, job)
	} else {
		result, err = job.Process().Execute(ctx)
	}
	if err != nil {
		var zero O
		return zero, goerrors.ExternalServiceError(p.name, err)
	}
	return p.parseOut(result)
}
