package process

import (
	"context"
	"os/exec"

	"github.com/kbukum/procexec/logger"
	"github.com/kbukum/procexec/provider"
)

// compile-time assertions
var _ provider.RequestResponse[Job, *Result] = (*Adapter)(nil)

// Adapter exposes job execution as a provider.RequestResponse, applying
// executor defaults to each job.
type Adapter struct {
	config ExecutorConfig
	log    *logger.Logger
}

// NewAdapter creates a new process adapter.
func NewAdapter(cfg ExecutorConfig) *Adapter {
	cfg.ApplyDefaults()
	return &Adapter{
		config: cfg,
		log:    logger.Get("process").WithComponent(cfg.Name),
	}
}

// Process builds the Process for a job with executor defaults applied.
func (a *Adapter) Process(job Job) *Process {
	if job.Timeout == 0 {
		job.Timeout = a.config.Timeout
	}
	if job.GracePeriod == 0 {
		job.GracePeriod = a.config.GracePeriod
	}
	p := job.Process().SetLogger(a.log)
	if a.config.Shell != "" {
		p.SetShell(a.config.Shell, a.config.ShellFlag)
	}
	return p
}

// Name returns the executor name.
func (a *Adapter) Name() string {
	return a.config.Name
}

// IsAvailable reports whether the configured shell can be found.
func (a *Adapter) IsAvailable(_ context.Context) bool {
	shell, _ := a.Process(Job{}).Shell()
	_, err := exec.LookPath(shell)
	return err == nil
}

// Execute runs a job (implements provider.RequestResponse[Job, *Result]).
func (a *Adapter) Execute(ctx context.Context, job Job) (*Result, error) {
	return a.Process(job).Execute(ctx)
}
