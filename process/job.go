package process

import (
	"time"

	"github.com/kbukum/procexec/provider"
)

// Job is a declarative description of one execution, loadable from config.
type Job struct {
	// Command is the shell command line.
	Command string `yaml:"command" mapstructure:"command" validate:"required"`
	// Dir is the working directory. Empty inherits the caller's.
	Dir string `yaml:"dir,omitempty" mapstructure:"dir"`
	// Env replaces the child's environment when non-nil.
	Env map[string]string `yaml:"env,omitempty" mapstructure:"env"`
	// Timeout bounds the execution. Zero falls back to the executor default.
	Timeout time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout" validate:"gte=0"`
	// GracePeriod is the SIGTERM to SIGKILL delay. Zero falls back to the executor default.
	GracePeriod time.Duration `yaml:"grace_period,omitempty" mapstructure:"grace_period" validate:"gte=0"`
}

// Process builds a configured Process for the job.
func (j Job) Process() *Process {
	p := New(j.Command).
		SetWorkingDirectory(j.Dir).
		SetTimeout(j.Timeout).
		SetGracePeriod(j.GracePeriod)
	if j.Env != nil {
		p.SetEnvironmentVariables(j.Env)
	}
	return p
}

// ExecutorConfig holds executor-wide defaults and resilience policies.
type ExecutorConfig struct {
	// Name identifies the executor in logs, metrics and resilience errors.
	Name string `yaml:"name" mapstructure:"name"`
	// Shell and ShellFlag override the interpreter, e.g. "/bin/bash" and "-c".
	Shell     string `yaml:"shell,omitempty" mapstructure:"shell"`
	ShellFlag string `yaml:"shell_flag,omitempty" mapstructure:"shell_flag"`
	// Timeout is applied to jobs that set none.
	Timeout time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout" validate:"gte=0"`
	// GracePeriod is applied to jobs that set none.
	GracePeriod time.Duration `yaml:"grace_period,omitempty" mapstructure:"grace_period" validate:"gte=0"`
	// FailOnErrors treats a Result with HasErrors as a failure, so it counts
	// against the circuit breaker and is retried.
	FailOnErrors bool `yaml:"fail_on_errors" mapstructure:"fail_on_errors"`

	provider.ResilienceConfig `yaml:",inline" mapstructure:",squash"`
}

// ApplyDefaults fills in unset fields.
func (c *ExecutorConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "process"
	}
	if c.GracePeriod == 0 {
		c.GracePeriod = DefaultGracePeriod
	}
}
