package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/kbukum/procexec/config"
	"github.com/kbukum/procexec/observability"
	"github.com/kbukum/procexec/process"
	"github.com/kbukum/procexec/validation"
)

// AppConfig is the procexec configuration file layout.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Executor process.ExecutorConfig     `yaml:"executor" mapstructure:"executor"`
	Jobs     map[string]JobConfig       `yaml:"jobs" mapstructure:"jobs"`
	Tracing  observability.TracerConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics  observability.MeterConfig  `yaml:"metrics" mapstructure:"metrics"`
}

// JobConfig is a named job as written in the config file. Env is a list of
// KEY=VALUE entries because map keys lose their case when loaded.
type JobConfig struct {
	Command     string        `yaml:"command" mapstructure:"command" validate:"required"`
	Dir         string        `yaml:"dir" mapstructure:"dir"`
	Env         []string      `yaml:"env" mapstructure:"env"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	GracePeriod time.Duration `yaml:"grace_period" mapstructure:"grace_period" validate:"gte=0"`
}

// Job converts the entry into a process.Job.
func (j JobConfig) Job() (process.Job, error) {
	env, err := parseEnv(j.Env)
	if err != nil {
		return process.Job{}, err
	}
	return process.Job{
		Command:     j.Command,
		Dir:         j.Dir,
		Env:         env,
		Timeout:     j.Timeout,
		GracePeriod: j.GracePeriod,
	}, nil
}

// ApplyDefaults fills unset fields.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "procexec"
	}
	c.ServiceConfig.ApplyDefaults()
	c.Executor.ApplyDefaults()

	applyTelemetryDefaults(&c.Tracing.ServiceName, &c.Tracing.ServiceVersion, &c.Tracing.Environment, &c.Tracing.Endpoint, c.ServiceConfig)
	if c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = 1.0
	}
	applyTelemetryDefaults(&c.Metrics.ServiceName, &c.Metrics.ServiceVersion, &c.Metrics.Environment, &c.Metrics.Endpoint, c.ServiceConfig)
	if c.Metrics.Interval == 0 {
		c.Metrics.Interval = observability.DefaultMeterConfig(c.Name).Interval
	}
}

func applyTelemetryDefaults(name, version, env, endpoint *string, svc config.ServiceConfig) {
	defaults := observability.DefaultTracerConfig(svc.Name)
	if *name == "" {
		*name = svc.Name
	}
	if *version == "" {
		*version = svc.Version
	}
	if *env == "" {
		*env = svc.Environment
	}
	if *endpoint == "" {
		*endpoint = defaults.Endpoint
	}
}

// Validate checks the service section, the executor and every job.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c.Executor); err != nil {
		return fmt.Errorf("config.executor: %w", err)
	}
	for _, name := range slices.Sorted(maps.Keys(c.Jobs)) {
		if err := validation.Validate(c.Jobs[name]); err != nil {
			return fmt.Errorf("config.jobs.%s: %w", name, err)
		}
	}
	return nil
}

// parseEnv turns KEY=VALUE entries into a map. A nil slice yields a nil map,
// meaning the child inherits the environment.
func parseEnv(entries []string) (map[string]string, error) {
	if entries == nil {
		return nil, nil
	}
	env := make(map[string]string, len(entries))
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid environment entry %q: want KEY=VALUE", entry)
		}
		env[key] = value
	}
	return env, nil
}
