package provider

import (
	"github.com/kbukum/procexec/resilience"
)

// ResilienceConfig bundles optional resilience policies for a provider.
// Nil fields are skipped, so the zero value is a passthrough.
type ResilienceConfig struct {
	// CircuitBreaker stops calls after repeated failures.
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
	// Retry retries failed calls with exponential backoff.
	Retry *resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`
	// Bulkhead limits concurrent calls.
	Bulkhead *resilience.BulkheadConfig `yaml:"bulkhead" mapstructure:"bulkhead"`
}

// IsEmpty returns true if no resilience policies are configured.
func (c ResilienceConfig) IsEmpty() bool {
	return c.CircuitBreaker == nil && c.Retry == nil && c.Bulkhead == nil
}

// ResilienceState holds initialized resilience primitives built from config.
// It is shared by every call made through it, so the circuit breaker and
// bulkhead see all executions.
type ResilienceState struct {
	name     string
	cb       *resilience.CircuitBreaker
	bh       *resilience.Bulkhead
	retryCfg *resilience.RetryConfig
}

// BuildResilience creates initialized resilience primitives from config.
// It returns nil for an empty config.
func BuildResilience(name string, cfg ResilienceConfig) *ResilienceState {
	if cfg.IsEmpty() {
		return nil
	}
	s := &ResilienceState{
		name:     name,
		retryCfg: cfg.Retry,
	}
	if cfg.CircuitBreaker != nil {
		cbCfg := *cfg.CircuitBreaker
		if cbCfg.Name == "" {
			cbCfg.Name = name
		}
		s.cb = resilience.NewCircuitBreaker(cbCfg)
	}
	if cfg.Bulkhead != nil {
		bhCfg := *cfg.Bulkhead
		if bhCfg.Name == "" {
			bhCfg.Name = name
		}
		s.bh = resilience.NewBulkhead(bhCfg)
	}
	return s
}

// CircuitBreaker returns the breaker, or nil when none is configured.
func (s *ResilienceState) CircuitBreaker() *resilience.CircuitBreaker {
	if s == nil {
		return nil
	}
	return s.cb
}

// Bulkhead returns the bulkhead, or nil when none is configured.
func (s *ResilienceState) Bulkhead() *resilience.Bulkhead {
	if s == nil {
		return nil
	}
	return s.bh
}
