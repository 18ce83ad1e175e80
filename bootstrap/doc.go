// Package bootstrap wires a procexec binary together: it applies config
// defaults, validates, initializes logging and runs one task under
// signal-driven cancellation, with hooks for setup and teardown.
package bootstrap
