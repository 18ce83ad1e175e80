// Package process runs shell commands synchronously and captures their
// exit status, standard output and standard error.
//
// Configure a Process and call Execute:
//
//	result, err := process.New(`echo "Joey likes pizza."`).
//	    SetWorkingDirectory("/tmp").
//	    SetEnvironmentVariables(map[string]string{"USER": "joey"}).
//	    Execute(ctx)
//	if err != nil {
//	    // could not run at all: ErrMissingCommand, ErrSpawnFailed, ...
//	}
//	if result.HasErrors() {
//	    // ran, but exited non-zero or wrote to stderr
//	}
//
// The command line is passed to /bin/sh -c (cmd /C on Windows), so shell
// quoting and redirection work as usual. A configured environment replaces
// the caller's environment instead of extending it.
//
// # Lifecycle
//
// Execute is Open, then Execution.Wait, then Execution.Close. Open spawns
// the child with three fresh pipes, closes stdin so the child sees EOF, and
// starts draining stdout and stderr concurrently. Wait blocks until both
// streams reach EOF and the child is reaped. Close releases everything and
// kills the child's process group if it is still running. Every handle is
// released on every path, including errors; an Execution that is never
// closed is cleaned up by a finalizer.
//
// A Process runs one execution at a time. Open or Execute while an
// execution is in flight fails with ErrAlreadyOpen; once it finishes the same
// Process can be executed again.
//
// # Deadlines
//
// SetTimeout and the caller's context both bound an execution. When either
// ends, the process group receives SIGTERM, then SIGKILL after the grace
// period. Execute returns whatever output was captured along with an
// ErrTimeout error.
//
// # Integration
//
// Adapter exposes execution as a provider.RequestResponse[Job, *Result].
// Runner adds bulkhead, circuit breaker and retry policies from
// ExecutorConfig. SubprocessProvider wraps a command-line tool as a typed
// provider.
package process
