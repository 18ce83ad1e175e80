package process

import "time"

// Result is the immutable outcome of one execution. It is only built by this
// package and is safe for concurrent reads.
type Result struct {
	status      int
	stdout      string
	stderr      string
	duration    time.Duration
	executionID string
	pid         int
}

// Status returns the child's exit code, or -1 if it was terminated by a signal.
func (r *Result) Status() int { return r.status }

// Stdout returns everything the child wrote to standard output.
func (r *Result) Stdout() string { return r.stdout }

// Stderr returns everything the child wrote to standard error.
func (r *Result) Stderr() string { return r.stderr }

// HasErrors reports whether the child wrote to standard error or exited
// with a non-zero status.
func (r *Result) HasErrors() bool {
	return r.stderr != "" || r.status != 0
}

// Duration is the wall time from spawn to reap.
func (r *Result) Duration() time.Duration { return r.duration }

// ExecutionID identifies the execution that produced this result.
func (r *Result) ExecutionID() string { return r.executionID }

// Pid is the operating system process ID the child ran under.
func (r *Result) Pid() int { return r.pid }
