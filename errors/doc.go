// Package errors provides the structured error type shared by procexec
// packages. Every failure carries a machine-readable code, a retryable flag,
// optional details, and the underlying cause so callers can match with either
// the code or errors.Is against a sentinel in the cause chain.
package errors
