package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Process lifecycle errors
const (
	// ErrCodeAlreadyOpen indicates execute was called on a process that is mid-execution.
	ErrCodeAlreadyOpen ErrorCode = "ALREADY_OPEN"
	// ErrCodeMissingCommand indicates no command line was configured.
	ErrCodeMissingCommand ErrorCode = "MISSING_COMMAND"
	// ErrCodeInvalidWorkingDirectory indicates the working directory does not resolve to a directory.
	ErrCodeInvalidWorkingDirectory ErrorCode = "INVALID_WORKING_DIRECTORY"
	// ErrCodeSpawnFailed indicates the OS refused to create the child process.
	ErrCodeSpawnFailed ErrorCode = "SPAWN_FAILED"
	// ErrCodeWaitFailed indicates the child could not be reaped.
	ErrCodeWaitFailed ErrorCode = "WAIT_FAILED"
	// ErrCodeTimeout indicates the child was terminated because its deadline passed.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Execution outcome errors
const (
	// ErrCodeCommandFailed indicates the child completed but reported errors
	// (non-zero status or stderr output) and the caller asked to treat that as failure.
	ErrCodeCommandFailed ErrorCode = "COMMAND_FAILED"
	// ErrCodeServiceUnavailable indicates execution was rejected by a circuit breaker or bulkhead.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeExternalService indicates a subprocess-backed provider failed.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates configuration or input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// ErrCodeInternal indicates an unexpected internal failure.
const ErrCodeInternal ErrorCode = "INTERNAL_ERROR"

var retryableCodes = map[ErrorCode]bool{
	ErrCodeSpawnFailed:        true,
	ErrCodeTimeout:            true,
	ErrCodeCommandFailed:      true,
	ErrCodeServiceUnavailable: true,
	ErrCodeExternalService:    true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
