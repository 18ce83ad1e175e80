package process

import (
	"errors"

	goerrors "github.com/kbukum/procexec/errors"
)

// Sentinel errors. Every error returned by Open, Wait and Execute is an
// *errors.AppError whose cause chain contains one of these.
var (
	ErrAlreadyOpen             = errors.New("process is already open")
	ErrMissingCommand          = errors.New("a command must be specified")
	ErrInvalidWorkingDirectory = errors.New("invalid working directory")
	ErrSpawnFailed             = errors.New("failed to spawn process")
	ErrWaitFailed              = errors.New("failed to wait for process")
	ErrTimeout                 = errors.New("process timed out")
)

var sentinelCodes = map[error]goerrors.ErrorCode{
	ErrAlreadyOpen:             goerrors.ErrCodeAlreadyOpen,
	ErrMissingCommand:          goerrors.ErrCodeMissingCommand,
	ErrInvalidWorkingDirectory: goerrors.ErrCodeInvalidWorkingDirectory,
	ErrSpawnFailed:             goerrors.ErrCodeSpawnFailed,
	ErrWaitFailed:              goerrors.ErrCodeWaitFailed,
	ErrTimeout:                 goerrors.ErrCodeTimeout,
}

// newError builds the AppError for a sentinel. The message is the
// sentinel's text; cause, when non-nil, becomes the AppError's cause while
// errors.Is still matches the sentinel.
func newError(sentinel, cause error) *goerrors.AppError {
	appErr := goerrors.New(sentinelCodes[sentinel], sentinel.Error())
	if cause == nil {
		return appErr.WithCause(sentinel)
	}
	return appErr.WithCause(&sentinelCause{sentinel: sentinel, cause: cause})
}

// sentinelCause reads as cause but unwraps to both cause and sentinel.
type sentinelCause struct {
	sentinel error
	cause    error
}

func (e *sentinelCause) Error() string   { return e.cause.Error() }
func (e *sentinelCause) Unwrap() []error { return []error{e.sentinel, e.cause} }
