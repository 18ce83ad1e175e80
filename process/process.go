package process

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"time"

	goerrors "github.com/kbukum/procexec/errors"
	"github.com/kbukum/procexec/logger"
	"github.com/kbukum/procexec/observability"
)

// DefaultGracePeriod is how long a terminated child gets between SIGTERM
// and SIGKILL.
const DefaultGracePeriod = 5 * time.Second

// Process holds the configuration for running a shell command and drives
// its spawn/drain/wait lifecycle. Configure it, then call Execute.
//
// A Process may be executed any number of times in sequence; each run is a
// fresh spawn with the current configuration. It may not be executed
// concurrently: a second Execute or Open while one is in flight fails with
// ErrAlreadyOpen. Separate Process values share nothing and may run in
// parallel.
type Process struct {
	command     string
	workdir     string
	env         map[string]string
	timeout     time.Duration
	gracePeriod time.Duration
	shell       string
	shellFlag   string
	log         *logger.Logger

	open atomic.Bool
}

// New returns a Process for the given command line.
func New(command string) *Process {
	return &Process{command: command}
}

// Command returns the command line.
func (p *Process) Command() string { return p.command }

// SetCommand sets the command line. It is interpreted by the shell, so
// quoting, pipes and redirection behave as they would in a terminal.
func (p *Process) SetCommand(command string) *Process {
	p.command = command
	return p
}

// WorkingDirectory returns the configured working directory, or "" when the
// child inherits the caller's.
func (p *Process) WorkingDirectory() string { return p.workdir }

// SetWorkingDirectory sets the directory the child runs in.
func (p *Process) SetWorkingDirectory(path string) *Process {
	p.workdir = path
	return p
}

// EnvironmentVariables returns a copy of the configured environment, or nil
// when the child inherits the caller's.
func (p *Process) EnvironmentVariables() map[string]string {
	return maps.Clone(p.env)
}

// SetEnvironmentVariables sets the child's complete environment. Variables
// of the calling process are not merged in. A nil map restores inheritance;
// an empty non-nil map gives the child an empty environment.
func (p *Process) SetEnvironmentVariables(vars map[string]string) *Process {
	p.env = maps.Clone(vars)
	return p
}

// Timeout returns the execution deadline, or 0 for none.
func (p *Process) Timeout() time.Duration { return p.timeout }

// SetTimeout bounds how long an execution may run before the child is
// terminated. Zero disables the bound.
func (p *Process) SetTimeout(d time.Duration) *Process {
	p.timeout = d
	return p
}

// GracePeriod returns the SIGTERM to SIGKILL delay.
func (p *Process) GracePeriod() time.Duration {
	if p.gracePeriod <= 0 {
		return DefaultGracePeriod
	}
	return p.gracePeriod
}

// SetGracePeriod sets the SIGTERM to SIGKILL delay.
func (p *Process) SetGracePeriod(d time.Duration) *Process {
	p.gracePeriod = d
	return p
}

// Shell returns the interpreter and the flag that precedes the command line.
func (p *Process) Shell() (path, flag string) {
	path, flag = p.shell, p.shellFlag
	if path == "" {
		path = defaultShell
	}
	if flag == "" {
		flag = defaultShellFlag
	}
	return path, flag
}

// SetShell overrides the interpreter, e.g. SetShell("/bin/bash", "-c").
func (p *Process) SetShell(path, flag string) *Process {
	p.shell, p.shellFlag = path, flag
	return p
}

// SetLogger sets the logger used for lifecycle events.
func (p *Process) SetLogger(l *logger.Logger) *Process {
	p.log = l
	return p
}

// IsOpen reports whether an execution is in flight.
func (p *Process) IsOpen() bool { return p.open.Load() }

func (p *Process) logger() *logger.Logger {
	if p.log != nil {
		return p.log
	}
	return logger.Get("process")
}

// Execute spawns the command, waits for it to exit and returns its captured
// output. A non-zero exit status or stderr output is not an error; inspect
// Result.HasErrors. On timeout or cancellation the partial Result is
// returned together with an ErrTimeout error.
func (p *Process) Execute(ctx context.Context) (*Result, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanProcessExecute)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrCommand, p.command)
	if p.workdir != "" {
		observability.SetSpanAttribute(ctx, observability.AttrDir, p.workdir)
	}

	e, err := p.Open(ctx)
	if err != nil {
		recordSpanError(ctx, err)
		return nil, err
	}
	defer func() { _ = e.Close() }()

	observability.SetSpanAttribute(ctx, observability.AttrExecutionID, e.ID())
	observability.SetSpanAttribute(ctx, observability.AttrPID, e.Pid())

	result, err := e.Wait()
	if result != nil {
		observability.SetSpanAttribute(ctx, observability.AttrExitStatus, result.Status())
		observability.SetSpanAttribute(ctx, observability.AttrHasErrors, result.HasErrors())
	}
	if err != nil {
		recordSpanError(ctx, err)
	}
	return result, err
}

// Open validates the configuration and spawns the child. Output draining
// starts immediately; call Wait to collect the Result and Close to release
// everything. An Execution that is dropped without Close is cleaned up when
// it is garbage collected.
func (p *Process) Open(ctx context.Context) (*Execution, error) {
	if !p.open.CompareAndSwap(false, true) {
		return nil, newError(ErrAlreadyOpen, nil)
	}

	e, err := p.start(ctx)
	if err != nil {
		p.open.Store(false)
		return nil, err
	}
	return e, nil
}

func (p *Process) validate(ctx context.Context) error {
	if p.command == "" {
		return newError(ErrMissingCommand, nil)
	}
	if p.workdir != "" {
		if err := checkWorkingDirectory(p.workdir); err != nil {
			return newError(ErrInvalidWorkingDirectory, err).WithDetail("dir", p.workdir)
		}
	}
	if err := ctx.Err(); err != nil {
		return newError(ErrTimeout, err)
	}
	return nil
}

// checkWorkingDirectory requires dir to resolve, through symlinks, to an
// existing directory.
func checkWorkingDirectory(dir string) error {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", resolved)
	}
	return nil
}

// environ flattens the configured environment into KEY=VALUE form in key
// order. It returns nil, meaning inherit, when no environment is configured.
func (p *Process) environ() []string {
	if p.env == nil {
		return nil
	}
	env := make([]string, 0, len(p.env))
	for _, k := range slices.Sorted(maps.Keys(p.env)) {
		env = append(env, k+"="+p.env[k])
	}
	return env
}

func recordSpanError(ctx context.Context, err error) {
	observability.SetSpanError(ctx, err)
	if appErr, ok := goerrors.AsAppError(err); ok {
		observability.SetSpanAttribute(ctx, observability.AttrErrorCode, string(appErr.Code))
	}
}
