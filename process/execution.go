package process

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/procexec/logger"
)

// Execution is one spawned child. It owns the child's process handle and the
// parent ends of its stdout and stderr pipes until Wait or Close releases
// them.
type Execution struct {
	id    string
	pid   int
	state *execState

	waitOnce  sync.Once
	closeOnce sync.Once
	result    *Result
	err       error
	closeErr  error
}

// execState is everything the drain and watcher goroutines touch. It holds
// no reference back to the Execution, so an abandoned Execution stays
// collectable while its child is still running.
type execState struct {
	proc    *Process
	cmd     *exec.Cmd
	log     *logger.Logger
	started time.Time

	stdoutR *os.File
	stderrR *os.File
	stdout  bytes.Buffer
	stderr  bytes.Buffer
	drain   errgroup.Group

	done        chan struct{}
	reaped      atomic.Bool // claimed by whichever of wait and abort runs first
	releaseOnce sync.Once

	mu     sync.Mutex
	reason error
}

// pipes are the six ends of the three stdio pipes.
type pipes struct {
	stdinR, stdinW   *os.File
	stdoutR, stdoutW *os.File
	stderrR, stderrW *os.File
}

func openPipes() (*pipes, error) {
	var p pipes
	var err error
	if p.stdinR, p.stdinW, err = os.Pipe(); err != nil {
		return nil, err
	}
	if p.stdoutR, p.stdoutW, err = os.Pipe(); err != nil {
		p.closeAll()
		return nil, err
	}
	if p.stderrR, p.stderrW, err = os.Pipe(); err != nil {
		p.closeAll()
		return nil, err
	}
	return &p, nil
}

// closeChildEnds closes the ends handed to the child and the stdin write
// end, which gives the child EOF on stdin.
func (p *pipes) closeChildEnds() {
	for _, f := range []*os.File{p.stdinR, p.stdinW, p.stdoutW, p.stderrW} {
		if f != nil {
			_ = f.Close()
		}
	}
}

func (p *pipes) closeAll() {
	p.closeChildEnds()
	for _, f := range []*os.File{p.stdoutR, p.stderrR} {
		if f != nil {
			_ = f.Close()
		}
	}
}

func (p *Process) start(ctx context.Context) (*Execution, error) {
	if err := p.validate(ctx); err != nil {
		return nil, err
	}

	shell, flag := p.Shell()
	cmd := exec.Command(shell, flag, p.command) //nolint:gosec // running caller-supplied commands is the purpose of this package
	cmd.Dir = p.workdir
	cmd.Env = p.environ()
	configureSysProcAttr(cmd)

	pp, err := openPipes()
	if err != nil {
		return nil, newError(ErrSpawnFailed, err)
	}
	cmd.Stdin = pp.stdinR
	cmd.Stdout = pp.stdoutW
	cmd.Stderr = pp.stderrW

	id := uuid.NewString()
	log := p.logger().WithContext(ctx).WithFields(logger.Fields(
		logger.FieldExecutionID, id,
		logger.FieldCommand, p.command,
	))

	if err := cmd.Start(); err != nil {
		pp.closeAll()
		log.Debug("spawn failed", logger.ErrorFields("start", err))
		return nil, newError(ErrSpawnFailed, err).WithDetail("command", p.command)
	}
	pp.closeChildEnds()

	s := &execState{
		proc:    p,
		cmd:     cmd,
		log:     log,
		started: time.Now(),
		stdoutR: pp.stdoutR,
		stderrR: pp.stderrR,
		done:    make(chan struct{}),
	}

	// Both streams drain concurrently. A sequential drain deadlocks once the
	// child fills the pipe buffer of the stream not being read.
	s.drain.Go(func() error { return copyStream(&s.stdout, s.stdoutR) })
	s.drain.Go(func() error { return copyStream(&s.stderr, s.stderrR) })

	if ctx.Done() != nil || p.timeout > 0 {
		go s.watch(ctx, p.timeout, p.GracePeriod())
	}

	e := &Execution{id: id, pid: cmd.Process.Pid, state: s}
	runtime.SetFinalizer(e, (*Execution).finalize)

	log.Debug("spawned", logger.Fields(logger.FieldPID, e.pid, logger.FieldDir, p.workdir))
	return e, nil
}

// copyStream reads r to EOF. A read end closed by the watcher after SIGKILL
// ends the copy without error.
func copyStream(dst *bytes.Buffer, r *os.File) error {
	_, err := io.Copy(dst, r)
	if errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}

// ID returns the execution's unique identifier.
func (e *Execution) ID() string { return e.id }

// Pid returns the child's operating system process ID.
func (e *Execution) Pid() int { return e.pid }

// Wait blocks until both output streams reach EOF and the child has been
// reaped, then releases every handle and returns the Result. Calling Wait
// again returns the same values.
func (e *Execution) Wait() (*Result, error) {
	e.waitOnce.Do(func() {
		e.result, e.err = e.state.wait(e.id)
		runtime.SetFinalizer(e, nil)
	})
	return e.result, e.err
}

// Close releases the execution. If Wait has not started, the child's
// process group is killed and reaped. If Wait is in flight on another
// goroutine, the group is killed so that Wait returns, and Close blocks
// until it has. Close is idempotent and returns WAIT_FAILED only when the
// child could not be reaped.
func (e *Execution) Close() error {
	e.closeOnce.Do(func() {
		runtime.SetFinalizer(e, nil)
		e.closeErr = e.state.abort()
	})
	return e.closeErr
}

func (e *Execution) finalize() {
	s := e.state
	s.log.Warn("execution was not closed; killing child", logger.Fields(logger.FieldPID, e.pid))
	go func() { _ = s.abort() }()
}

func (s *execState) wait(id string) (*Result, error) {
	if !s.reaped.CompareAndSwap(false, true) {
		return nil, newError(ErrWaitFailed, errors.New("execution already closed"))
	}

	drainErr := s.drain.Wait()
	s.closeReaders()
	waitErr := s.cmd.Wait()
	duration := time.Since(s.started)
	s.release()

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		s.log.Error("wait failed", logger.ErrorFields("wait", waitErr))
		return nil, newError(ErrWaitFailed, waitErr)
	}

	result := &Result{
		status:      exitStatus(s.cmd.ProcessState),
		stdout:      s.stdout.String(),
		stderr:      s.stderr.String(),
		duration:    duration,
		executionID: id,
		pid:         s.cmd.Process.Pid,
	}

	fields := logger.MergeWithDuration(logger.Fields(
		logger.FieldPID, result.pid,
		logger.FieldExitStatus, result.status,
	), duration)
	if sig := signalName(s.cmd.ProcessState); sig != "" {
		fields[logger.FieldSignal] = sig
	}
	s.log.Debug("exited", fields)

	if drainErr != nil {
		return result, newError(ErrWaitFailed, drainErr)
	}
	if reason := s.terminationReason(); reason != nil {
		if reason == ErrTimeout {
			return result, newError(ErrTimeout, nil).WithDetail("timeout", s.proc.timeout.String())
		}
		return result, newError(ErrTimeout, reason)
	}
	return result, nil
}

// abort kills a child that was never waited for and reaps it. When Wait
// already claimed the reap, abort only makes sure it finishes.
func (s *execState) abort() error {
	if s.reaped.Swap(true) {
		// Wait owns the reap; unblock it if it is still running.
		select {
		case <-s.done:
		default:
			_ = kill(s.cmd.Process)
			<-s.done
		}
		return nil
	}
	if err := kill(s.cmd.Process); err != nil {
		s.log.Debug("kill failed", logger.ErrorFields("kill", err))
	}
	s.closeReaders()
	_ = s.drain.Wait()
	waitErr := s.cmd.Wait()
	s.release()

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return newError(ErrWaitFailed, waitErr)
	}
	return nil
}

// watch terminates the child when ctx ends or timeout elapses, escalating
// to SIGKILL after grace.
func (s *execState) watch(ctx context.Context, timeout, grace time.Duration) {
	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}

	var reason error
	select {
	case <-s.done:
		return
	case <-ctx.Done():
		reason = ctx.Err()
	case <-expired:
		reason = ErrTimeout
	}

	s.mu.Lock()
	s.reason = reason
	s.mu.Unlock()

	s.log.Warn("terminated", logger.Fields(
		logger.FieldPID, s.cmd.Process.Pid,
		logger.FieldError, reason.Error(),
	))
	_ = terminate(s.cmd.Process)

	g := time.NewTimer(grace)
	defer g.Stop()
	select {
	case <-s.done:
		return
	case <-g.C:
	}

	_ = kill(s.cmd.Process)
	// Anything outside the group still holding the pipes would keep the
	// drain blocked forever.
	s.closeReaders()
}

func (s *execState) terminationReason() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

func (s *execState) closeReaders() {
	_ = s.stdoutR.Close()
	_ = s.stderrR.Close()
}

// release marks the owning Process as no longer open and stops the watcher.
func (s *execState) release() {
	s.releaseOnce.Do(func() {
		close(s.done)
		s.proc.open.Store(false)
	})
}

func exitStatus(state *os.ProcessState) int {
	if state == nil {
		return -1
	}
	return state.ExitCode()
}
