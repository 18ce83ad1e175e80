package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/procexec/logger"
)

// DefaultGracefulTimeout bounds stop hooks when no option overrides it.
const DefaultGracefulTimeout = 10 * time.Second

// App runs a finite task with a uniform lifecycle: defaults and validation,
// logger initialization, start hooks, the task itself under signal-driven
// cancellation, then stop hooks.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.OnStop(tp.Shutdown)
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    _, err := runner.Run(ctx, job)
//	    return err
//	})
type App[C Config] struct {
	Name    string
	Version string
	Cfg     C
	Logger  *logger.Logger

	gracefulTimeout time.Duration
	onStart         []Hook
	onStop          []Hook
}

// NewApp applies defaults, validates the config and initializes the logger.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	base := cfg.GetServiceConfig()
	app := &App[C]{
		Name:            base.Name,
		Version:         base.Version,
		Cfg:             cfg,
		gracefulTimeout: DefaultGracefulTimeout,
	}

	o := resolveOptions(opts)
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}
	if o.logger != nil {
		app.Logger = o.logger
	} else {
		logger.Init(base.Logging)
		app.Logger = logger.GetGlobalLogger()
	}
	return app, nil
}

// RunTask runs start hooks, then task, then stop hooks. SIGINT and SIGTERM
// cancel the task's context instead of killing the process, so a running
// child is terminated through its own deadline handling. Stop hooks run even
// when the task fails; the task error takes precedence.
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	a.Logger.Debug("starting", logger.Fields("name", a.Name, "version", a.Version))

	if err := runHooks(ctx, a.onStart); err != nil {
		_ = a.stop()
		return fmt.Errorf("onStart hook failed: %w", err)
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			a.Logger.Info("received signal, canceling task", logger.Fields(logger.FieldSignal, sig.String()))
			cancel()
		case <-taskCtx.Done():
		}
	}()

	taskErr := task(taskCtx)

	if stopErr := a.stop(); stopErr != nil && taskErr == nil {
		return stopErr
	}
	return taskErr
}

// Shutdown runs the stop hooks. Use it when managing the lifecycle manually.
func (a *App[C]) Shutdown() error {
	return a.stop()
}

func (a *App[C]) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	if err := runHooks(ctx, a.onStop); err != nil {
		a.Logger.Error("stop hook failed", logger.ErrorFields("shutdown", err))
		return err
	}
	a.Logger.Debug("shutdown complete")
	return nil
}
