// Command procexec runs a shell command line, or a named job from its config
// file, and relays the captured output and exit status.
//
//	procexec [flags] <job>
//	procexec [flags] -- <command line>
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/kbukum/procexec/bootstrap"
	"github.com/kbukum/procexec/config"
	goerrors "github.com/kbukum/procexec/errors"
	"github.com/kbukum/procexec/logger"
	"github.com/kbukum/procexec/observability"
	"github.com/kbukum/procexec/process"
	"github.com/kbukum/procexec/provider"
	"github.com/kbukum/procexec/validation"
	"github.com/kbukum/procexec/version"
)

// Exit codes used when the child's own status cannot be relayed.
const (
	exitHasErrors = 1
	exitFailure   = 2
)

type options struct {
	configFile string
	envFile    string
	dir        string
	timeout    time.Duration
	env        []string
	version    bool
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("procexec", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts options
	fs.StringVarP(&opts.configFile, "config", "c", "", "config file (default: ./cmd/procexec/config.yml, ./config/config.yml or ./config.yml)")
	fs.StringVar(&opts.envFile, "env-file", "", ".env file loaded before the config is resolved")
	fs.StringVarP(&opts.dir, "dir", "C", "", "working directory for the command")
	fs.DurationVarP(&opts.timeout, "timeout", "t", 0, "terminate the command after this duration")
	fs.StringArrayVarP(&opts.env, "env", "e", nil, "KEY=VALUE for the child; repeatable, replaces the inherited environment")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: procexec [flags] <job> | procexec [flags] -- <command line>")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return exitFailure
	}
	if opts.version {
		fmt.Fprintln(stdout, version.Get())
		return 0
	}

	var cfg AppConfig
	var loadOpts []config.LoaderOption
	if opts.configFile != "" {
		loadOpts = append(loadOpts, config.WithConfigFile(opts.configFile))
	}
	if opts.envFile != "" {
		loadOpts = append(loadOpts, config.WithEnvFile(opts.envFile))
	}
	if err := config.LoadConfig("procexec", &cfg, loadOpts...); err != nil {
		fmt.Fprintf(stderr, "procexec: %v\n", err)
		return exitFailure
	}

	app, err := bootstrap.NewApp(&cfg)
	if err != nil {
		fmt.Fprintf(stderr, "procexec: %v\n", err)
		return exitFailure
	}

	job, err := selectJob(&cfg, fs.Args(), fs.ArgsLenAtDash())
	if err == nil {
		job, err = applyFlags(job, opts)
	}
	if err == nil {
		err = validation.Validate(job)
	}
	if err != nil {
		fmt.Fprintf(stderr, "procexec: %v\n", err)
		fs.Usage()
		return exitFailure
	}

	middlewares, err := setupTelemetry(ctx, app)
	if err != nil {
		app.Logger.Error("telemetry setup failed", logger.ErrorFields("setup", err))
		_ = app.Shutdown()
		return exitFailure
	}
	runner := process.NewRunner(cfg.Executor, middlewares...)

	var result *process.Result
	var runErr error
	if err := app.RunTask(ctx, func(ctx context.Context) error {
		result, runErr = runner.Run(ctx, job)
		return runErr
	}); err != nil && runErr == nil {
		app.Logger.Warn("shutdown incomplete", logger.ErrorFields("shutdown", err))
	}

	if result != nil {
		_, _ = io.WriteString(stdout, result.Stdout())
		_, _ = io.WriteString(stderr, result.Stderr())
	}
	if runErr != nil && !goerrors.HasCode(runErr, goerrors.ErrCodeCommandFailed) {
		app.Logger.Error("execution failed", logger.Fields(logger.FieldCommand, job.Command, logger.FieldError, runErr.Error()))
	}
	return exitCode(result, runErr)
}

// selectJob resolves the positional arguments. A single argument after "--"
// is used verbatim as the command line. Several arguments are taken as
// already split by the caller's shell, so each is single-quoted before
// joining and reaches the child unchanged. Without "--" exactly one
// configured job name is expected.
func selectJob(cfg *AppConfig, args []string, dashAt int) (process.Job, error) {
	if dashAt >= 0 {
		if dashAt > 0 {
			return process.Job{}, fmt.Errorf("unexpected arguments before --: %v", args[:dashAt])
		}
		return process.Job{Command: commandLine(args[dashAt:])}, nil
	}
	if len(args) != 1 {
		return process.Job{}, fmt.Errorf("expected one job name or -- followed by a command")
	}
	jc, ok := cfg.Jobs[strings.ToLower(args[0])]
	if !ok {
		return process.Job{}, fmt.Errorf("unknown job %q", args[0])
	}
	return jc.Job()
}

func commandLine(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = shellQuote(arg)
	}
	return strings.Join(quoted, " ")
}

// shellQuote wraps s in single quotes for /bin/sh, closing and reopening the
// quotes around each embedded one.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// applyFlags overrides job settings with command-line flags.
func applyFlags(job process.Job, opts options) (process.Job, error) {
	if opts.dir != "" {
		job.Dir = opts.dir
	}
	if opts.timeout > 0 {
		job.Timeout = opts.timeout
	}
	if len(opts.env) > 0 {
		env, err := parseEnv(opts.env)
		if err != nil {
			return job, err
		}
		job.Env = env
	}
	return job, nil
}

// setupTelemetry installs the OTLP providers that are enabled, registers
// their shutdown as stop hooks, and returns the middlewares for the runner.
func setupTelemetry(ctx context.Context, app *bootstrap.App[*AppConfig]) ([]provider.Middleware[process.Job, *process.Result], error) {
	middlewares := []provider.Middleware[process.Job, *process.Result]{
		provider.WithLogging[process.Job, *process.Result](app.Logger),
	}

	if app.Cfg.Tracing.Enabled {
		tp, err := observability.InitTracer(ctx, app.Cfg.Tracing)
		if err != nil {
			return nil, err
		}
		app.OnStop(tp.Shutdown)
		middlewares = append(middlewares, provider.WithTracing[process.Job, *process.Result](app.Name))
	}

	if app.Cfg.Metrics.Enabled {
		mp, err := observability.InitMeter(ctx, app.Cfg.Metrics)
		if err != nil {
			return nil, err
		}
		app.OnStop(mp.Shutdown)
		metrics, err := observability.NewMetrics(mp.Meter(app.Name))
		if err != nil {
			return nil, err
		}
		middlewares = append(middlewares, provider.WithMetrics[process.Job, *process.Result](metrics))
	}
	return middlewares, nil
}

// exitCode maps the outcome onto the procexec exit status: the child's own
// status when it ran, exitHasErrors when it exited 0 but wrote to stderr or
// was killed, and exitFailure when it could not be run to completion.
func exitCode(result *process.Result, err error) int {
	if err != nil && !goerrors.HasCode(err, goerrors.ErrCodeCommandFailed) {
		return exitFailure
	}
	if result == nil {
		return exitFailure
	}
	if status := result.Status(); status > 0 {
		return status
	}
	if result.HasErrors() {
		return exitHasErrors
	}
	return 0
}
