package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/prdeploy/command"
	"github.com/randalmurphal/prdeploy/config"
	clierrors "github.com/randalmurphal/prdeploy/errors"
)

// buildVersion is set with -ldflags "-X main.buildVersion=...".
var buildVersion = "dev"

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// app carries the process environment so commands can be tested.
type app struct {
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string

	runner      command.Runner
	httpClient  *http.Client
	newResolver func(getenv func(string) string) *config.Resolver

	logLevel  string
	logFormat string
	sets      []string

	logger *slog.Logger
}

func newApp(stdout, stderr io.Writer, getenv func(string) string) *app {
	return &app{
		stdout:      stdout,
		stderr:      stderr,
		getenv:      getenv,
		runner:      command.NewExecRunner(),
		newResolver: config.NewAppResolver,
		logger:      slog.New(slog.NewTextHandler(stderr, nil)),
	}
}

// usageError marks bad invocations.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

func execute(args []string, a *app) int {
	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.Execute()
	if err == nil {
		return exitOK
	}
	fmt.Fprintln(a.stderr, "Error:", err)

	if isUsage(err) {
		return exitUsage
	}
	return exitFailure
}

func isUsage(err error) bool {
	var ue *usageError
	if errors.As(err, &ue) {
		return true
	}
	// cobra reports unknown commands and arity errors as plain errors.
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.Contains(msg, "arg(s)")
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prdeploy",
		Short: "Deploy pull request previews",
		Long: `prdeploy builds a pull request, uploads the wheel to object storage,
deploys every demo to a preview Space and links it on the pull request.

Configuration is read from defaults, ~/.config/prdeploy/config.yaml,
.prdeploy.yaml in the repository root, PRDEPLOY_* environment variables
and --set flags, in increasing precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format: text or json")
	cmd.PersistentFlags().StringArrayVar(&a.sets, "set", nil, "Override a config key (key=value, repeatable)")

	cmd.AddCommand(
		newRunCommand(a),
		newVersionCommand(a),
		newCommentCommand(a),
		newTeardownCommand(a),
		newWorkflowCommand(a),
		newRunsCommand(a),
		newConfigCommand(a),
	)
	return cmd
}

// flagOverrides turns --set and the logging flags into resolver flags.
func (a *app) flagOverrides() (map[string]string, error) {
	flags := make(map[string]string, len(a.sets)+2)
	for _, kv := range a.sets {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, usagef("--set %q: expected key=value", kv)
		}
		flags[key] = value
	}
	if a.logLevel != "" {
		flags[config.KeyLogLevel] = a.logLevel
	}
	if a.logFormat != "" {
		flags[config.KeyLogFormat] = a.logFormat
	}
	return flags, nil
}

// settings resolves configuration and configures the logger from it.
func (a *app) settings() (*config.Settings, error) {
	flags, err := a.flagOverrides()
	if err != nil {
		return nil, err
	}
	r := a.newResolver(a.getenv)
	if err := r.CheckFlags(flags); err != nil {
		return nil, &usageError{err: err}
	}
	s, err := config.Load(r, flags)
	if err != nil {
		return nil, &usageError{err: err}
	}
	logger, err := newLogger(a.stderr, s.LogLevel, s.LogFormat)
	if err != nil {
		return nil, &usageError{err: err}
	}
	a.logger = logger
	slog.SetDefault(logger)
	return s, nil
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("log level %q: %w", level, err)
		}
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("log format %q: expected text or json", format)
	}
}

// explain attaches guidance to failures talking to service.
func explain(err error, service, url string) error {
	return clierrors.Explain(err, service, url)
}
