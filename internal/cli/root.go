// Package cli is the clockwise command line. Each subcommand opens the
// store, runs one tracker command and prints its result as text or JSON.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/clockwise/internal/command"
	"github.com/sadopc/clockwise/internal/config"
	"github.com/sadopc/clockwise/internal/store"
	"github.com/sadopc/clockwise/internal/tracker"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// annotationNoStore marks commands that run without config or database.
const annotationNoStore = "clockwise/no-store"

// app carries everything a subcommand needs once setup has run.
type app struct {
	version string
	now     func() time.Time

	configPath string
	jsonOut    bool

	cfg       *config.Config
	loc       *time.Location
	log       *slog.Logger
	logCloser io.Closer
	store     *store.Store
	svc       *tracker.Service
	cmds      *command.Commands
}

// exitError carries the process exit code for err. quiet errors were
// already reported on stdout.
type exitError struct {
	code  int
	err   error
	quiet bool
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userErr(err error) *exitError { return &exitError{code: exitUserError, err: err} }
func sysErr(err error) *exitError { return &exitError{code: exitSysError, err: err} }

// failure converts a command failure into an exit error.
func failure(f *command.Failure) *exitError {
	if f.Kind == tracker.KindStorage {
		return sysErr(f)
	}
	return userErr(f)
}

func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var e *exitError
	if errors.As(err, &e) {
		return e.code
	}
	// Argument and flag errors from cobra.
	return exitUserError
}

// Execute runs the command line and returns the process exit code.
func Execute(version string) int {
	root, a := newRoot(version, time.Now)
	return run(root, a)
}

func run(root *cobra.Command, a *app) int {
	err := root.Execute()
	if cerr := a.teardown(); cerr != nil && err == nil {
		err = sysErr(cerr)
	}
	if err != nil {
		var e *exitError
		if !errors.As(err, &e) || !e.quiet {
			fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		}
	}
	return exitCode(err)
}

func newRoot(version string, now func() time.Time) (*cobra.Command, *app) {
	a := &app{version: version, now: now}

	root := &cobra.Command{
		Use:               "clockwise",
		Short:             "Clockwise splits tasks into pomodoro sessions and tracks the time worked",
		Version:           version,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/clockwise/config.yaml)")
	pf.String("db", "", "database file (overrides db_path)")
	pf.Duration("poll-interval", 0, "session check period (overrides poll_interval)")
	pf.BoolVar(&a.jsonOut, "json", false, "output as JSON")

	root.AddCommand(
		newVersionCmd(a),
		newAddCmd(a),
		newListCmd(a),
		newTodayCmd(a),
		newStartCmd(a),
		newPauseCmd(a),
		newResumeCmd(a),
		newCompleteCmd(a),
		newDeleteCmd(a),
		newRemainingCmd(a),
		newLogsCmd(a),
		newCheckCmd(a),
		newWatchCmd(a),
		newExportCmd(a),
		newTUICmd(a),
	)
	return root, a
}

// setup loads configuration, builds the logger and opens the store.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[annotationNoStore] != "" || cmd.Name() == "help" {
		return nil
	}

	v, err := config.New(a.configPath)
	if err != nil {
		return sysErr(err)
	}
	flags := cmd.Root().PersistentFlags()
	if err := v.BindPFlag(config.KeyDBPath, flags.Lookup("db")); err != nil {
		return sysErr(err)
	}
	if err := v.BindPFlag(config.KeyPollInterval, flags.Lookup("poll-interval")); err != nil {
		return sysErr(err)
	}

	cfg, err := config.Decode(v)
	if err != nil {
		return userErr(err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return userErr(err)
	}
	a.cfg, a.loc = cfg, loc

	// The terminal UI owns the screen, so it only logs to a file.
	var fallback io.Writer = cmd.ErrOrStderr()
	if cmd.Name() == "tui" {
		fallback = io.Discard
	}
	a.log, a.logCloser, err = newLogger(cfg.Log, fallback)
	if err != nil {
		return sysErr(err)
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		return sysErr(fmt.Errorf("open database: %w", err))
	}
	a.store = st
	a.svc = tracker.New(st,
		tracker.WithClock(a.now),
		tracker.WithLocation(loc),
		tracker.WithLogger(a.log),
	)
	a.cmds = command.New(a.svc, a.log)

	a.log.Debug("store opened", "db", cfg.DBPath)
	return nil
}

func (a *app) teardown() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store = nil
	}
	if a.logCloser != nil {
		errs = append(errs, a.logCloser.Close())
		a.logCloser = nil
	}
	return errors.Join(errs...)
}

// newLogger builds the slog logger described by c. Without a log file,
// records go to fallback.
func newLogger(c config.LogConfig, fallback io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := c.SlogLevel()
	if err != nil {
		return nil, nil, err
	}

	w := fallback
	var closer io.Closer
	if c.File != "" {
		f, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if c.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h), closer, nil
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the version",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoStore: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "clockwise %s\n", a.version)
			return err
		},
	}
}
