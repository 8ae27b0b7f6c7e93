package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/clockwise/internal/export"
	"github.com/sadopc/clockwise/internal/tracker"
	"github.com/sadopc/clockwise/internal/tui"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Advance every running task whose session has elapsed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return emit(cmd, a, a.cmds.CheckPomodoroSessions(cmd.Context()), writeIDs)
		},
	}
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Check sessions every poll interval until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w := cmd.OutOrStdout()
			p := tracker.NewPoller(a.svc, a.cfg.PollInterval, func(ids []int64) {
				if a.jsonOut {
					_ = writeJSON(w, map[string]any{"advanced": ids, "at": a.now().UTC()})
					return
				}
				_ = writeIDs(w, ids)
			})

			a.log.Info("watching sessions", "interval", a.cfg.PollInterval)
			err := p.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var (
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export tasks with worked time and time logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return userErr(err)
			}
			res := a.cmds.Summaries(cmd.Context())
			if res.Error != nil {
				return failure(res.Error)
			}

			if out == "" || out == "-" {
				if err := export.Write(cmd.OutOrStdout(), f, res.Data, a.now()); err != nil {
					return sysErr(err)
				}
				return nil
			}
			if err := export.ToFile(out, f, res.Data, a.now()); err != nil {
				return sysErr(err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d tasks to %s\n", len(res.Data), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", string(export.FormatCSV), "csv, json or yaml")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	return cmd
}

func newTUICmd(a *app) *cobra.Command {
	var exportDir string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := tui.NewApp(a.cmds, tui.Options{
				PollInterval: a.cfg.PollInterval,
				ExportDir:    exportDir,
				Location:     a.loc,
				Now:          a.now,
			})
			p := tea.NewProgram(app,
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			if _, err := p.Run(); err != nil {
				return sysErr(err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&exportDir, "export-dir", "", "directory for exports (default: home directory)")
	return cmd
}
