package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sadopc/clockwise/internal/command"
	"github.com/sadopc/clockwise/internal/export"
	"github.com/sadopc/clockwise/internal/store"
	"github.com/sadopc/clockwise/internal/tracker"
)

func newAddCmd(a *app) *cobra.Command {
	var (
		name  string
		owner string
		hours float64
		date  string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task and plan its pomodoro sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if date == "" {
				date = a.now().In(a.loc).Format(store.DateLayout)
			}
			res := a.cmds.AddTask(cmd.Context(), name, owner, hours, date)
			return emit(cmd, a, res, func(w io.Writer, t *store.Task) error {
				_, err := fmt.Fprintf(w, "Created task %d: %s\n", t.ID, t.Name)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "task name (required)")
	cmd.Flags().StringVar(&owner, "owner", "", "task owner")
	cmd.Flags().Float64Var(&hours, "hours", 0, "estimated hours")
	cmd.Flags().StringVar(&date, "date", "", "scheduled date YYYY-MM-DD (default: today)")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var (
		sessions bool
		statuses []string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := tracker.ParseStatusFilter(statuses)
			if err != nil {
				return userErr(err)
			}
			if sessions {
				res := a.cmds.LoadTasksWithSessions(cmd.Context())
				res.Data = filter.Views(res.Data)
				return emit(cmd, a, res, writeTaskViews)
			}
			res := a.cmds.LoadTasks(cmd.Context())
			res.Data = filter.Tasks(res.Data)
			return emit(cmd, a, res, writeTasks)
		},
	}
	cmd.Flags().BoolVar(&sessions, "sessions", false, "include pomodoro sessions, running task first")
	addStatusFlag(cmd, &statuses)
	return cmd
}

func newTodayCmd(a *app) *cobra.Command {
	var statuses []string
	cmd := &cobra.Command{
		Use:   "today",
		Short: "List tasks scheduled for today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := tracker.ParseStatusFilter(statuses)
			if err != nil {
				return userErr(err)
			}
			res := a.cmds.GetTodayTasks(cmd.Context())
			res.Data = filter.Tasks(res.Data)
			return emit(cmd, a, res, writeTasks)
		},
	}
	addStatusFlag(cmd, &statuses)
	return cmd
}

func addStatusFlag(cmd *cobra.Command, statuses *[]string) {
	cmd.Flags().StringSliceVar(statuses, "status", nil,
		"only list tasks in this status, repeatable (pending, in_progress, waiting, paused, completed)")
}

// newLifecycleCmd builds a command that applies op to the task named by its
// single argument.
func newLifecycleCmd(a *app, use, short, done string, op func(ctx context.Context, id int64) command.Response[command.Unit]) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return emit(cmd, a, op(cmd.Context(), id), message[command.Unit]("%s task %d", done, id))
		},
	}
}

func newStartCmd(a *app) *cobra.Command {
	var force bool
	cmd := newLifecycleCmd(a, "start", "Start a task's next session", "Started",
		func(ctx context.Context, id int64) command.Response[command.Unit] {
			return a.cmds.StartTask(ctx, id, force)
		})
	cmd.Flags().BoolVarP(&force, "force", "f", false, "pause any running task first")
	return cmd
}

func newPauseCmd(a *app) *cobra.Command {
	return newLifecycleCmd(a, "pause", "Pause a running task", "Paused",
		func(ctx context.Context, id int64) command.Response[command.Unit] {
			return a.cmds.PauseTask(ctx, id)
		})
}

func newResumeCmd(a *app) *cobra.Command {
	return newLifecycleCmd(a, "resume", "Resume a paused task", "Resumed",
		func(ctx context.Context, id int64) command.Response[command.Unit] {
			return a.cmds.ResumeTask(ctx, id)
		})
}

func newCompleteCmd(a *app) *cobra.Command {
	return newLifecycleCmd(a, "complete", "Mark a task completed", "Completed",
		func(ctx context.Context, id int64) command.Response[command.Unit] {
			return a.cmds.CompleteTask(ctx, id)
		})
}

func newDeleteCmd(a *app) *cobra.Command {
	return newLifecycleCmd(a, "delete", "Delete a task with its sessions and logs", "Deleted",
		func(ctx context.Context, id int64) command.Response[command.Unit] {
			return a.cmds.DeleteTask(ctx, id)
		})
}

func newRemainingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remaining <id>",
		Short: "Print the estimate minus the time worked, in seconds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return emit(cmd, a, a.cmds.GetTaskRemainingTime(cmd.Context(), id), func(w io.Writer, secs int64) error {
				_, err := fmt.Fprintf(w, "%d (%s)\n", secs, export.FormatDuration(secs))
				return err
			})
		},
	}
}

func newLogsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logs <id>",
		Short: "Print a task's work time logs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return emit(cmd, a, a.cmds.GetTaskTimeLogs(cmd.Context(), id), writeSpans)
		},
	}
}
