package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sadopc/clockwise/internal/command"
	"github.com/sadopc/clockwise/internal/export"
	"github.com/sadopc/clockwise/internal/store"
	"github.com/sadopc/clockwise/internal/tracker"
)

// emit prints res: the whole envelope with --json, otherwise the data
// through human. A failed response becomes an exit error.
func emit[T any](cmd *cobra.Command, a *app, res command.Response[T], human func(w io.Writer, data T) error) error {
	w := cmd.OutOrStdout()
	if a.jsonOut {
		if err := writeJSON(w, res); err != nil {
			return sysErr(err)
		}
	} else if res.OK {
		if err := human(w, res.Data); err != nil {
			return sysErr(err)
		}
	}
	if res.Error != nil {
		e := failure(res.Error)
		e.quiet = a.jsonOut
		return e
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// message returns a human printer for commands without a payload.
func message[T any](format string, args ...any) func(io.Writer, T) error {
	return func(w io.Writer, _ T) error {
		_, err := fmt.Fprintf(w, format+"\n", args...)
		return err
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, userErr(fmt.Errorf("invalid task id %q", s))
	}
	return id, nil
}

func writeTasks(w io.Writer, tasks []store.Task) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "No tasks.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tOWNER\tDATE\tESTIMATE\tSTATUS")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Name, dash(t.Owner), t.ScheduledDate,
			export.FormatDuration(t.EstimatedSeconds()), t.Status)
	}
	return tw.Flush()
}

func writeTaskViews(w io.Writer, views []tracker.TaskView) error {
	if len(views) == 0 {
		_, err := fmt.Fprintln(w, "No tasks.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, v := range views {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			v.ID, v.Name, v.ScheduledDate, export.FormatDuration(v.EstimatedSeconds()), v.Status)
		for _, s := range v.Sessions {
			fmt.Fprintf(tw, "\t#%d %s\t%s\t%s\t\n",
				s.SessionNumber, s.Type, export.FormatDuration(int64(s.DurationSeconds)), sessionState(s))
		}
	}
	return tw.Flush()
}

func sessionState(s tracker.SessionInfo) string {
	switch {
	case s.IsActive:
		return "active"
	case s.Consumed:
		return "done"
	}
	return "pending"
}

func writeSpans(w io.Writer, spans []tracker.Span) error {
	if len(spans) == 0 {
		_, err := fmt.Fprintln(w, "No time logs.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LOG\tSTART\tEND\tDURATION")
	for _, s := range spans {
		end := "open"
		if s.EndedAt != nil {
			end = s.EndedAt.Local().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n",
			s.ID, s.StartedAt.Local().Format("2006-01-02 15:04:05"), end, export.FormatDuration(s.Seconds))
	}
	return tw.Flush()
}

func writeIDs(w io.Writer, ids []int64) error {
	if len(ids) == 0 {
		_, err := fmt.Fprintln(w, "No sessions elapsed.")
		return err
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	_, err := fmt.Fprintf(w, "Advanced tasks: %s\n", strings.Join(parts, ", "))
	return err
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
