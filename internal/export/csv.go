package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/sadopc/clockwise/internal/tracker"
)

var csvHeader = []string{"Log ID", "Task ID", "Task", "Owner", "Scheduled", "Status", "Start", "End", "Duration (s)", "Duration"}

// WriteCSV writes one row per work interval.
func WriteCSV(w io.Writer, sums []tracker.Summary) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, s := range sums {
		for _, l := range s.Logs {
			row := []string{
				fmt.Sprintf("%d", l.ID),
				fmt.Sprintf("%d", s.Task.ID),
				s.Task.Name,
				s.Task.Owner,
				s.Task.ScheduledDate,
				s.Task.Status,
				l.StartedAt.Local().Format(time.RFC3339),
				formatOptional(l.EndedAt),
				fmt.Sprintf("%d", l.Seconds),
				FormatDuration(l.Seconds),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
