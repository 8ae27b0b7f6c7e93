package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sadopc/clockwise/internal/tracker"
)

// WriteJSON writes every task with its logs as indented JSON.
func WriteJSON(w io.Writer, sums []tracker.Summary, now time.Time) error {
	data, err := json.MarshalIndent(newDocument(sums, now), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
