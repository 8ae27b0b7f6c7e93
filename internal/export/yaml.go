package export

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sadopc/clockwise/internal/tracker"
)

// WriteYAML writes the same document as WriteJSON in YAML.
func WriteYAML(w io.Writer, sums []tracker.Summary, now time.Time) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newDocument(sums, now)); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
