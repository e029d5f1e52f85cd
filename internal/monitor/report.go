package monitor

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
)

// FormatText writes the snapshot as a table followed by the upload volume
func FormatText(w io.Writer, snapshot MetricsSnapshot) error {
	if snapshot.Empty() {
		_, err := fmt.Fprintln(w, "No requests tracked")
		return err
	}

	rows := make([][]string, 0, len(snapshot.Operations))
	for _, op := range snapshot.Operations {
		rows = append(rows, []string{
			string(op.Operation),
			strconv.FormatInt(op.Count, 10),
			strconv.FormatInt(op.ErrorCount, 10),
			formatDuration(op.AvgTime()),
			formatDuration(op.MinTime),
			formatDuration(op.MaxTime),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Operation", "Count", "Errors", "Avg", "Min", "Max").
		Rows(rows...)

	if _, err := fmt.Fprintln(w, t.String()); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Uploaded: %s\n", humanize.Bytes(uint64(snapshot.BytesUploaded)))
	return err
}

// formatDuration rounds to a readable precision
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return d.Round(10 * time.Millisecond).String()
	case d >= time.Millisecond:
		return d.Round(100 * time.Microsecond).String()
	default:
		return d.Round(time.Microsecond).String()
	}
}
