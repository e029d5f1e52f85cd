package formatter

import (
	"fmt"
	"time"

	"github.com/yildizm/TabSum/internal/backend"
)

// Report is everything a formatter renders for one file
type Report struct {
	File        string
	Analysis    *backend.Analysis
	Comparison  *backend.Comparison
	GeneratedAt time.Time
}

// Formatter defines the interface for output formatting
type Formatter interface {
	Format(report *Report) ([]byte, error)
}

// New returns the formatter for an output format name
func New(format string, color bool) (Formatter, error) {
	switch format {
	case "json":
		return NewJSON(), nil
	case "markdown", "md":
		return NewMarkdown(), nil
	case "csv":
		return NewCSV(), nil
	case "text", "":
		return NewTerminal(color), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
