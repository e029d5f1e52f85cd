package formatter

import (
	"encoding/json"
	"time"

	"github.com/yildizm/TabSum/internal/backend"
)

// jsonFormatter formats output as JSON
type jsonFormatter struct{}

// NewJSON creates a new JSON formatter
func NewJSON() Formatter {
	return &jsonFormatter{}
}

func (f *jsonFormatter) Format(report *Report) ([]byte, error) {
	output := &JSONOutput{
		File:       report.File,
		Comparison: report.Comparison,
	}
	if !report.GeneratedAt.IsZero() {
		generated := report.GeneratedAt
		output.GeneratedAt = &generated
	}
	if a := report.Analysis; a != nil {
		info := a.FileInfo
		output.FileInfo = &info
		output.Summary = a.Summary
		output.Columns = a.Columns
		output.Charts = createChartOutputs(a)
	}

	return json.MarshalIndent(output, "", "  ")
}

// JSONOutput is the document written by the JSON formatter. Chart payloads
// are summarized rather than embedded.
type JSONOutput struct {
	File        string              `json:"file,omitempty"`
	GeneratedAt *time.Time          `json:"generated_at,omitempty"`
	FileInfo    *backend.FileInfo   `json:"file_info,omitempty"`
	Summary     string              `json:"summary,omitempty"`
	Columns     []backend.Column    `json:"columns"`
	Charts      []*ChartOutput      `json:"charts"`
	Comparison  *backend.Comparison `json:"comparison,omitempty"`
}

// ChartOutput summarizes one chart image
type ChartOutput struct {
	Column string `json:"column"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Bytes  int    `json:"bytes"`
	Error  string `json:"error,omitempty"`
}

func createChartOutputs(a *backend.Analysis) []*ChartOutput {
	entries := Charts(a)
	outputs := make([]*ChartOutput, 0, len(entries))
	for _, entry := range entries {
		output := &ChartOutput{
			Column: entry.Column,
			Width:  entry.Width,
			Height: entry.Height,
			Bytes:  entry.Bytes,
		}
		if entry.Err != nil {
			output.Error = entry.Err.Error()
		}
		outputs = append(outputs, output)
	}
	return outputs
}
