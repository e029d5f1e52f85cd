package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/yildizm/TabSum/internal/backend"
)

// csvFormatter formats the column statistics table as CSV, followed by the
// comparison table when there is one
type csvFormatter struct{}

// NewCSV creates a new CSV formatter
func NewCSV() Formatter {
	return &csvFormatter{}
}

func (f *csvFormatter) Format(report *Report) ([]byte, error) {
	var b bytes.Buffer
	writer := csv.NewWriter(&b)

	if err := writer.Write(StatsHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, row := range StatsRows(report.Analysis) {
		if err := writer.Write(row.Cells("; ")); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	if header, rows := comparisonTable(report.Comparison); len(header) > 0 {
		writer.Flush()
		b.WriteString("\n")
		if err := writer.Write(header); err != nil {
			return nil, fmt.Errorf("failed to write CSV headers: %w", err)
		}
		for _, row := range rows {
			if err := writer.Write(row); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return b.Bytes(), nil
}

// comparisonTable returns the tabular form of a comparison, if it has one
func comparisonTable(cmp *backend.Comparison) ([]string, [][]string) {
	if cmp == nil {
		return nil, nil
	}
	switch cmp.Type {
	case backend.ComparisonGroup:
		rows := make([][]string, 0)
		for _, row := range ComparisonRows(cmp) {
			rows = append(rows, row.Cells())
		}
		return ComparisonHeader(cmp), rows
	case backend.ComparisonCrossTab:
		return CrossTabTable(cmp)
	case backend.ComparisonCorrelation:
		return []string{"Group Column", "Value Column", "Correlation"},
			[][]string{{cmp.GroupColumn, cmp.ValueColumn, FormatOptFloat(cmp.Correlation)}}
	default:
		return nil, nil
	}
}
