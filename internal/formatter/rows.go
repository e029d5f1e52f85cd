package formatter

import (
	"fmt"
	"strings"

	"github.com/yildizm/TabSum/internal/backend"
)

// StatsHeader is the header of the column statistics table
var StatsHeader = []string{"Column Name", "Type", "Missing %", "Details"}

// StatsRow is one row of the column statistics table
type StatsRow struct {
	Column  string
	Type    string
	Missing string
	Details []string
}

// Cells returns the row as table cells, joining details with sep
func (r StatsRow) Cells(sep string) []string {
	return []string{r.Column, r.Type, r.Missing, strings.Join(r.Details, sep)}
}

// StatsRows returns one row per column descriptor, in server order
func StatsRows(a *backend.Analysis) []StatsRow {
	if a == nil {
		return nil
	}
	rows := make([]StatsRow, 0, len(a.Columns))
	for _, col := range a.Columns {
		rows = append(rows, StatsRow{
			Column:  col.Name,
			Type:    TypeLabel(col.Type),
			Missing: FormatPercent(col.MissingPercent),
			Details: columnDetails(col),
		})
	}
	return rows
}

func columnDetails(col backend.Column) []string {
	if col.Type == backend.ColumnNumeric {
		if col.Stats == nil {
			return []string{missingValue}
		}
		return []string{
			"Min: " + FormatFloat(col.Stats.Min),
			"Max: " + FormatFloat(col.Stats.Max),
			"Mean: " + FormatFloat(col.Stats.Mean),
			"Median: " + FormatFloat(col.Stats.Median),
		}
	}

	if col.TopValues == nil || col.TopValues.Len() == 0 {
		return []string{missingValue}
	}
	details := make([]string, 0, col.TopValues.Len())
	for pair := col.TopValues.Oldest(); pair != nil; pair = pair.Next() {
		details = append(details, fmt.Sprintf("%s: %s", pair.Key, FormatCount(pair.Value)))
	}
	return details
}

// ComparisonHeader returns the group comparison table header. The first
// cell is the group column's name.
func ComparisonHeader(cmp *backend.Comparison) []string {
	group := "Group"
	if cmp != nil && cmp.GroupColumn != "" {
		group = cmp.GroupColumn
	}
	return []string{group, "Mean", "Median", "Min", "Max", "Std Dev", "Count"}
}

// ComparisonRow is one group of a group comparison
type ComparisonRow struct {
	Group  string
	Mean   string
	Median string
	Min    string
	Max    string
	Std    string
	Count  string
}

// Cells returns the row in mean, median, min, max, std, count order
func (r ComparisonRow) Cells() []string {
	return []string{r.Group, r.Mean, r.Median, r.Min, r.Max, r.Std, r.Count}
}

// ComparisonRows returns one row per group in server order. Other
// comparison types have no group rows.
func ComparisonRows(cmp *backend.Comparison) []ComparisonRow {
	if cmp == nil || cmp.Type != backend.ComparisonGroup || cmp.Groups == nil {
		return nil
	}
	rows := make([]ComparisonRow, 0, cmp.Groups.Len())
	for pair := cmp.Groups.Oldest(); pair != nil; pair = pair.Next() {
		stats := pair.Value
		rows = append(rows, ComparisonRow{
			Group:  pair.Key,
			Mean:   FormatOptFloat(stats.Mean),
			Median: FormatOptFloat(stats.Median),
			Min:    FormatOptFloat(stats.Min),
			Max:    FormatOptFloat(stats.Max),
			Std:    FormatOptFloat(stats.Std),
			Count:  FormatCount(stats.Count),
		})
	}
	return rows
}

// CrossTabTable returns the header and body of a cross tabulation. Columns
// are the union of inner keys in first-seen order; absent counts are 0.
func CrossTabTable(cmp *backend.Comparison) ([]string, [][]string) {
	if cmp == nil || cmp.Type != backend.ComparisonCrossTab || cmp.CrossTab == nil {
		return nil, nil
	}

	var columns []string
	seen := make(map[string]bool)
	for row := cmp.CrossTab.Oldest(); row != nil; row = row.Next() {
		if row.Value == nil {
			continue
		}
		for cell := row.Value.Oldest(); cell != nil; cell = cell.Next() {
			if !seen[cell.Key] {
				seen[cell.Key] = true
				columns = append(columns, cell.Key)
			}
		}
	}

	header := append([]string{cmp.GroupColumn}, columns...)
	body := make([][]string, 0, cmp.CrossTab.Len())
	for row := cmp.CrossTab.Oldest(); row != nil; row = row.Next() {
		cells := make([]string, 0, len(columns)+1)
		cells = append(cells, row.Key)
		for _, c := range columns {
			n := 0
			if row.Value != nil {
				n, _ = row.Value.Get(c)
			}
			cells = append(cells, FormatCount(n))
		}
		body = append(body, cells)
	}
	return header, body
}

// CorrelationLine is the one-line rendering of a correlation result
func CorrelationLine(cmp *backend.Comparison) string {
	if cmp == nil || cmp.Correlation == nil {
		return "Correlation coefficient: " + missingValue
	}
	r := *cmp.Correlation
	return fmt.Sprintf("Correlation coefficient: %s (%s)", FormatFloat(r), CorrelationStrength(r))
}
