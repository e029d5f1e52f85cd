package formatter

import (
	"fmt"
	"strings"

	"github.com/yildizm/TabSum/internal/backend"
)

// markdownFormatter formats output as Markdown
type markdownFormatter struct{}

// NewMarkdown creates a new Markdown formatter
func NewMarkdown() Formatter {
	return &markdownFormatter{}
}

func (f *markdownFormatter) Format(report *Report) ([]byte, error) {
	var b strings.Builder

	b.WriteString("# Data Analysis Report\n\n")
	if !report.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "Generated: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05"))
	}

	if report.Analysis == nil {
		b.WriteString("No analysis available.\n")
		return []byte(b.String()), nil
	}

	f.writeFileInfo(&b, report)
	f.writeSummary(&b, report.Analysis.Summary)
	f.writeStatistics(&b, report.Analysis)
	f.writeCharts(&b, report.Analysis)
	if report.Comparison != nil {
		f.writeComparison(&b, report.Comparison)
	}

	b.WriteString("---\n")
	b.WriteString("*Report generated by TabSum*\n")
	return []byte(b.String()), nil
}

func (f *markdownFormatter) writeFileInfo(b *strings.Builder, report *Report) {
	b.WriteString("## File Information\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	if report.File != "" {
		fmt.Fprintf(b, "| File | %s |\n", escapeCell(report.File))
	}
	fmt.Fprintf(b, "| Rows | %s |\n", FormatCount(report.Analysis.FileInfo.Rows))
	fmt.Fprintf(b, "| Columns | %s |\n\n", FormatCount(report.Analysis.FileInfo.Columns))
}

func (f *markdownFormatter) writeSummary(b *strings.Builder, summary string) {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return
	}
	b.WriteString("## Summary\n\n```\n")
	b.WriteString(summary + "\n")
	b.WriteString("```\n\n")
}

func (f *markdownFormatter) writeStatistics(b *strings.Builder, a *backend.Analysis) {
	b.WriteString("## Column Statistics\n\n")
	rows := make([][]string, 0, len(a.Columns))
	for _, row := range StatsRows(a) {
		rows = append(rows, row.Cells("<br>"))
	}
	writeMarkdownTable(b, StatsHeader, rows)
}

func (f *markdownFormatter) writeCharts(b *strings.Builder, a *backend.Analysis) {
	entries := Charts(a)
	if len(entries) == 0 {
		return
	}
	b.WriteString("## Column Visualizations\n\n")
	for _, entry := range entries {
		fmt.Fprintf(b, "- **%s**: %s\n", escapeCell(entry.Column), entry.Describe())
	}
	b.WriteString("\n")
}

func (f *markdownFormatter) writeComparison(b *strings.Builder, cmp *backend.Comparison) {
	fmt.Fprintf(b, "## %s\n\n", ComparisonTitle(cmp))

	switch cmp.Type {
	case backend.ComparisonGroup:
		rows := make([][]string, 0)
		for _, row := range ComparisonRows(cmp) {
			rows = append(rows, row.Cells())
		}
		writeMarkdownTable(b, ComparisonHeader(cmp), rows)
	case backend.ComparisonCorrelation:
		fmt.Fprintf(b, "**%s**\n\n", CorrelationLine(cmp))
	case backend.ComparisonCrossTab:
		header, body := CrossTabTable(cmp)
		writeMarkdownTable(b, header, body)
	case backend.ComparisonInvalid:
		fmt.Fprintf(b, "> %s\n\n", cmp.Message)
	default:
		fmt.Fprintf(b, "> Unsupported comparison type `%s`\n\n", cmp.Type)
	}

	if entry, ok := ComparisonChart(cmp); ok {
		fmt.Fprintf(b, "Chart: %s\n\n", entry.Describe())
	}
}

func writeMarkdownTable(b *strings.Builder, header []string, rows [][]string) {
	if len(header) == 0 {
		return
	}
	cells := make([]string, len(header))
	for i, h := range header {
		cells[i] = escapeCell(h)
	}
	b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat("---|", len(header)) + "\n")
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = escapeCell(c)
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	b.WriteString("\n")
}

// escapeCell keeps a value inside one Markdown table cell
func escapeCell(s string) string {
	return strings.ReplaceAll(oneLine(s), "|", `\|`)
}
