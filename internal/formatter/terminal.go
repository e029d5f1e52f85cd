package formatter

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/yildizm/go-termfmt"

	"github.com/yildizm/TabSum/internal/backend"
	"github.com/yildizm/TabSum/internal/emoji"
)

// terminalFormatter formats output as plain text for terminal display using go-termfmt
type terminalFormatter struct {
	opts *termfmt.TerminalOptions
}

// NewTerminal creates a new terminal formatter with optional color support
func NewTerminal(color bool) Formatter {
	opts := termfmt.DefaultOptions()
	opts.Color = color
	opts.Emoji = !emoji.IsEmojiDisabled()
	return &terminalFormatter{opts: opts}
}

func (f *terminalFormatter) Format(report *Report) ([]byte, error) {
	var b strings.Builder

	f.writeHeader(&b)

	if report.Analysis == nil {
		fmt.Fprintf(&b, "%s Select a CSV or Excel file to begin analysis\n", emoji.GetEmoji("upload"))
		return []byte(b.String()), nil
	}

	f.writeFileInfo(&b, report)
	f.writeSummary(&b, report.Analysis.Summary)
	f.writeStatistics(&b, report.Analysis)
	f.writeCharts(&b, report.Analysis)

	if report.Comparison != nil {
		f.writeComparison(&b, report.Comparison)
	}

	return []byte(b.String()), nil
}

// writeHeader writes the report title in a box
func (f *terminalFormatter) writeHeader(b *strings.Builder) {
	header := "Data Analysis Summary"
	headerLen := len(header)

	b.WriteString("╔" + strings.Repeat("═", headerLen+2) + "╗\n")
	b.WriteString("║ " + header + " ║\n")
	b.WriteString("╚" + strings.Repeat("═", headerLen+2) + "╝\n\n")
}

func (f *terminalFormatter) writeFileInfo(b *strings.Builder, report *Report) {
	b.WriteString(emoji.GetEmoji("file") + " File Information\n")

	var items []termfmt.TreeItem
	if report.File != "" {
		items = append(items, termfmt.TreeItem{Label: "File", Value: report.File})
	}
	items = append(items,
		termfmt.TreeItem{Label: "Rows", Value: FormatCount(report.Analysis.FileInfo.Rows)},
		termfmt.TreeItem{Label: "Columns", Value: FormatCount(report.Analysis.FileInfo.Columns), Last: true},
	)

	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

func (f *terminalFormatter) writeSummary(b *strings.Builder, summary string) {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return
	}
	b.WriteString(emoji.GetEmoji("summary") + " Summary\n")
	for _, line := range strings.Split(summary, "\n") {
		b.WriteString("  " + line + "\n")
	}
	b.WriteString("\n")
}

// writeStatistics writes one tree node per column with its details as children
func (f *terminalFormatter) writeStatistics(b *strings.Builder, a *backend.Analysis) {
	symbol := sectionEmoji("statistics", "statistics", f.opts)
	b.WriteString(symbol + " Column Statistics\n")

	rows := StatsRows(a)
	if len(rows) == 0 {
		b.WriteString("  (no columns)\n\n")
		return
	}

	items := make([]termfmt.TreeItem, 0, len(rows))
	for i, row := range rows {
		col := a.Columns[i]
		children := make([]termfmt.TreeItem, 0, len(row.Details)+1)
		children = append(children, termfmt.TreeItem{
			Label: "Missing",
			Value: termfmt.CreateConfidenceBar(clamp01(col.MissingPercent/100), f.opts) + " " + row.Missing,
		})
		for j, detail := range f.detailLines(col, row) {
			children = append(children, termfmt.TreeItem{Label: detail, Last: j == len(row.Details)-1})
		}

		items = append(items, termfmt.TreeItem{
			Label:    fmt.Sprintf("%s %s", typeEmoji(col.Type), truncate(row.Column, 40)),
			Value:    row.Type,
			Children: children,
			Last:     i == len(rows)-1,
		})
	}

	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

// detailLines adds a share bar to categorical top values
func (f *terminalFormatter) detailLines(col backend.Column, row StatsRow) []string {
	if col.Type != backend.ColumnCategorical || col.TopValues == nil {
		return row.Details
	}

	total := 0
	for pair := col.TopValues.Oldest(); pair != nil; pair = pair.Next() {
		total += pair.Value
	}
	if total == 0 {
		return row.Details
	}

	lines := make([]string, 0, len(row.Details))
	i := 0
	for pair := col.TopValues.Oldest(); pair != nil; pair = pair.Next() {
		share := float64(pair.Value) / float64(total)
		lines = append(lines, termfmt.CreateConfidenceBar(share, f.opts)+" "+row.Details[i])
		i++
	}
	return lines
}

func (f *terminalFormatter) writeCharts(b *strings.Builder, a *backend.Analysis) {
	entries := Charts(a)
	if len(entries) == 0 {
		return
	}

	b.WriteString(emoji.GetEmoji("charts") + " Column Visualizations\n")
	items := make([]termfmt.TreeItem, 0, len(entries))
	for i, entry := range entries {
		items = append(items, termfmt.TreeItem{
			Label: entry.Column,
			Value: entry.Describe(),
			Last:  i == len(entries)-1,
		})
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

func (f *terminalFormatter) writeComparison(b *strings.Builder, cmp *backend.Comparison) {
	symbol := emoji.GetEmoji("compare")
	if cmp.Type == backend.ComparisonCorrelation {
		symbol = emoji.GetEmoji("correlation")
	}
	fmt.Fprintf(b, "%s %s\n", symbol, ComparisonTitle(cmp))

	switch cmp.Type {
	case backend.ComparisonGroup:
		cells := make([][]string, 0)
		for _, row := range ComparisonRows(cmp) {
			cells = append(cells, row.Cells())
		}
		b.WriteString(renderTable(ComparisonHeader(cmp), cells) + "\n")
	case backend.ComparisonCorrelation:
		b.WriteString(CorrelationLine(cmp) + "\n")
		if cmp.Correlation != nil {
			b.WriteString(termfmt.CreateConfidenceBar(clamp01(math.Abs(*cmp.Correlation)), f.opts) + "\n")
		}
	case backend.ComparisonCrossTab:
		header, body := CrossTabTable(cmp)
		b.WriteString(renderTable(header, body) + "\n")
	case backend.ComparisonInvalid:
		fmt.Fprintf(b, "%s %s\n", sectionEmoji("warning", "warning", f.opts), cmp.Message)
	default:
		fmt.Fprintf(b, "%s unsupported comparison type %q\n", sectionEmoji("warning", "warning", f.opts), cmp.Type)
	}

	if entry, ok := ComparisonChart(cmp); ok {
		fmt.Fprintf(b, "Chart: %s\n", entry.Describe())
	}
	b.WriteString("\n")
}

// renderTable draws a bordered table with lipgloss
func renderTable(header []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(header...).
		Rows(rows...)
	return t.String()
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
