package formatter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/yildizm/go-termfmt"

	"github.com/yildizm/TabSum/internal/backend"
	"github.com/yildizm/TabSum/internal/emoji"
)

// missingValue is printed for statistics the backend left null
const missingValue = "-"

// FormatFloat prints v in the shortest form that round-trips, so 0.73 stays 0.73
func FormatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return missingValue
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatOptFloat prints a nullable statistic
func FormatOptFloat(v *float64) string {
	if v == nil {
		return missingValue
	}
	return FormatFloat(*v)
}

// FormatCount prints an integer with thousands separators
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// FormatPercent prints a 0-100 percentage
func FormatPercent(p float64) string {
	return FormatFloat(p) + "%"
}

// TypeLabel returns the display label for a column type
func TypeLabel(t backend.ColumnType) string {
	switch t {
	case backend.ColumnNumeric:
		return "Numeric"
	case backend.ColumnCategorical:
		return "Categorical"
	default:
		return string(t)
	}
}

// CorrelationStrength describes the magnitude of a correlation coefficient
func CorrelationStrength(r float64) string {
	a := math.Abs(r)
	direction := "positive"
	if r < 0 {
		direction = "negative"
	}
	switch {
	case a >= 0.7:
		return "strong " + direction
	case a >= 0.4:
		return "moderate " + direction
	case a >= 0.2:
		return "weak " + direction
	default:
		return "negligible"
	}
}

// ComparisonTitle is the heading shown above a comparison result
func ComparisonTitle(cmp *backend.Comparison) string {
	switch cmp.Type {
	case backend.ComparisonGroup:
		return fmt.Sprintf("Comparison: %s by %s", cmp.ValueColumn, cmp.GroupColumn)
	case backend.ComparisonCorrelation:
		return fmt.Sprintf("Correlation: %s vs %s", cmp.GroupColumn, cmp.ValueColumn)
	case backend.ComparisonCrossTab:
		return fmt.Sprintf("Cross Tabulation: %s x %s", cmp.GroupColumn, cmp.ValueColumn)
	case backend.ComparisonInvalid:
		return "Comparison not possible"
	default:
		return fmt.Sprintf("Unsupported comparison type: %s", cmp.Type)
	}
}

// typeEmoji returns the emoji for a column type
func typeEmoji(t backend.ColumnType) string {
	if t == backend.ColumnNumeric {
		return emoji.GetEmoji("numeric")
	}
	return emoji.GetEmoji("categorical")
}

// sectionEmoji returns a section symbol, preferring go-termfmt's set
func sectionEmoji(termfmtKey, fallbackKey string, opts *termfmt.TerminalOptions) string {
	if termfmtKey != "" {
		if symbol := termfmt.GetEmoji(termfmtKey, opts); symbol != "" {
			return symbol
		}
	}
	return emoji.GetEmoji(fallbackKey)
}

// truncate shortens s to n runes with an ellipsis
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 3 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// oneLine collapses line breaks so a value fits a table cell
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
