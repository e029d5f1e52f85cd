package formatter

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/png" // register the PNG decoder for DecodeConfig
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/yildizm/TabSum/internal/backend"
)

// ComparisonChartName is the file name used for an exported comparison chart
const ComparisonChartName = "comparison.png"

// ErrNoImage marks a chart entry the backend could not plot
var ErrNoImage = errors.New("no image")

// ChartEntry describes one chart returned by the backend
type ChartEntry struct {
	Column string
	Width  int
	Height int
	Bytes  int
	Data   []byte
	Err    error
}

// Size returns the humanized payload size
func (c ChartEntry) Size() string {
	return humanize.Bytes(uint64(c.Bytes))
}

// Describe returns a one-line summary such as "600x400 PNG, 18 kB"
func (c ChartEntry) Describe() string {
	if c.Err != nil {
		return c.Err.Error()
	}
	return fmt.Sprintf("%dx%d PNG, %s", c.Width, c.Height, c.Size())
}

// Charts returns one entry per chart key in server order, including keys
// whose image is missing or undecodable
func Charts(a *backend.Analysis) []ChartEntry {
	if a == nil || a.Charts == nil {
		return nil
	}
	entries := make([]ChartEntry, 0, a.Charts.Len())
	for pair := a.Charts.Oldest(); pair != nil; pair = pair.Next() {
		entries = append(entries, decodeChart(pair.Key, pair.Value))
	}
	return entries
}

// ComparisonChart decodes the chart of a comparison, if it has one
func ComparisonChart(cmp *backend.Comparison) (ChartEntry, bool) {
	if !cmp.HasChart() {
		return ChartEntry{}, false
	}
	return decodeChart(ComparisonTitle(cmp), cmp.Chart), true
}

func decodeChart(column string, payload *string) ChartEntry {
	entry := ChartEntry{Column: column}
	if payload == nil || *payload == "" {
		entry.Err = ErrNoImage
		return entry
	}

	data, err := base64.StdEncoding.DecodeString(*payload)
	if err != nil {
		entry.Err = fmt.Errorf("invalid base64: %w", err)
		return entry
	}
	entry.Data = data
	entry.Bytes = len(data)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		entry.Err = fmt.Errorf("invalid image: %w", err)
		return entry
	}
	if format != "png" {
		entry.Err = fmt.Errorf("unexpected image format: %s", format)
		return entry
	}
	entry.Width = cfg.Width
	entry.Height = cfg.Height
	return entry
}

// ExportCharts writes every decodable chart to dir as <column>.png, plus
// comparison.png when the comparison has a chart. It returns the written paths.
func ExportCharts(dir string, a *backend.Analysis, cmp *backend.Comparison) ([]string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create chart directory: %w", err)
	}

	used := map[string]bool{ComparisonChartName: true}
	var written []string
	for _, entry := range Charts(a) {
		if entry.Err != nil {
			continue
		}
		name := uniqueName(SafeFileName(entry.Column), used)
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, entry.Data, 0o600); err != nil {
			return written, fmt.Errorf("failed to write chart %s: %w", entry.Column, err)
		}
		written = append(written, path)
	}

	if entry, ok := ComparisonChart(cmp); ok && entry.Err == nil {
		path := filepath.Join(dir, ComparisonChartName)
		if err := os.WriteFile(path, entry.Data, 0o600); err != nil {
			return written, fmt.Errorf("failed to write comparison chart: %w", err)
		}
		written = append(written, path)
	}
	return written, nil
}

// SafeFileName maps a column name to a portable file stem
func SafeFileName(column string) string {
	var b strings.Builder
	for _, r := range column {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name := strings.Trim(b.String(), "._")
	if name == "" {
		name = "column"
	}
	return name
}

func uniqueName(stem string, used map[string]bool) string {
	name := stem + ".png"
	for i := 2; used[name]; i++ {
		name = fmt.Sprintf("%s_%d.png", stem, i)
	}
	used[name] = true
	return name
}
