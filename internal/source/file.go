// Package source loads the user's selected file: the raw bytes uploaded to
// /analyze and the decoded CSV text re-sent to /compare.
package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

const (
	ExtCSV  = ".csv"
	ExtXLSX = ".xlsx"

	// MaxFileSize bounds files read into memory
	MaxFileSize = 200 << 20
)

var (
	// ErrUnsupportedFormat is returned for extensions other than .csv and .xlsx
	ErrUnsupportedFormat = errors.New("unsupported file format (must be .csv or .xlsx)")

	// ErrEmptySheet is returned when a workbook has no rows to convert
	ErrEmptySheet = errors.New("workbook has no data")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// File is a selected input file
type File struct {
	Name string // base name sent as the upload filename
	Path string // empty for in-memory files
	Raw  []byte

	text    string
	textErr error
}

// Supported reports whether path has an extension the backend accepts
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtCSV, ExtXLSX:
		return true
	default:
		return false
	}
}

// Open reads and decodes the file at path
func Open(path string) (*File, error) {
	if !Supported(path) {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedFormat)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("file too large: %d bytes (limit %d)", info.Size(), MaxFileSize)
	}

	// #nosec G304 - path is chosen by the user and checked above
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	f := FromBytes(filepath.Base(path), data)
	f.Path = path
	return f, nil
}

// FromBytes builds a File from in-memory content. Decoding failures do not
// fail the selection; they surface later through Text.
func FromBytes(name string, data []byte) *File {
	f := &File{Name: name, Raw: data}
	f.text, f.textErr = decode(name, data)
	return f
}

// Text returns the decoded CSV text of the file
func (f *File) Text() (string, error) {
	if f == nil {
		return "", errors.New("no file selected")
	}
	return f.text, f.textErr
}

// HasText reports whether decoded text is available for comparisons
func (f *File) HasText() bool {
	return f != nil && f.textErr == nil && f.text != ""
}

// Reader returns a fresh reader over the raw bytes
func (f *File) Reader() io.Reader {
	return bytes.NewReader(f.Raw)
}

// Size returns the raw size in bytes
func (f *File) Size() int {
	return len(f.Raw)
}

// IsSpreadsheet reports whether the file is an Excel workbook
func (f *File) IsSpreadsheet() bool {
	return strings.EqualFold(filepath.Ext(f.Name), ExtXLSX)
}

func decode(name string, data []byte) (string, error) {
	if strings.EqualFold(filepath.Ext(name), ExtXLSX) {
		return workbookToCSV(data)
	}
	return decodeText(data)
}

// decodeText returns UTF-8 text, falling back to Windows-1252 for legacy
// exports. Windows-1252 maps every byte, so the fallback cannot fail.
func decodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode text: %w", err)
	}
	return string(out), nil
}

// workbookToCSV converts the first sheet of an .xlsx workbook to CSV text
func workbookToCSV(data []byte) (string, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = wb.Close() }()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return "", ErrEmptySheet
	}

	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return "", fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return "", ErrEmptySheet
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range rows {
		// GetRows trims trailing empty cells; pad so every record has the header width
		record := make([]string, width)
		copy(record, row)
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("failed to write csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.String(), nil
}
