package session

import "github.com/yildizm/TabSum/internal/backend"

// Screen is the top-level thing a renderer draws
type Screen int

const (
	ScreenEmpty Screen = iota
	ScreenLoading
	ScreenError
	ScreenAnalyzed
)

func (s Screen) String() string {
	switch s {
	case ScreenEmpty:
		return "empty"
	case ScreenLoading:
		return "loading"
	case ScreenError:
		return "error"
	case ScreenAnalyzed:
		return "analyzed"
	default:
		return "unknown"
	}
}

// View is a point-in-time copy of session state. Analysis and Comparison are
// shared with the session but never mutated after they are received.
type View struct {
	Phase           Phase
	ComparisonPhase ComparisonPhase

	FileName    string
	FileSize    int
	HasFileText bool

	Analysis    *backend.Analysis
	Comparison  *backend.Comparison
	GroupColumn string
	ValueColumn string

	Error             string
	Loading           bool
	ComparisonLoading bool
	OpID              uint64
}

// Screen derives the screen from state values alone. In ScreenAnalyzed a
// non-empty Error is drawn as a banner above the analysis.
func (v View) Screen() Screen {
	switch {
	case v.Loading:
		return ScreenLoading
	case v.Analysis != nil:
		return ScreenAnalyzed
	case v.Error != "":
		return ScreenError
	default:
		return ScreenEmpty
	}
}

// Busy reports whether any request is in flight
func (v View) Busy() bool {
	return v.Loading || v.ComparisonLoading
}

// FileInputEnabled reports whether a new file may be picked
func (v View) FileInputEnabled() bool {
	return !v.Loading
}

// UploadEnabled reports whether the upload control is active
func (v View) UploadEnabled() bool {
	return v.FileName != "" && !v.Loading
}

// CompareEnabled reports whether the compare control is active
func (v View) CompareEnabled() bool {
	return !v.ComparisonLoading && v.GroupColumn != "" && v.ValueColumn != ""
}

// Columns returns the column names available for selection
func (v View) Columns() []string {
	return v.Analysis.Names()
}
