package session

import (
	"context"

	"github.com/yildizm/TabSum/internal/backend"
	"github.com/yildizm/TabSum/internal/source"
)

// Phase is the top-level state of a session
type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseFileSelected
	PhaseAnalyzing
	PhaseAnalyzed
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhaseFileSelected:
		return "file_selected"
	case PhaseAnalyzing:
		return "analyzing"
	case PhaseAnalyzed:
		return "analyzed"
	default:
		return "unknown"
	}
}

// ComparisonPhase is the comparison sub-state of an analyzed session
type ComparisonPhase int

const (
	ComparisonIdle ComparisonPhase = iota
	Comparing
	ComparisonShown
	ComparisonFailed
)

func (p ComparisonPhase) String() string {
	switch p {
	case ComparisonIdle:
		return "idle"
	case Comparing:
		return "comparing"
	case ComparisonShown:
		return "shown"
	case ComparisonFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// analyzedState exists only while the session is in PhaseAnalyzed, so
// selections and comparisons cannot outlive the analysis they refer to.
type analyzedState struct {
	analysis    *backend.Analysis
	groupCol    string
	valueCol    string
	comparison  *backend.Comparison
	compareStep ComparisonPhase
}

// OpKind identifies the request an Op performs
type OpKind int

const (
	OpAnalyze OpKind = iota
	OpCompare
)

func (k OpKind) String() string {
	if k == OpCompare {
		return "compare"
	}
	return "analyze"
}

// Op is one in-flight backend request. Completions are matched to the
// session's current op by identity; anything else is stale.
type Op struct {
	id      uint64
	kind    OpKind
	ctx     context.Context
	cancel  context.CancelFunc
	file    *source.File
	request *backend.CompareRequest
}

// ID returns the op's sequence number, increasing per session
func (o *Op) ID() uint64 { return o.id }

// Kind returns the request type
func (o *Op) Kind() OpKind { return o.kind }

// Context returns the context the request must run under
func (o *Op) Context() context.Context { return o.ctx }

// File returns the file an analyze op uploads
func (o *Op) File() *source.File { return o.file }

// Request returns the body a compare op sends
func (o *Op) Request() *backend.CompareRequest { return o.request }

// Cancel aborts the request. The op still has to be completed.
func (o *Op) Cancel() { o.cancel() }
