// Package session holds the upload-and-analyze state machine shared by the
// dashboard and the headless commands.
package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/yildizm/TabSum/internal/backend"
	"github.com/yildizm/TabSum/internal/logger"
	"github.com/yildizm/TabSum/internal/source"
)

// Backend is the analysis service the session talks to
type Backend interface {
	Analyze(ctx context.Context, name string, content io.Reader) (*backend.Analysis, error)
	Compare(ctx context.Context, req *backend.CompareRequest) (*backend.Comparison, error)
}

// Session owns all client state. At most one request is in flight; other
// requests and file changes are rejected with ErrBusy until it settles.
type Session struct {
	mu      sync.Mutex
	backend Backend
	timeout time.Duration
	log     *logger.Logger

	phase    Phase
	file     *source.File
	analyzed *analyzedState
	errMsg   string

	current *Op
	lastID  uint64
}

// Option customizes a Session
type Option func(*Session)

// WithTimeout bounds every request. Zero means no deadline.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

// WithLogger sets the session logger
func WithLogger(l *logger.Logger) Option {
	return func(s *Session) { s.log = l }
}

// New creates an empty session
func New(b Backend, opts ...Option) *Session {
	s := &Session{
		backend: b,
		log:     logger.New("session", nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SelectFile replaces the selected file and clears the error banner. The
// analysis of a previous file is discarded.
func (s *Session) SelectFile(f *source.File) error {
	if f == nil {
		return ErrNoFile
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return ErrBusy
	}

	s.file = f
	s.phase = PhaseFileSelected
	s.analyzed = nil
	s.errMsg = ""
	s.log.Debug("selected %s (%d bytes, text=%t)", f.Name, f.Size(), f.HasText())
	return nil
}

// BeginAnalyze starts an upload of the selected file. The previous analysis,
// comparison, selections and error are cleared before the request starts.
func (s *Session) BeginAnalyze(ctx context.Context) (*Op, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return nil, ErrBusy
	}
	if s.file == nil {
		s.errMsg = MsgSelectFileFirst
		return nil, &ValidationError{Message: MsgSelectFileFirst}
	}

	s.analyzed = nil
	s.errMsg = ""
	s.phase = PhaseAnalyzing

	op := s.newOp(ctx, OpAnalyze)
	op.file = s.file
	s.log.Debug("analyze op %d started for %s", op.id, s.file.Name)
	return op, nil
}

// CompleteAnalyze settles an analyze op. It returns false when op is stale
// and the result was ignored.
func (s *Session) CompleteAnalyze(op *Op, analysis *backend.Analysis, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cancelled := op != nil && op.ctx.Err() != nil
	if !s.settle(op, OpAnalyze) {
		return false
	}

	if err == nil && analysis == nil {
		err = backend.NewError(backend.ErrTypeDecode, backend.EndpointAnalyze, backend.MsgInvalidResponse)
	}
	if err != nil {
		s.phase = PhaseFileSelected
		s.errMsg = failureMessage(op.kind, err, cancelled)
		s.log.Warn("analyze failed: %s", s.errMsg)
		return true
	}

	s.phase = PhaseAnalyzed
	s.analyzed = &analyzedState{analysis: analysis}
	return true
}

// SelectGroupColumn sets the group column. An empty name clears it.
func (s *Session) SelectGroupColumn(name string) error {
	return s.selectColumn(name, func(a *analyzedState) { a.groupCol = name })
}

// SelectValueColumn sets the value column. An empty name clears it.
func (s *Session) SelectValueColumn(name string) error {
	return s.selectColumn(name, func(a *analyzedState) { a.valueCol = name })
}

func (s *Session) selectColumn(name string, set func(*analyzedState)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.analyzed == nil {
		return ErrNoAnalysis
	}
	if name != "" && !s.analyzed.analysis.HasColumn(name) {
		return ErrUnknownColumn
	}
	set(s.analyzed)
	return nil
}

// BeginCompare starts a comparison of the selected columns. The previous
// comparison stays visible while the request runs.
func (s *Session) BeginCompare(ctx context.Context) (*Op, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return nil, ErrBusy
	}
	if s.analyzed == nil {
		return nil, ErrNoAnalysis
	}
	if s.analyzed.groupCol == "" || s.analyzed.valueCol == "" {
		s.errMsg = MsgSelectBothColumns
		return nil, &ValidationError{Message: MsgSelectBothColumns}
	}
	text, textErr := s.file.Text()
	if textErr != nil || text == "" {
		s.errMsg = MsgFileContentMissing
		return nil, &ValidationError{Message: MsgFileContentMissing}
	}

	s.errMsg = ""
	s.analyzed.compareStep = Comparing

	op := s.newOp(ctx, OpCompare)
	op.request = &backend.CompareRequest{
		GroupCol:    s.analyzed.groupCol,
		ValueCol:    s.analyzed.valueCol,
		FileContent: text,
	}
	s.log.Debug("compare op %d started: %s by %s", op.id, op.request.ValueCol, op.request.GroupCol)
	return op, nil
}

// CompleteCompare settles a compare op. On failure the previous comparison
// is kept. It returns false when op is stale and the result was ignored.
func (s *Session) CompleteCompare(op *Op, cmp *backend.Comparison, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cancelled := op != nil && op.ctx.Err() != nil
	if !s.settle(op, OpCompare) {
		return false
	}
	if s.analyzed == nil {
		return true
	}

	if err == nil && cmp == nil {
		err = backend.NewError(backend.ErrTypeDecode, backend.EndpointCompare, backend.MsgInvalidResponse)
	}
	if err != nil {
		s.analyzed.compareStep = ComparisonFailed
		s.errMsg = failureMessage(op.kind, err, cancelled)
		s.log.Warn("compare failed: %s", s.errMsg)
		return true
	}

	s.analyzed.comparison = cmp
	s.analyzed.compareStep = ComparisonShown
	s.errMsg = ""
	return true
}

// RunAnalyze performs the request of an analyze op without settling it
func (s *Session) RunAnalyze(op *Op) (*backend.Analysis, error) {
	return s.backend.Analyze(op.ctx, op.file.Name, op.file.Reader())
}

// RunCompare performs the request of a compare op without settling it
func (s *Session) RunCompare(op *Op) (*backend.Comparison, error) {
	return s.backend.Compare(op.ctx, op.request)
}

// Analyze uploads the selected file and waits for the result
func (s *Session) Analyze(ctx context.Context) (*backend.Analysis, error) {
	op, err := s.BeginAnalyze(ctx)
	if err != nil {
		return nil, err
	}
	analysis, err := s.RunAnalyze(op)
	s.CompleteAnalyze(op, analysis, err)
	if err != nil {
		return nil, err
	}
	return analysis, nil
}

// Compare compares the selected columns and waits for the result
func (s *Session) Compare(ctx context.Context) (*backend.Comparison, error) {
	op, err := s.BeginCompare(ctx)
	if err != nil {
		return nil, err
	}
	cmp, err := s.RunCompare(op)
	s.CompleteCompare(op, cmp, err)
	if err != nil {
		return nil, err
	}
	return cmp, nil
}

// Cancel aborts the in-flight request, if any. The request settles as a
// failure with the cancellation message.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return false
	}
	s.current.cancel()
	return true
}

// Busy reports whether a request is in flight
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// File returns the selected file
func (s *Session) File() *source.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file
}

// Snapshot returns an immutable view of the current state
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Phase: s.phase,
		Error: s.errMsg,
	}
	if s.file != nil {
		v.FileName = s.file.Name
		v.FileSize = s.file.Size()
		v.HasFileText = s.file.HasText()
	}
	if s.current != nil {
		v.OpID = s.current.id
		v.Loading = s.current.kind == OpAnalyze
	}
	if a := s.analyzed; a != nil {
		v.Analysis = a.analysis
		v.GroupColumn = a.groupCol
		v.ValueColumn = a.valueCol
		v.Comparison = a.comparison
		v.ComparisonPhase = a.compareStep
		v.ComparisonLoading = a.compareStep == Comparing
	}
	return v
}

func (s *Session) newOp(parent context.Context, kind OpKind) *Op {
	if parent == nil {
		parent = context.Background()
	}

	var ctx context.Context
	var cancel context.CancelFunc
	if s.timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, s.timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}

	s.lastID++
	op := &Op{id: s.lastID, kind: kind, ctx: ctx, cancel: cancel}
	s.current = op
	return op
}

// settle clears the current op if op is it. Callers hold s.mu.
func (s *Session) settle(op *Op, kind OpKind) bool {
	if op == nil || op != s.current || op.kind != kind {
		if op != nil {
			s.log.Debug("ignoring stale %s op %d", op.kind, op.id)
		}
		return false
	}
	op.cancel()
	s.current = nil
	return true
}

// failureMessage maps a request error to banner text. cancelled reports
// whether the op's context was done before it settled.
func failureMessage(kind OpKind, err error, cancelled bool) string {
	if cancelled || backend.IsType(err, backend.ErrTypeCancelled) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return backend.MsgRequestCancelled
	}
	if msg := backend.UserMessage(err); msg != "" {
		return msg
	}
	if kind == OpCompare {
		return backend.MsgCompareUnavailable
	}
	return backend.MsgAnalyzeUnavailable
}
