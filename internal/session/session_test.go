package session

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yildizm/TabSum/internal/backend"
	"github.com/yildizm/TabSum/internal/source"
)

type fakeBackend struct {
	analyzeCalls atomic.Int32
	compareCalls atomic.Int32

	analyze func(ctx context.Context, name string, content io.Reader) (*backend.Analysis, error)
	compare func(ctx context.Context, req *backend.CompareRequest) (*backend.Comparison, error)
}

func (f *fakeBackend) Analyze(ctx context.Context, name string, content io.Reader) (*backend.Analysis, error) {
	f.analyzeCalls.Add(1)
	if f.analyze == nil {
		return sampleAnalysis(), nil
	}
	return f.analyze(ctx, name, content)
}

func (f *fakeBackend) Compare(ctx context.Context, req *backend.CompareRequest) (*backend.Comparison, error) {
	f.compareCalls.Add(1)
	if f.compare == nil {
		return correlation(0.73), nil
	}
	return f.compare(ctx, req)
}

func sampleAnalysis() *backend.Analysis {
	return &backend.Analysis{
		FileInfo: backend.FileInfo{Rows: 3, Columns: 2},
		Summary:  "File has 3 rows and 2 columns.",
		Columns: []backend.Column{
			{Name: "region", Type: backend.ColumnCategorical},
			{Name: "sales", Type: backend.ColumnNumeric, Stats: &backend.NumericStats{Min: 1, Max: 3, Mean: 2, Median: 2}},
		},
	}
}

func correlation(v float64) *backend.Comparison {
	return &backend.Comparison{Type: backend.ComparisonCorrelation, GroupColumn: "region", ValueColumn: "sales", Correlation: &v}
}

func csvFile() *source.File {
	return source.FromBytes("sales.csv", []byte("region,sales\nnorth,1\nsouth,3\n"))
}

func analyzedSession(t *testing.T, fb *fakeBackend, opts ...Option) *Session {
	t.Helper()
	s := New(fb, opts...)
	require.NoError(t, s.SelectFile(csvFile()))
	_, err := s.Analyze(context.Background())
	require.NoError(t, err)
	return s
}

func TestSession_InitialState(t *testing.T) {
	s := New(&fakeBackend{})
	v := s.Snapshot()

	assert.Equal(t, PhaseEmpty, v.Phase)
	assert.Equal(t, ScreenEmpty, v.Screen())
	assert.True(t, v.FileInputEnabled())
	assert.False(t, v.UploadEnabled())
	assert.False(t, v.CompareEnabled())
	assert.Empty(t, v.Columns())
}

func TestSession_SelectFileResetsError(t *testing.T) {
	s := New(&fakeBackend{})

	_, err := s.BeginAnalyze(context.Background())
	require.Error(t, err)
	require.NotEmpty(t, s.Snapshot().Error)

	require.NoError(t, s.SelectFile(csvFile()))
	v := s.Snapshot()
	assert.Empty(t, v.Error)
	assert.Equal(t, PhaseFileSelected, v.Phase)
	assert.Equal(t, "sales.csv", v.FileName)
	assert.True(t, v.HasFileText)
	assert.True(t, v.UploadEnabled())

	assert.ErrorIs(t, s.SelectFile(nil), ErrNoFile)
}

func TestSession_UploadWithoutFile(t *testing.T) {
	fb := &fakeBackend{}
	s := New(fb)

	op, err := s.BeginAnalyze(context.Background())
	assert.Nil(t, op)
	assert.True(t, IsValidationError(err))
	assert.Equal(t, "Please select a file first", s.Snapshot().Error)

	_, err = s.Analyze(context.Background())
	assert.Error(t, err)
	assert.Equal(t, int32(0), fb.analyzeCalls.Load())
	assert.Equal(t, ScreenError, s.Snapshot().Screen())
}

func TestSession_AnalyzeSuccess(t *testing.T) {
	fb := &fakeBackend{analyze: func(_ context.Context, name string, content io.Reader) (*backend.Analysis, error) {
		data, _ := io.ReadAll(content)
		assert.Equal(t, "sales.csv", name)
		assert.Equal(t, "region,sales\nnorth,1\nsouth,3\n", string(data))
		return sampleAnalysis(), nil
	}}
	s := analyzedSession(t, fb)

	v := s.Snapshot()
	assert.Equal(t, PhaseAnalyzed, v.Phase)
	assert.Equal(t, ScreenAnalyzed, v.Screen())
	assert.Equal(t, ComparisonIdle, v.ComparisonPhase)
	assert.Equal(t, 3, v.Analysis.FileInfo.Rows)
	assert.Equal(t, []string{"region", "sales"}, v.Columns())
	assert.False(t, v.Busy())
}

func TestSession_UploadClearsComparisonAndSelections(t *testing.T) {
	fb := &fakeBackend{}
	s := analyzedSession(t, fb)
	require.NoError(t, s.SelectGroupColumn("region"))
	require.NoError(t, s.SelectValueColumn("sales"))
	_, err := s.Compare(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s.Snapshot().Comparison)

	op, err := s.BeginAnalyze(context.Background())
	require.NoError(t, err)

	v := s.Snapshot()
	assert.Nil(t, v.Comparison)
	assert.Empty(t, v.GroupColumn)
	assert.Empty(t, v.ValueColumn)
	assert.Nil(t, v.Analysis)
	assert.Empty(t, v.Error)
	assert.Equal(t, PhaseAnalyzing, v.Phase)

	assert.True(t, s.CompleteAnalyze(op, sampleAnalysis(), nil))
	v = s.Snapshot()
	assert.Nil(t, v.Comparison)
	assert.Empty(t, v.GroupColumn)
	assert.Empty(t, v.ValueColumn)
}

func TestSession_CompareWithOneColumn(t *testing.T) {
	fb := &fakeBackend{}
	s := analyzedSession(t, fb)
	require.NoError(t, s.SelectGroupColumn("region"))

	assert.False(t, s.Snapshot().CompareEnabled())
	_, err := s.Compare(context.Background())
	assert.True(t, IsValidationError(err))
	assert.Equal(t, "Please select both columns", s.Snapshot().Error)
	assert.Equal(t, int32(0), fb.compareCalls.Load())
	assert.Equal(t, ScreenAnalyzed, s.Snapshot().Screen(), "error is a banner over the analysis")
}

func TestSession_CompareWithoutFileText(t *testing.T) {
	fb := &fakeBackend{}
	s := New(fb)
	require.NoError(t, s.SelectFile(source.FromBytes("broken.xlsx", []byte("not a workbook"))))
	_, err := s.Analyze(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.SelectGroupColumn("region"))
	require.NoError(t, s.SelectValueColumn("sales"))

	_, err = s.Compare(context.Background())
	assert.True(t, IsValidationError(err))
	assert.Equal(t, "File content not loaded. Please upload the file again.", s.Snapshot().Error)
	assert.Equal(t, int32(0), fb.compareCalls.Load())
}

func TestSession_CompareSuccessAndFailure(t *testing.T) {
	fail := false
	fb := &fakeBackend{compare: func(_ context.Context, req *backend.CompareRequest) (*backend.Comparison, error) {
		if fail {
			return nil, &backend.Error{Type: backend.ErrTypeServer, Message: "Column 'x' not found", StatusCode: 400}
		}
		assert.Equal(t, "region", req.GroupCol)
		assert.Equal(t, "sales", req.ValueCol)
		assert.Equal(t, "region,sales\nnorth,1\nsouth,3\n", req.FileContent)
		return correlation(0.73), nil
	}}
	s := analyzedSession(t, fb)
	require.NoError(t, s.SelectGroupColumn("region"))
	require.NoError(t, s.SelectValueColumn("sales"))

	cmp, err := s.Compare(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.73, *cmp.Correlation)
	v := s.Snapshot()
	assert.Equal(t, ComparisonShown, v.ComparisonPhase)
	assert.Same(t, cmp, v.Comparison)

	fail = true
	_, err = s.Compare(context.Background())
	require.Error(t, err)
	v = s.Snapshot()
	assert.Equal(t, ComparisonFailed, v.ComparisonPhase)
	assert.Equal(t, "Column 'x' not found", v.Error)
	assert.Same(t, cmp, v.Comparison, "previous comparison stays visible")

	fail = false
	_, err = s.Compare(context.Background())
	require.NoError(t, err)
	assert.Empty(t, s.Snapshot().Error)
}

func TestSession_ColumnSelection(t *testing.T) {
	s := New(&fakeBackend{})
	assert.ErrorIs(t, s.SelectGroupColumn("region"), ErrNoAnalysis)

	s = analyzedSession(t, &fakeBackend{})
	assert.ErrorIs(t, s.SelectGroupColumn("profit"), ErrUnknownColumn)
	require.NoError(t, s.SelectGroupColumn("region"))
	require.NoError(t, s.SelectValueColumn("sales"))
	assert.True(t, s.Snapshot().CompareEnabled())

	require.NoError(t, s.SelectValueColumn(""))
	v := s.Snapshot()
	assert.Equal(t, "region", v.GroupColumn)
	assert.Empty(t, v.ValueColumn)
	assert.False(t, v.CompareEnabled())
}

func TestSession_SelectFileDiscardsAnalysis(t *testing.T) {
	s := analyzedSession(t, &fakeBackend{})
	require.NoError(t, s.SelectGroupColumn("region"))

	require.NoError(t, s.SelectFile(source.FromBytes("other.csv", []byte("a\n1\n"))))
	v := s.Snapshot()
	assert.Equal(t, PhaseFileSelected, v.Phase)
	assert.Nil(t, v.Analysis)
	assert.Empty(t, v.GroupColumn)
	assert.Equal(t, ScreenEmpty, v.Screen())
}

func TestSession_AnalyzeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := backend.New(&backend.Config{BaseURL: server.URL})
	require.NoError(t, err)

	s := New(client)
	require.NoError(t, s.SelectFile(csvFile()))
	_, err = s.Analyze(context.Background())
	require.Error(t, err)

	v := s.Snapshot()
	assert.Equal(t, "Server error: 500", v.Error)
	assert.Nil(t, v.Analysis)
	assert.Equal(t, PhaseFileSelected, v.Phase)
	assert.Equal(t, ScreenError, v.Screen())
	assert.True(t, v.UploadEnabled(), "user can retry")
}

func TestSession_FailedReuploadLeavesNoAnalysis(t *testing.T) {
	fail := false
	fb := &fakeBackend{analyze: func(context.Context, string, io.Reader) (*backend.Analysis, error) {
		if fail {
			return nil, backend.NewStatusError(backend.EndpointAnalyze, 502)
		}
		return sampleAnalysis(), nil
	}}
	s := analyzedSession(t, fb)

	fail = true
	_, err := s.Analyze(context.Background())
	require.Error(t, err)
	v := s.Snapshot()
	assert.Nil(t, v.Analysis)
	assert.Equal(t, "Server error: 502", v.Error)
	assert.Equal(t, ScreenError, v.Screen())
}

func TestSession_BusyFlagsAndControls(t *testing.T) {
	s := analyzedSession(t, &fakeBackend{})

	op, err := s.BeginAnalyze(context.Background())
	require.NoError(t, err)
	v := s.Snapshot()
	assert.True(t, v.Loading)
	assert.False(t, v.ComparisonLoading)
	assert.False(t, v.UploadEnabled())
	assert.False(t, v.FileInputEnabled())
	assert.Equal(t, ScreenLoading, v.Screen())
	assert.Equal(t, op.ID(), v.OpID)

	s.CompleteAnalyze(op, sampleAnalysis(), nil)
	v = s.Snapshot()
	assert.False(t, v.Loading)
	assert.True(t, v.UploadEnabled())

	require.NoError(t, s.SelectGroupColumn("region"))
	require.NoError(t, s.SelectValueColumn("sales"))
	op, err = s.BeginCompare(context.Background())
	require.NoError(t, err)
	v = s.Snapshot()
	assert.True(t, v.ComparisonLoading)
	assert.False(t, v.Loading)
	assert.False(t, v.CompareEnabled())
	assert.True(t, v.UploadEnabled())
	assert.Equal(t, Comparing, v.ComparisonPhase)

	s.CompleteCompare(op, nil, errors.New("boom"))
	v = s.Snapshot()
	assert.False(t, v.ComparisonLoading)
	assert.True(t, v.CompareEnabled())
	assert.Equal(t, "boom", v.Error)
}

func TestSession_RejectsWhileBusy(t *testing.T) {
	s := analyzedSession(t, &fakeBackend{})
	require.NoError(t, s.SelectGroupColumn("region"))
	require.NoError(t, s.SelectValueColumn("sales"))

	op, err := s.BeginCompare(context.Background())
	require.NoError(t, err)
	assert.True(t, s.Busy())

	_, err = s.BeginAnalyze(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	_, err = s.BeginCompare(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, s.SelectFile(csvFile()), ErrBusy)
	assert.Equal(t, Comparing, s.Snapshot().ComparisonPhase, "rejected calls leave state untouched")

	s.CompleteCompare(op, correlation(0.1), nil)
	assert.False(t, s.Busy())
}

func TestSession_StaleCompletionIgnored(t *testing.T) {
	s := New(&fakeBackend{})
	require.NoError(t, s.SelectFile(csvFile()))

	first, err := s.BeginAnalyze(context.Background())
	require.NoError(t, err)
	require.True(t, s.CompleteAnalyze(first, nil, errors.New("first failed")))

	second, err := s.BeginAnalyze(context.Background())
	require.NoError(t, err)
	assert.Greater(t, second.ID(), first.ID())

	assert.False(t, s.CompleteAnalyze(first, sampleAnalysis(), nil), "settled op is stale")
	assert.False(t, s.CompleteCompare(second, correlation(1), nil), "kind mismatch")
	assert.False(t, s.CompleteAnalyze(nil, sampleAnalysis(), nil))
	assert.Equal(t, PhaseAnalyzing, s.Snapshot().Phase)

	assert.True(t, s.CompleteAnalyze(second, sampleAnalysis(), nil))
	assert.Equal(t, PhaseAnalyzed, s.Snapshot().Phase)
}

func TestSession_Cancel(t *testing.T) {
	started := make(chan struct{})
	fb := &fakeBackend{analyze: func(ctx context.Context, _ string, _ io.Reader) (*backend.Analysis, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	s := New(fb)
	require.NoError(t, s.SelectFile(csvFile()))
	assert.False(t, s.Cancel(), "nothing to cancel")

	done := make(chan error, 1)
	go func() {
		_, err := s.Analyze(context.Background())
		done <- err
	}()

	<-started
	assert.True(t, s.Cancel())
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("analyze did not return after cancel")
	}

	v := s.Snapshot()
	assert.Equal(t, "Request cancelled", v.Error)
	assert.False(t, v.Loading)
	assert.Equal(t, PhaseFileSelected, v.Phase)
}

func TestSession_Timeout(t *testing.T) {
	fb := &fakeBackend{compare: func(ctx context.Context, _ *backend.CompareRequest) (*backend.Comparison, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	s := analyzedSession(t, fb, WithTimeout(20*time.Millisecond))
	require.NoError(t, s.SelectGroupColumn("region"))
	require.NoError(t, s.SelectValueColumn("sales"))

	_, err := s.Compare(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "Request cancelled", s.Snapshot().Error)
	assert.Equal(t, ComparisonFailed, s.Snapshot().ComparisonPhase)
}

func TestSession_NilResultIsInvalidResponse(t *testing.T) {
	s := New(&fakeBackend{})
	require.NoError(t, s.SelectFile(csvFile()))
	op, err := s.BeginAnalyze(context.Background())
	require.NoError(t, err)

	s.CompleteAnalyze(op, nil, nil)
	assert.Equal(t, "Invalid response from server", s.Snapshot().Error)
}

func TestSession_ConcurrentSnapshots(t *testing.T) {
	s := analyzedSession(t, &fakeBackend{})
	require.NoError(t, s.SelectGroupColumn("region"))
	require.NoError(t, s.SelectValueColumn("sales"))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			v := s.Snapshot()
			_ = v.Screen()
			_ = v.Phase.String()
		}
	}()
	for i := 0; i < 20; i++ {
		_, _ = s.Compare(context.Background())
	}
	<-done
	assert.False(t, s.Busy())
}
