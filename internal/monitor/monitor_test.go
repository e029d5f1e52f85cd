package monitor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yildizm/TabSum/internal/backend"
)

// steppedClock advances by step on every call
func steppedClock(step time.Duration) func() time.Time {
	var mu sync.Mutex
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(step)
		return now
	}
}

func TestCollector_TracksOperations(t *testing.T) {
	c := New()
	c.now = steppedClock(10 * time.Millisecond)

	boom := errors.New("boom")
	assert.NoError(t, c.TrackOperationWithError(OperationCompare, func() error { return nil }))
	assert.ErrorIs(t, c.TrackOperationWithError(OperationAnalyze, func() error { return boom }), boom)
	c.TrackOperation(OperationAnalyze, func() {})
	c.RecordBytes(2048)

	snap := c.GetSnapshot()
	require.Len(t, snap.Operations, 2)
	assert.Equal(t, OperationAnalyze, snap.Operations[0].Operation, "fixed display order")
	assert.Equal(t, OperationCompare, snap.Operations[1].Operation)

	analyze := snap.Operations[0]
	assert.Equal(t, int64(2), analyze.Count)
	assert.Equal(t, int64(1), analyze.ErrorCount)
	assert.Equal(t, int64(1), analyze.SuccessCount)
	assert.Equal(t, 10*time.Millisecond, analyze.MinTime)
	assert.Equal(t, 10*time.Millisecond, analyze.AvgTime())
	assert.Equal(t, int64(2048), snap.BytesUploaded)
}

func TestTimer_MinMax(t *testing.T) {
	timer := NewTimer()
	assert.Zero(t, timer.Metrics(OperationHealth).MinTime)

	timer.Record(30*time.Millisecond, false)
	timer.Record(10*time.Millisecond, true)
	timer.Record(20*time.Millisecond, false)

	m := timer.Metrics(OperationHealth)
	assert.Equal(t, int64(3), m.Count)
	assert.Equal(t, int64(1), m.ErrorCount)
	assert.Equal(t, 10*time.Millisecond, m.MinTime)
	assert.Equal(t, 30*time.Millisecond, m.MaxTime)
	assert.Equal(t, 20*time.Millisecond, m.LastTime)
	assert.Equal(t, 20*time.Millisecond, m.AvgTime())
}

func TestCollector_Concurrent(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.TrackOperation(OperationExport, func() {})
		}()
	}
	wg.Wait()

	snap := c.GetSnapshot()
	require.Len(t, snap.Operations, 1)
	assert.Equal(t, int64(50), snap.Operations[0].Count)
}

type stubBackend struct {
	read    string
	failErr error
}

func (s *stubBackend) Analyze(_ context.Context, _ string, content io.Reader) (*backend.Analysis, error) {
	data, _ := io.ReadAll(content)
	s.read = string(data)
	if s.failErr != nil {
		return nil, s.failErr
	}
	return &backend.Analysis{Summary: "ok"}, nil
}

func (s *stubBackend) Compare(_ context.Context, _ *backend.CompareRequest) (*backend.Comparison, error) {
	return &backend.Comparison{Type: backend.ComparisonCorrelation}, nil
}

func TestWrap(t *testing.T) {
	stub := &stubBackend{}
	c := New()
	b := Wrap(stub, c)

	a, err := b.Analyze(context.Background(), "sales.csv", strings.NewReader("a,b\n1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, "ok", a.Summary)
	assert.Equal(t, "a,b\n1,2\n", stub.read)

	_, err = b.Compare(context.Background(), &backend.CompareRequest{GroupCol: "a", ValueCol: "b", FileContent: "a,b\n"})
	require.NoError(t, err)

	stub.failErr = errors.New("down")
	_, err = b.Analyze(context.Background(), "sales.csv", strings.NewReader("x"))
	assert.Error(t, err)

	snap := c.GetSnapshot()
	require.Len(t, snap.Operations, 2)
	assert.Equal(t, int64(2), snap.Operations[0].Count)
	assert.Equal(t, int64(1), snap.Operations[0].ErrorCount)
	assert.Equal(t, int64(1), snap.Operations[1].Count)
	assert.Equal(t, int64(8+4+1), snap.BytesUploaded)

	assert.Same(t, stub, Wrap(stub, nil))
}

func TestFormatText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatText(&buf, MetricsSnapshot{}))
	assert.Equal(t, "No requests tracked\n", buf.String())

	c := New()
	c.now = steppedClock(1500 * time.Millisecond)
	c.TrackOperation(OperationAnalyze, func() {})
	c.RecordBytes(1_500_000)

	buf.Reset()
	require.NoError(t, FormatText(&buf, c.GetSnapshot()))
	out := buf.String()
	assert.Contains(t, out, "Operation")
	assert.Contains(t, out, "analyze")
	assert.Contains(t, out, "1.5s")
	assert.Contains(t, out, "Uploaded: 1.5 MB")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "1.23s", formatDuration(1234*time.Millisecond))
	assert.Equal(t, "12.3ms", formatDuration(12345*time.Microsecond))
	assert.Equal(t, "42µs", formatDuration(42*time.Microsecond))
}
