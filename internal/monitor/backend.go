package monitor

import (
	"context"
	"io"

	"github.com/yildizm/TabSum/internal/backend"
	"github.com/yildizm/TabSum/internal/session"
)

// instrumented wraps a session backend and times each request
type instrumented struct {
	next      session.Backend
	collector *Collector
}

// Wrap returns b with every request tracked by c
func Wrap(b session.Backend, c *Collector) session.Backend {
	if c == nil {
		return b
	}
	return &instrumented{next: b, collector: c}
}

func (i *instrumented) Analyze(ctx context.Context, name string, content io.Reader) (*backend.Analysis, error) {
	var analysis *backend.Analysis
	counted := &countingReader{r: content}
	err := i.collector.TrackOperationWithError(OperationAnalyze, func() error {
		var err error
		analysis, err = i.next.Analyze(ctx, name, counted)
		return err
	})
	i.collector.RecordBytes(counted.n)
	return analysis, err
}

func (i *instrumented) Compare(ctx context.Context, req *backend.CompareRequest) (*backend.Comparison, error) {
	var cmp *backend.Comparison
	err := i.collector.TrackOperationWithError(OperationCompare, func() error {
		var err error
		cmp, err = i.next.Compare(ctx, req)
		return err
	})
	if req != nil {
		i.collector.RecordBytes(int64(len(req.FileContent)))
	}
	return cmp, err
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
