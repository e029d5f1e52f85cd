package monitor

import (
	"math"
	"sync/atomic"
	"time"
)

// OperationType names a tracked client operation
type OperationType string

const (
	OperationAnalyze OperationType = "analyze"
	OperationCompare OperationType = "compare"
	OperationHealth  OperationType = "health"
	OperationExport  OperationType = "export"
)

// operationOrder is the display order of snapshot rows
var operationOrder = []OperationType{OperationAnalyze, OperationCompare, OperationHealth, OperationExport}

// OperationMetrics summarizes every tracked call of one operation
type OperationMetrics struct {
	Operation    OperationType `json:"operation"`
	Count        int64         `json:"count"`
	SuccessCount int64         `json:"success_count"`
	ErrorCount   int64         `json:"error_count"`
	TotalTime    time.Duration `json:"total_time"`
	MinTime      time.Duration `json:"min_time"`
	MaxTime      time.Duration `json:"max_time"`
	LastTime     time.Duration `json:"last_time"`
}

// AvgTime returns the mean duration of the tracked calls
func (m OperationMetrics) AvgTime() time.Duration {
	if m.Count == 0 {
		return 0
	}
	return m.TotalTime / time.Duration(m.Count)
}

// MetricsSnapshot is a point-in-time copy of the collector
type MetricsSnapshot struct {
	Timestamp     time.Time          `json:"timestamp"`
	Operations    []OperationMetrics `json:"operations"`
	BytesUploaded int64              `json:"bytes_uploaded"`
}

// Empty reports whether nothing was tracked
func (s MetricsSnapshot) Empty() bool {
	return len(s.Operations) == 0
}

// Timer is a thread-safe timer for measuring operation durations
type Timer struct {
	count     int64
	errors    int64
	totalTime int64
	minTime   int64
	maxTime   int64
	lastTime  int64
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{minTime: math.MaxInt64}
}

// Record records one measurement and its outcome
func (t *Timer) Record(duration time.Duration, failed bool) {
	nanos := duration.Nanoseconds()

	atomic.AddInt64(&t.count, 1)
	atomic.AddInt64(&t.totalTime, nanos)
	atomic.StoreInt64(&t.lastTime, nanos)
	if failed {
		atomic.AddInt64(&t.errors, 1)
	}

	for {
		current := atomic.LoadInt64(&t.minTime)
		if nanos >= current || atomic.CompareAndSwapInt64(&t.minTime, current, nanos) {
			break
		}
	}
	for {
		current := atomic.LoadInt64(&t.maxTime)
		if nanos <= current || atomic.CompareAndSwapInt64(&t.maxTime, current, nanos) {
			break
		}
	}
}

// Metrics returns the timer's totals for op
func (t *Timer) Metrics(op OperationType) OperationMetrics {
	count := atomic.LoadInt64(&t.count)
	errs := atomic.LoadInt64(&t.errors)
	minTime := atomic.LoadInt64(&t.minTime)
	if minTime == math.MaxInt64 {
		minTime = 0
	}
	return OperationMetrics{
		Operation:    op,
		Count:        count,
		SuccessCount: count - errs,
		ErrorCount:   errs,
		TotalTime:    time.Duration(atomic.LoadInt64(&t.totalTime)),
		MinTime:      time.Duration(minTime),
		MaxTime:      time.Duration(atomic.LoadInt64(&t.maxTime)),
		LastTime:     time.Duration(atomic.LoadInt64(&t.lastTime)),
	}
}
