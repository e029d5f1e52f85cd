package monitor

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector times client operations. It is safe for concurrent use.
type Collector struct {
	mu     sync.RWMutex
	timers map[OperationType]*Timer
	bytes  atomic.Int64
	now    func() time.Time
}

// New creates an empty collector
func New() *Collector {
	return &Collector{
		timers: make(map[OperationType]*Timer),
		now:    time.Now,
	}
}

// TrackOperation times fn as one call of operation
func (c *Collector) TrackOperation(operation OperationType, fn func()) {
	_ = c.TrackOperationWithError(operation, func() error {
		fn()
		return nil
	})
}

// TrackOperationWithError times fn and counts it as failed when it returns
// an error. The error is passed through.
func (c *Collector) TrackOperationWithError(operation OperationType, fn func() error) error {
	start := c.now()
	err := fn()
	c.timer(operation).Record(c.now().Sub(start), err != nil)
	return err
}

// RecordBytes adds to the uploaded byte count
func (c *Collector) RecordBytes(n int64) {
	c.bytes.Add(n)
}

func (c *Collector) timer(operation OperationType) *Timer {
	c.mu.RLock()
	t, ok := c.timers[operation]
	c.mu.RUnlock()
	if ok {
		return t
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok = c.timers[operation]; !ok {
		t = NewTimer()
		c.timers[operation] = t
	}
	return t
}

// GetSnapshot returns the tracked operations in a fixed order
func (c *Collector) GetSnapshot() MetricsSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := MetricsSnapshot{
		Timestamp:     c.now(),
		BytesUploaded: c.bytes.Load(),
	}
	for _, op := range operationOrder {
		if t, ok := c.timers[op]; ok {
			snapshot.Operations = append(snapshot.Operations, t.Metrics(op))
		}
	}
	return snapshot
}
