package concurrency

import "time"

// RecordError counts a request that did not produce an accepted response.
func (ch *ConcurrencyHandler) RecordError() {
	ch.Metrics.lock.Lock()
	defer ch.Metrics.lock.Unlock()
	ch.Metrics.TotalErrors++
}

// MetricsSnapshot is a copy of the counters safe to read without locking.
type MetricsSnapshot struct {
	TotalRequests  int64
	TotalErrors    int64
	PermitWaitTime time.Duration
}

// Snapshot returns the current counters.
func (ch *ConcurrencyHandler) Snapshot() MetricsSnapshot {
	ch.Metrics.lock.Lock()
	defer ch.Metrics.lock.Unlock()
	return MetricsSnapshot{
		TotalRequests:  ch.Metrics.TotalRequests,
		TotalErrors:    ch.Metrics.TotalErrors,
		PermitWaitTime: ch.Metrics.PermitWaitTime,
	}
}
