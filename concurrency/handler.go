// concurrency/handler.go
package concurrency

import (
	"sync"
	"time"

	"github.com/deploymenttheory/go-noclist-client/logger"
)

const (
	// DefaultPermits is the number of requests allowed in flight. The remote
	// service expects a strictly sequential client.
	DefaultPermits = 1

	// PermitAcquireTimeout bounds how long a request waits for a permit.
	PermitAcquireTimeout = 10 * time.Second
)

// ConcurrencyHandler gates how many HTTP requests may be in flight at once.
type ConcurrencyHandler struct {
	sem     chan struct{}
	logger  logger.Logger
	Metrics *ConcurrencyMetrics
	timeout time.Duration
}

// NewConcurrencyHandler returns a handler allowing a single request at a time.
func NewConcurrencyHandler(log logger.Logger) *ConcurrencyHandler {
	return NewConcurrencyHandlerWithLimit(DefaultPermits, log)
}

// NewConcurrencyHandlerWithLimit returns a handler with the given number of permits.
// A limit below one is raised to one.
func NewConcurrencyHandlerWithLimit(limit int, log logger.Logger) *ConcurrencyHandler {
	if limit < 1 {
		limit = 1
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &ConcurrencyHandler{
		sem:     make(chan struct{}, limit),
		logger:  log,
		Metrics: &ConcurrencyMetrics{},
		timeout: PermitAcquireTimeout,
	}
}

// ConcurrencyMetrics counts requests that went through the handler.
type ConcurrencyMetrics struct {
	TotalRequests  int64         // Permits granted
	TotalErrors    int64         // Requests that ended without an accepted response
	PermitWaitTime time.Duration // Total time spent waiting for permits
	lock           sync.Mutex
}

// RequestIDKey is the context key under which the permit's request ID is stored.
type RequestIDKey struct{}
