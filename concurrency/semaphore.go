// concurrency/semaphore.go
package concurrency

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AcquireConcurrencyPermit waits for a free permit, giving up after the
// acquire timeout or when ctx is done. The returned context carries the
// generated request ID under RequestIDKey.
//
// Example:
//
//	ctx, requestID, err := ch.AcquireConcurrencyPermit(ctx)
//	if err != nil {
//	    return err
//	}
//	defer ch.ReleaseConcurrencyPermit(requestID)
func (ch *ConcurrencyHandler) AcquireConcurrencyPermit(ctx context.Context) (context.Context, uuid.UUID, error) {
	start := time.Now()
	requestID := uuid.New()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, ch.timeout)
	defer cancel()

	select {
	case ch.sem <- struct{}{}:
		wait := time.Since(start)
		ch.Metrics.lock.Lock()
		ch.Metrics.PermitWaitTime += wait
		ch.Metrics.TotalRequests++
		ch.Metrics.lock.Unlock()

		ch.logger.Debug("Acquired concurrency permit",
			zap.String("RequestID", requestID.String()),
			zap.Duration("AcquisitionTime", wait),
			zap.Int("UtilizedPermits", len(ch.sem)),
			zap.Int("AvailablePermits", cap(ch.sem)-len(ch.sem)),
		)

		return context.WithValue(ctx, RequestIDKey{}, requestID), requestID, nil

	case <-ctxWithTimeout.Done():
		_ = ch.logger.Error("Failed to acquire concurrency permit", zap.Error(ctxWithTimeout.Err()))
		return ctx, requestID, ctxWithTimeout.Err()
	}
}

// ReleaseConcurrencyPermit returns a permit to the pool.
func (ch *ConcurrencyHandler) ReleaseConcurrencyPermit(requestID uuid.UUID) {
	<-ch.sem

	ch.logger.Debug("Released concurrency permit",
		zap.String("RequestID", requestID.String()),
		zap.Int("UtilizedPermits", len(ch.sem)),
		zap.Int("AvailablePermits", cap(ch.sem)-len(ch.sem)),
	)
}

// RequestIDFromContext returns the request ID stored by AcquireConcurrencyPermit.
func RequestIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(RequestIDKey{}).(uuid.UUID)
	return id, ok
}
