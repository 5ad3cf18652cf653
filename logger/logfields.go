// logger/logfields.go
package logger

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// LogRequestStart logs the initiation of an HTTP request. Headers are logged as given,
// callers are expected to redact them first.
func (d *defaultLogger) LogRequestStart(requestID string, method string, url string, headers http.Header) {
	if d.logLevel <= LogLevelDebug {
		d.logger.Debug("HTTP request started",
			zap.String("event", "request_start"),
			zap.String("method", method),
			zap.String("url", url),
			zap.Any("headers", headers),
			zap.String(RequestIDKey, requestID),
		)
	}
}

// LogRequestEnd logs the completion of an HTTP request, including the status code and duration.
func (d *defaultLogger) LogRequestEnd(requestID string, method string, url string, statusCode int, duration time.Duration) {
	if d.logLevel <= LogLevelDebug {
		d.logger.Debug("HTTP request completed",
			zap.String("event", "request_end"),
			zap.String("method", method),
			zap.String("url", url),
			zap.Int("status_code", statusCode),
			zap.Duration("duration", duration),
			zap.String(RequestIDKey, requestID),
		)
	}
}

// LogError logs a failure that occurred while processing an HTTP request.
// statusCode is 0 when no response was received.
func (d *defaultLogger) LogError(event string, method string, url string, statusCode int, err error) {
	if d.logLevel <= LogLevelError {
		fields := []zap.Field{
			zap.String("event", event),
			zap.String("method", method),
			zap.String("url", url),
			zap.Int("status_code", statusCode),
		}
		if err != nil {
			fields = append(fields, zap.String("error_message", err.Error()))
		}
		d.logger.Error("Error during HTTP request", fields...)
	}
}

// LogRetryAttempt logs that a request will be issued again.
func (d *defaultLogger) LogRetryAttempt(event string, method string, url string, attemptsLeft int, reason string) {
	if d.logLevel <= LogLevelWarn {
		d.logger.Warn("HTTP request retry",
			zap.String("event", event),
			zap.String("method", method),
			zap.String("url", url),
			zap.Int("attempts_left", attemptsLeft),
			zap.String("reason", reason),
		)
	}
}
