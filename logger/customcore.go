package logger

import (
	"go.uber.org/zap/zapcore"
)

// Trailing field keys. customCore moves them to the end of every entry so the
// per-request context lines up at the tail of each log line.
const (
	RequestIDKey = "request_id"
	PhaseKey     = "phase"
)

type customCore struct {
	zapcore.Core
}

// With adds structured context to the Core.
func (c *customCore) With(fields []zapcore.Field) zapcore.Core {
	return &customCore{c.Core.With(fields)}
}

// Write moves the request id and phase fields behind all other fields.
func (c *customCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	var requestIDField, phaseField *zapcore.Field
	otherFields := make([]zapcore.Field, 0, len(fields))
	for i := range fields {
		switch fields[i].Key {
		case RequestIDKey:
			requestIDField = &fields[i]
		case PhaseKey:
			phaseField = &fields[i]
		default:
			otherFields = append(otherFields, fields[i])
		}
	}
	if requestIDField != nil {
		otherFields = append(otherFields, *requestIDField)
	}
	if phaseField != nil {
		otherFields = append(otherFields, *phaseField)
	}

	return c.Core.Write(entry, otherFields)
}

// Check determines whether the supplied Entry should be logged.
// The entry is registered against the wrapper so Write above is the one called.
func (c *customCore) Check(entry zapcore.Entry, checkedEntry *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checkedEntry.AddCore(entry, c)
	}
	return checkedEntry
}

// Sync flushes buffered logs (if any).
func (c *customCore) Sync() error {
	return c.Core.Sync()
}
