// logger/errorlog.go
package logger

import (
	"errors"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Layer selects the destination of an error log entry.
type Layer int

const (
	// LayerLocal covers cache, file and timestamp failures on this host.
	LayerLocal Layer = iota
	// LayerRemote covers network failures and rejected responses.
	LayerRemote
)

const (
	LocalErrorLogFile  = "error-local.log"
	RemoteErrorLogFile = "error-remote.log"

	// DefaultErrorLogMaxSizeMB caps each error log file before it is rotated.
	DefaultErrorLogMaxSizeMB = 10
)

func (l Layer) String() string {
	if l == LayerRemote {
		return "remote"
	}
	return "local"
}

// ErrorLog persists errors to one size-capped file per layer. Files are
// rotated by lumberjack once they reach the configured size, keeping a single
// backup, so the logs never grow unbounded.
type ErrorLog struct {
	loggers map[Layer]*zap.Logger
	sinks   []*lumberjack.Logger
}

// NewErrorLog creates the error log files under dir.
func NewErrorLog(dir string, maxSizeMB int) (*ErrorLog, error) {
	if maxSizeMB < 1 {
		maxSizeMB = DefaultErrorLogMaxSizeMB
	}
	if err := EnsureLogDir(dir); err != nil {
		return nil, err
	}

	local := &lumberjack.Logger{
		Filename:   filepath.Join(dir, LocalErrorLogFile),
		MaxSize:    maxSizeMB,
		MaxBackups: 1,
	}
	remote := &lumberjack.Logger{
		Filename:   filepath.Join(dir, RemoteErrorLogFile),
		MaxSize:    maxSizeMB,
		MaxBackups: 1,
	}

	e := newErrorLog(zapcore.AddSync(local), zapcore.AddSync(remote))
	e.sinks = []*lumberjack.Logger{local, remote}
	return e, nil
}

// NewNopErrorLog returns an ErrorLog that discards every entry.
func NewNopErrorLog() *ErrorLog {
	return &ErrorLog{loggers: map[Layer]*zap.Logger{
		LayerLocal:  zap.NewNop(),
		LayerRemote: zap.NewNop(),
	}}
}

func newErrorLog(local, remote zapcore.WriteSyncer) *ErrorLog {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	return &ErrorLog{loggers: map[Layer]*zap.Logger{
		LayerLocal:  zap.New(zapcore.NewCore(encoder, local, zap.ErrorLevel)),
		LayerRemote: zap.New(zapcore.NewCore(encoder.Clone(), remote, zap.ErrorLevel)),
	}}
}

// Log writes err to the file of the given layer. fields carry the context
// needed to reproduce the failure (url, method, attempts left...).
func (e *ErrorLog) Log(err error, layer Layer, fields ...zap.Field) {
	if e == nil || err == nil {
		return
	}
	l, ok := e.loggers[layer]
	if !ok {
		l = e.loggers[LayerLocal]
	}
	l.Error(err.Error(), append(fields, zap.String("layer", layer.String()))...)
}

// Close flushes and closes the underlying files.
func (e *ErrorLog) Close() error {
	if e == nil {
		return nil
	}
	var errs []error
	for _, l := range e.loggers {
		_ = l.Sync()
	}
	for _, s := range e.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// EnsureLogDir makes sure dir exists. An empty dir means the working directory.
func EnsureLogDir(dir string) error {
	if dir == "" {
		return nil
	}
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("error log path is not a directory: " + dir)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}
	return os.MkdirAll(dir, 0755)
}
