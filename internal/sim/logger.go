package sim

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	nopLogger = zap.NewNop()
	logger    atomic.Pointer[zap.Logger]
)

// Logger returns the package logger. It is a no-op logger unless SetLogger
// has been called.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return nopLogger
}

// SetLogger sets the package logger. A nil l restores the no-op logger.
// It is safe to call while machines are running.
func SetLogger(l *zap.Logger) {
	logger.Store(l)
}
