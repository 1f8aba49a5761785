package monitoring

import (
	"log"
	"sync"
)

// Logger is a printf-style diagnostic sink.
type Logger func(format string, v ...interface{})

// Discard is a Logger that drops everything.
func Discard(string, ...interface{}) {}

var (
	mu sync.Mutex
	// logf is the package-level diagnostic logger. It defaults to log.Printf
	// but may be replaced by SetLogger.
	logf Logger = log.Printf
)

// Logf writes through the current package logger.
func Logf(format string, v ...interface{}) {
	mu.Lock()
	f := logf
	mu.Unlock()
	f(format, v...)
}

// Default returns the current package logger.
func Default() Logger {
	mu.Lock()
	defer mu.Unlock()
	return logf
}

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f Logger) {
	mu.Lock()
	defer mu.Unlock()
	if f == nil {
		logf = Discard
		return
	}
	logf = f
}

// SuppressOutput mutes the package logger and returns the call that restores
// the previous one. Meant for batch runs of many optimisations; it is process
// wide, so concurrent optimisers sharing the default logger are all muted and
// overlapping suppress/restore pairs must nest.
func SuppressOutput() (restore func()) {
	mu.Lock()
	prev := logf
	logf = Discard
	mu.Unlock()
	return func() { SetLogger(prev) }
}

// Prefixed returns a logger that prepends prefix to every format string. A
// nil sink resolves to the package logger at call time.
func Prefixed(sink Logger, prefix string) Logger {
	return func(format string, v ...interface{}) {
		if sink == nil {
			Logf(prefix+format, v...)
			return
		}
		sink(prefix+format, v...)
	}
}
