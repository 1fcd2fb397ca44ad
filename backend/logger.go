package backend

import (
	"log/slog"
	"sync"
)

// loggerSetter is a backend package's SetLogger.
type loggerSetter func(*slog.Logger)

var (
	loggerMu sync.Mutex
	setters  = make(map[string]loggerSetter)
	current  *slog.Logger
)

// RegisterLogger records the logger setter of the named backend. It is
// called from the backend's init alongside Register, and immediately
// receives the logger passed to the last SetLogger, if any.
func RegisterLogger(name string, set func(*slog.Logger)) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	setters[name] = set
	if current != nil {
		set(current)
	}
}

// SetLogger passes l to every backend that registered a setter.
// Usually called through windgl.SetLogger.
func SetLogger(l *slog.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	current = l
	for _, set := range setters {
		set(l)
	}
}
