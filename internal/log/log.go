// Package log provides the leveled logging facility used throughout this
// module. It is a trimmed adaptation of gVisor's pkg/log: the same
// Level type and Debugf/Infof/Warningf/IsLogging vocabulary, backed by a
// much smaller emitter than gVisor's glog- and JSON-structured writers,
// since this module has no need for multiple output formats.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Level is the level of a log message.
type Level int32

const (
	// Warning indicates a condition that deserves attention but does not
	// by itself invalidate correct operation.
	Warning Level = iota
	// Info is the default level for operational messages.
	Info
	// Debug is for diagnostics that are off by default because they are
	// too voluminous, or too expensive to format, for normal operation.
	Debug
)

func (l Level) String() string {
	switch l {
	case Warning:
		return "WARNING"
	case Info:
		return "INFO"
	case Debug:
		return "DEBUG"
	default:
		return fmt.Sprintf("Level(%d)", int32(l))
	}
}

// Logger is the interface through which this module emits diagnostics.
type Logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warningf(format string, v ...any)
}

// Writer is the default Logger. It writes one timestamped line per call
// to Next, gated by the current level, and never allocates on the
// filtered-out path.
type Writer struct {
	mu    sync.Mutex
	Next  io.Writer
	level atomic.Int32
}

// NewWriter returns a Writer at Info level writing to w.
func NewWriter(w io.Writer) *Writer {
	lw := &Writer{Next: w}
	lw.level.Store(int32(Info))
	return lw
}

// SetLevel changes the minimum level that will be emitted.
func (w *Writer) SetLevel(l Level) { w.level.Store(int32(l)) }

// IsLogging reports whether a message at level l would currently be
// emitted, letting a caller skip building an expensive message (such as
// a disassembled program dump) when it would just be discarded.
func (w *Writer) IsLogging(l Level) bool { return int32(l) <= w.level.Load() }

func (w *Writer) emit(l Level, format string, v []any) {
	if !w.IsLogging(l) {
		return
	}
	line := fmt.Sprintf("%s %-7s %s\n", time.Now().UTC().Format(time.RFC3339Nano), l, fmt.Sprintf(format, v...))
	w.mu.Lock()
	defer w.mu.Unlock()
	io.WriteString(w.Next, line)
}

func (w *Writer) Debugf(format string, v ...any)   { w.emit(Debug, format, v) }
func (w *Writer) Infof(format string, v ...any)    { w.emit(Info, format, v) }
func (w *Writer) Warningf(format string, v ...any) { w.emit(Warning, format, v) }

var defaultLogger atomic.Pointer[Writer]

func init() {
	defaultLogger.Store(NewWriter(os.Stderr))
}

// SetOutput redirects the package-level logger's output, for tests.
func SetOutput(w io.Writer) { defaultLogger.Store(NewWriter(w)) }

// SetLevel changes the package-level logger's level.
func SetLevel(l Level) { defaultLogger.Load().SetLevel(l) }

// IsLogging reports whether the package-level logger would currently
// emit a message at level l.
func IsLogging(l Level) bool { return defaultLogger.Load().IsLogging(l) }

// Debugf logs through the package-level logger at Debug level.
func Debugf(format string, v ...any) { defaultLogger.Load().Debugf(format, v...) }

// Infof logs through the package-level logger at Info level.
func Infof(format string, v ...any) { defaultLogger.Load().Infof(format, v...) }

// Warningf logs through the package-level logger at Warning level.
func Warningf(format string, v ...any) { defaultLogger.Load().Warningf(format, v...) }
