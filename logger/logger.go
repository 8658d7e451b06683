// Package logger is a small ring-buffered log used throughout raclient for
// non-fatal, non-callback diagnostics: parse errors that disable a single
// achievement, and posts the post queue gives up on. It is deliberately not the standard library's log
// package so that a host embedding the client can Tail() recent entries
// into its own diagnostic UI without scraping stdout.
package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Permission is implemented by callers that want to conditionally suppress
// logging, for example a host that only wants achievement-parse warnings
// when a debug flag is set.
type Permission interface {
	AllowLogging() bool
}

// allow is the Permission that always allows logging.
type allow struct{}

func (allow) AllowLogging() bool { return true }

// Allow is the default permission, used when there is no reason to gate a
// log entry.
var Allow Permission = allow{}

// entry is a single logged line, already formatted.
type entry struct {
	tag    string
	detail string
}

func (e entry) String() string {
	return fmt.Sprintf("%s: %s\n", e.tag, e.detail)
}

// Logger is a fixed-capacity ring buffer of log entries.
type Logger struct {
	mu      sync.Mutex
	entries []entry
	cap     int

	echo       io.Writer
	echoActive bool
}

// NewLogger creates a Logger that retains at most capacity entries,
// discarding the oldest once full.
func NewLogger(capacity int) *Logger {
	if capacity < 1 {
		capacity = 1
	}
	return &Logger{cap: capacity}
}

// Log appends a detail under tag, if perm allows logging. detail may be an
// error, a fmt.Stringer, or any other value (formatted with %v).
func (l *Logger) Log(perm Permission, tag string, detail interface{}) {
	if perm != nil && !perm.AllowLogging() {
		return
	}
	l.append(tag, formatDetail(detail))
}

// Logf appends a formatted detail under tag, if perm allows logging.
func (l *Logger) Logf(perm Permission, tag string, format string, args ...interface{}) {
	if perm != nil && !perm.AllowLogging() {
		return
	}
	l.append(tag, fmt.Sprintf(format, args...))
}

func formatDetail(detail interface{}) string {
	switch v := detail.(type) {
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (l *Logger) append(tag, detail string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry{tag: tag, detail: detail})
	if len(l.entries) > l.cap {
		l.entries = l.entries[len(l.entries)-l.cap:]
	}

	if l.echoActive && l.echo != nil {
		io.WriteString(l.echo, l.entries[len(l.entries)-1].String())
	}
}

// Clear empties the ring buffer.
func (l *Logger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = l.entries[:0]
}

// Write writes every retained entry to w, oldest first.
func (l *Logger) Write(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var b strings.Builder
	for _, e := range l.entries {
		b.WriteString(e.String())
	}
	io.WriteString(w, b.String())
}

// Tail writes the most recent n entries to w, oldest first. Asking for more
// entries than are retained is not an error; Tail writes as many as it has.
func (l *Logger) Tail(w io.Writer, n int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n > len(l.entries) {
		n = len(l.entries)
	}
	start := len(l.entries) - n

	var b strings.Builder
	for _, e := range l.entries[start:] {
		b.WriteString(e.String())
	}
	io.WriteString(w, b.String())
}

// SetEcho additionally writes every future log entry to w as it is logged,
// if active is true. Passing a nil w with active false turns echoing off.
func (l *Logger) SetEcho(w io.Writer, active bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.echo = w
	l.echoActive = active
}

// central is the package-level default logger used by the free functions
// below, mirroring the single process-wide log most embedders want.
var central = NewLogger(500)

// Log appends a detail under tag to the central logger.
func Log(tag string, detail interface{}) { central.Log(Allow, tag, detail) }

// Logf appends a formatted detail under tag to the central logger.
func Logf(tag string, format string, args ...interface{}) { central.Logf(Allow, tag, format, args...) }

// Write writes the central logger's entries to w.
func Write(w io.Writer) { central.Write(w) }

// Tail writes the central logger's most recent n entries to w.
func Tail(w io.Writer, n int) { central.Tail(w, n) }

// Clear empties the central logger.
func Clear() { central.Clear() }

// SetEcho controls echoing for the central logger.
func SetEcho(w io.Writer, active bool) { central.SetEcho(w, active) }
