// Package hostio is the host-visible diagnostic logger: GC recycle
// reports, device timeouts, and session lifecycle messages that are
// useful to whoever is running the interpreter but are not part of any
// evaluator-visible error object. Grounded on this codebase's ad hoc
// `log`/`fmt` texture — no structured logging library is pulled in for
// this, so this package keeps that shape, just named and collected in
// one place instead of being scattered `log.Printf` calls.
package hostio

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"
)

// Logger prefixes every line with a component tag, the way the
// concurrency and database layers each log with their own ad hoc prefix.
type Logger struct {
	l *log.Logger
}

// Default writes to stderr with no prefix of its own; callers add one via
// Named.
var Default = New(os.Stderr)

func New(w io.Writer) *Logger {
	return &Logger{l: log.New(w, "", log.LstdFlags)}
}

// Named returns a logger that prefixes every line with "[name] ".
func (lg *Logger) Named(name string) *Logger {
	return &Logger{l: log.New(lg.l.Writer(), "["+name+"] ", log.LstdFlags)}
}

func (lg *Logger) Printf(format string, args ...any) {
	lg.l.Printf(format, args...)
}

// RecycleReport formats a GC collection outcome in human-readable byte
// counts, the shape a host operator actually wants from a GC log line.
func RecycleReport(marked, swept, live int, liveBytes int64) string {
	return "gc: marked " + humanize.Comma(int64(marked)) +
		", swept " + humanize.Comma(int64(swept)) +
		", live " + humanize.Comma(int64(live)) +
		" objects (" + humanize.Bytes(uint64(liveBytes)) + ")"
}

// Timeout formats a device-request timeout message using a relative
// duration string instead of a raw time.Duration value.
func Timeout(device string, d time.Duration) string {
	return device + ": no response within " + humanize.RelTime(time.Now(), time.Now().Add(d), "", "")
}
