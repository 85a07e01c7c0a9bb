// This file is part of Gbathread.
//
// Gbathread is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gbathread is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gbathread.  If not, see <https://www.gnu.org/licenses/>.

// Package logger implements a small ring-buffered, permission-gated log used
// for general-purpose package diagnostics (cartridge-loader style messages,
// one-off warnings) that don't belong to a specific worker instance.
//
// Logging that is intrinsic to a single worker's lifecycle (state
// transitions, sync-channel wakeups) goes through the *logrus.Entry carried
// on thread.Context instead; see thread/context.go.
package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Permission is consulted before a log entry is recorded. This lets a caller
// suppress noisy categories of logging without the log package needing to
// know what those categories are.
type Permission interface {
	AllowLogging() bool
}

// Allow is a permission value that always allows logging.
var Allow = alwaysAllow{}

type alwaysAllow struct{}

func (alwaysAllow) AllowLogging() bool { return true }

type entry struct {
	tag    string
	detail string
}

func (e entry) String() string {
	return fmt.Sprintf("%s: %s\n", e.tag, e.detail)
}

// Logger is a fixed-capacity ring of log entries. The zero value is not
// usable; construct with NewLogger.
type Logger struct {
	crit    sync.Mutex
	entries []entry
	cap     int
	next    int
	count   int
}

// NewLogger creates a Logger with room for capacity entries. Once full,
// new entries displace the oldest.
func NewLogger(capacity int) *Logger {
	return &Logger{
		entries: make([]entry, capacity),
		cap:     capacity,
	}
}

// Log records detail under tag, if permission allows it. detail is rendered
// according to its type: error and fmt.Stringer are unwrapped to their
// message; everything else is formatted with %v.
func (l *Logger) Log(permission Permission, tag string, detail interface{}) {
	if permission != nil && !permission.AllowLogging() {
		return
	}
	l.append(tag, render(detail))
}

// Logf is like Log but formats detail with a format string first.
func (l *Logger) Logf(permission Permission, tag string, format string, args ...interface{}) {
	if permission != nil && !permission.AllowLogging() {
		return
	}
	l.append(tag, fmt.Sprintf(format, args...))
}

func render(detail interface{}) string {
	switch d := detail.(type) {
	case error:
		return d.Error()
	case fmt.Stringer:
		return d.String()
	case string:
		return d
	default:
		return fmt.Sprintf("%v", d)
	}
}

func (l *Logger) append(tag, detail string) {
	l.crit.Lock()
	defer l.crit.Unlock()
	l.entries[l.next] = entry{tag: tag, detail: detail}
	l.next = (l.next + 1) % l.cap
	if l.count < l.cap {
		l.count++
	}
}

// Clear empties the logger.
func (l *Logger) Clear() {
	l.crit.Lock()
	defer l.crit.Unlock()
	l.next = 0
	l.count = 0
}

// Write writes every retained entry, oldest first, to w.
func (l *Logger) Write(w io.Writer) {
	l.Tail(w, l.count)
}

// Tail writes the most recent n entries, oldest first, to w. Asking for more
// entries than are retained is not an error; the full retained history is
// written.
func (l *Logger) Tail(w io.Writer, n int) {
	l.crit.Lock()
	defer l.crit.Unlock()

	if n > l.count {
		n = l.count
	}
	if n <= 0 {
		return
	}

	start := (l.next - n + l.cap) % l.cap
	var b strings.Builder
	for i := 0; i < n; i++ {
		idx := (start + i) % l.cap
		b.WriteString(l.entries[idx].String())
	}
	io.WriteString(w, b.String())
}
