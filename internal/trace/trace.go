// Package trace defines the callback the clipping pipeline reports through.
//
// Parsing, merging and exporting never log on their own. Callers hand them a
// Func, which keeps the core free of global logger state and lets tests
// capture what happened.
package trace

import (
	"fmt"
	"log"
)

// Func receives a printf-style trace message.
type Func func(format string, args ...any)

// Nop discards every message.
func Nop(string, ...any) {}

// Log returns a Func that writes to the standard logger with the given prefix,
// e.g. "[KINDLE] ".
func Log(prefix string) Func {
	return func(format string, args ...any) {
		log.Printf(prefix+format, args...)
	}
}

// OrNop returns f, or Nop when f is nil.
func OrNop(f Func) Func {
	if f == nil {
		return Nop
	}
	return f
}

// Recorder collects messages in memory.
type Recorder struct {
	Messages []string
}

// Func returns a Func appending to the recorder.
func (r *Recorder) Func() Func {
	return func(format string, args ...any) {
		r.Messages = append(r.Messages, fmt.Sprintf(format, args...))
	}
}
