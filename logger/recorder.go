package logger

import (
	"fmt"
	"sync"
)

// Entry is a single formatted line captured by a Recorder.
type Entry struct {
	Level   string
	Message string
}

// Recorder is a Logger which keeps every formatted line in memory. It is safe for
// concurrent use and is intended for tests which assert on log output.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) record(level, msg string, args []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Message: fmt.Sprintf(msg, args...)})
}

func (r *Recorder) Debugf(msg string, args ...any) { r.record("debug", msg, args) }
func (r *Recorder) Infof(msg string, args ...any)  { r.record("info", msg, args) }
func (r *Recorder) Warnf(msg string, args ...any)  { r.record("warn", msg, args) }
func (r *Recorder) Errorf(msg string, args ...any) { r.record("error", msg, args) }

// Entries returns a copy of the captured lines in the order they were logged.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
