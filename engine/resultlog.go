package engine

import "github.com/bthedestroyer/kip/parser"

// ResultLog accumulates the Results produced by each executed
// instruction, filtered by a verbosity floor and deduplicated when
// the same message repeats back to back — a tight loop logging the
// same store on every iteration would otherwise drown out everything
// else. Failures are always kept regardless of the floor.
type ResultLog struct {
	Verbosity uint8
	entries   []parser.Result
	lastMsg   string
	lastOK    bool
	hasLast   bool
}

// NewResultLog returns a log at Verbosity 0, which keeps only failures
// and control-flow results; callers raise Verbosity to record more.
func NewResultLog() *ResultLog {
	return &ResultLog{entries: make([]parser.Result, 0, 256)}
}

// Add records res if it's a failure, or if level is at or below the
// log's configured Verbosity, skipping it if it exactly repeats the
// immediately preceding entry.
func (l *ResultLog) Add(res parser.Result, level uint8) {
	if res.Success && level > l.Verbosity {
		return
	}
	if l.hasLast && l.lastMsg == res.Message && l.lastOK == res.Success {
		return
	}
	l.entries = append(l.entries, res)
	l.lastMsg = res.Message
	l.lastOK = res.Success
	l.hasLast = true
}

// Entries returns every retained Result, in execution order.
func (l *ResultLog) Entries() []parser.Result {
	return l.entries
}

// Failures returns only the failed Results, in execution order.
func (l *ResultLog) Failures() []parser.Result {
	var out []parser.Result
	for _, r := range l.entries {
		if !r.Success {
			out = append(out, r)
		}
	}
	return out
}
