// Package rewritelog records the sequence of peephole rewrites a
// pkg/rewrite.PeepholeSession applies, for regression comparison and
// checkpoint/resume across long-running optimization runs.
//
// Adapted from the teacher's pkg/result/table.go: the same
// mutex-guarded slice-of-records shape that collected Z80
// superoptimization rules now collects SSA rewrite entries instead.
package rewritelog

import (
	"sort"
	"sync"
)

// Entry records one applied rewrite: the replaced node's op/index and
// the replacement's op/index.
type Entry struct {
	FromOp    string
	FromIndex int
	ToOp      string
	ToIndex   int
}

// Log stores rewrite entries from one or more peephole sessions,
// safe for concurrent Record calls the way the teacher's Table.Add is
// safe for concurrent worker-pool writers.
type Log struct {
	mu      sync.Mutex
	entries []Entry
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{}
}

// Record appends e.
func (l *Log) Record(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
}

// Entries returns a copy of all recorded entries, sorted by FromIndex
// ascending (ties broken by ToIndex), matching the
// teacher's Rules()'s copy-then-sort shape.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	sort.Slice(out, func(i, j int) bool {
		if out[i].FromIndex != out[j].FromIndex {
			return out[i].FromIndex < out[j].FromIndex
		}
		return out[i].ToIndex < out[j].ToIndex
	})
	return out
}

// Len returns the number of recorded entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
