// File path: internal/store/undo.go
package store

import "github.com/transcriptflow/transcriptflow/internal/model"

// maxUndoEntries bounds the undo stack. Older entries fall off the bottom;
// the backup ring remains the recovery path for anything beyond that.
const maxUndoEntries = 20

type undoEntry struct {
	label  string
	revert func(model.AppState) model.AppState
}

// undoLog is a bounded LIFO of reversible actions, independent of the
// backup system. Entries are popped newest first, so each revert runs
// against the exact state its mutation produced.
type undoLog struct {
	max     int
	entries []undoEntry
}

func (l *undoLog) push(entry undoEntry) {
	if l.max <= 0 {
		l.max = maxUndoEntries
	}
	l.entries = append(l.entries, entry)
	if len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
}

func (l *undoLog) pop() (undoEntry, bool) {
	if len(l.entries) == 0 {
		return undoEntry{}, false
	}
	entry := l.entries[len(l.entries)-1]
	l.entries = l.entries[:len(l.entries)-1]
	return entry, true
}
