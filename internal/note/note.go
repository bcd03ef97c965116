// Package note provides the two read-only sources of "today's notes":
// a local directory of plain-text files and the Antinote application's
// SQLite database. Both produce the same Note representation, sorted
// most recently modified first.
package note

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Note is one unit of source text considered for classification.
// Notes are transient: they are consumed by the classifier and the
// history store and never persisted as their own entity.
type Note struct {
	FileName   string // display identifier
	FilePath   string // origin locator (absolute path or antinote:// URI)
	ModifiedAt time.Time
	Content    string
}

// ErrNotFound reports a missing source: the configured directory does
// not exist (or is not a directory), or the Antinote database file is
// absent.
var ErrNotFound = errors.New("note source not found")

// SourceError wraps a lower-level read failure from a note source.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("read %s notes: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// sortByModified orders notes by modification time, newest first.
func sortByModified(notes []Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].ModifiedAt.After(notes[j].ModifiedAt)
	})
}

// sameDay reports whether t falls on the given calendar day in local time.
func sameDay(t, day time.Time) bool {
	y1, m1, d1 := t.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
