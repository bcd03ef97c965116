package note

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

// allowedExts limits the directory scan to plain-text note formats.
var allowedExts = map[string]bool{
	".txt": true,
	".md":  true,
}

// ListDir scans the immediate entries of dir and returns the notes
// whose last-modified date is today, newest first. Files that cannot
// be read or are not valid UTF-8 are skipped. Returns ErrNotFound if
// dir does not exist or is not a directory.
func ListDir(dir string) ([]Note, error) {
	return listDirAt(dir, time.Now())
}

// listDirAt is ListDir with an injectable "today" for tests.
func listDirAt(dir string, today time.Time) ([]Note, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, ErrNotFound
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &SourceError{Source: "local", Err: err}
	}

	var notes []Note
	for _, entry := range entries {
		if entry.IsDir() || !allowedExts[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}

		fi, err := entry.Info()
		if err != nil {
			continue
		}
		if !sameDay(fi.ModTime(), today) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Debug("notes: skipping unreadable file", "path", path, "error", err)
			continue
		}
		if !utf8.Valid(data) {
			slog.Debug("notes: skipping non-UTF-8 file", "path", path)
			continue
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}

		notes = append(notes, Note{
			FileName:   entry.Name(),
			FilePath:   abs,
			ModifiedAt: fi.ModTime(),
			Content:    string(data),
		})
	}

	sortByModified(notes)
	return notes, nil
}
