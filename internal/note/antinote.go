package note

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// antinoteContainerPath is where Antinote keeps its database on macOS,
// relative to the user's home directory.
const antinoteContainerPath = "Library/Containers/com.chabomakers.Antinote/Data/Documents/notes.sqlite3"

// AntinoteDBPath returns the default location of the Antinote database.
func AntinoteDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, antinoteContainerPath), nil
}

// ListAntinote reads today's notes from the Antinote database at dbPath,
// newest first. The database is opened strictly read-only and always
// closed, even on error. Returns ErrNotFound if the file is absent; any
// database-level failure is wrapped in a SourceError.
func ListAntinote(dbPath string) ([]Note, error) {
	return listAntinoteAt(dbPath, time.Now())
}

func listAntinoteAt(dbPath string, today time.Time) ([]Note, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, ErrNotFound
	}

	db, err := sql.Open("sqlite", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return nil, &SourceError{Source: "antinote", Err: err}
	}
	defer db.Close()

	rows, err := db.Query(`SELECT id, created, lastModified, content FROM notes`)
	if err != nil {
		return nil, &SourceError{Source: "antinote", Err: err}
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		var id, created, modified, content sql.NullString
		if err := rows.Scan(&id, &created, &modified, &content); err != nil {
			return nil, &SourceError{Source: "antinote", Err: err}
		}

		noteID := strings.TrimSpace(id.String)
		if noteID == "" || strings.TrimSpace(content.String) == "" {
			continue
		}

		createdAt := parseAntinoteTime(created.String)
		modifiedAt := parseAntinoteTime(modified.String)
		if !sameDay(createdAt, today) && !sameDay(modifiedAt, today) {
			continue
		}

		at := modifiedAt
		if at.IsZero() {
			at = createdAt
		}

		shortID := noteID
		if len(shortID) > 8 {
			shortID = shortID[:8]
		}

		notes = append(notes, Note{
			FileName:   "Antinote " + shortID,
			FilePath:   "antinote://" + noteID,
			ModifiedAt: at,
			Content:    content.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &SourceError{Source: "antinote", Err: err}
	}

	sortByModified(notes)
	return notes, nil
}

// antinoteFallbackLayouts are tried in order when a timestamp is not
// valid RFC 3339. The upstream schema is uncontrolled, so parsing is
// tolerant: first match wins, and an unparseable value becomes the zero
// time (treated as "unknown, earliest possible").
var antinoteFallbackLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02",
}

func parseAntinoteTime(value string) time.Time {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return time.Time{}
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.Local()
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", raw, time.Local); err == nil {
		return t
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05.999999", raw, time.Local); err == nil {
		return t
	}

	for _, layout := range antinoteFallbackLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t
		}
	}

	return time.Time{}
}
