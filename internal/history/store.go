// Package history persists successful classification results and
// generated day summaries in a local SQLite database. Entries are
// bucketed by calendar date; the schema is migrated idempotently on
// open so older databases gain new columns without losing data.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lthms/triage/internal/classify"
	"github.com/lthms/triage/internal/note"
)

const (
	dateLayout      = "2006-01-02"
	timeLayout      = "15:04"
	generatedLayout = "2006-01-02 15:04:05"
)

// Entry is one persisted classification record. Date and Time reflect
// insertion or last reprocessing, not the note's original modification
// time.
type Entry struct {
	ID            int64  `yaml:"id" json:"id"`
	Date          string `yaml:"date" json:"date"`
	Time          string `yaml:"time" json:"time"`
	Title         string `yaml:"title" json:"title"`
	Category      string `yaml:"category" json:"category"`
	Destination   string `yaml:"destination" json:"destination"`
	Justification string `yaml:"justification" json:"justification"`
	Source        string `yaml:"source" json:"source"`
	Content       string `yaml:"content,omitempty" json:"content"`
	Snippet       string `yaml:"snippet,omitempty" json:"snippet"`
}

// Store owns the history database. Open one per operation or per
// process; it is not safe to share a Store between concurrent batches.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the history database at path, creating the
// parent directory if needed and migrating the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveBatch inserts one row per successful result, skipping any result
// whose Err is set. When notes is non-nil and pairs up with results by
// position, content and snippet are stored alongside; otherwise both
// are empty. Every row in the batch shares the same insertion date and
// time. No-op on an empty or all-failed batch.
func (s *Store) SaveBatch(results []classify.Result, source string, notes []note.Note) error {
	if len(results) == 0 {
		return nil
	}

	now := s.now()
	date := now.Format(dateLayout)
	tm := now.Format(timeLayout)

	paired := notes != nil && len(notes) == len(results)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO entries
		(date, time, title, category, destination, justification, source, content, snippet)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i, result := range results {
		if result.Failed() {
			continue
		}
		content := ""
		if paired {
			content = notes[i].Content
		}
		_, err := stmt.Exec(date, tm, result.FileName, result.Category,
			result.Destination, result.Justification, source, content, Snippet(content))
		if err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}
		inserted++
	}

	if inserted == 0 {
		return nil
	}
	return tx.Commit()
}

// MonthCounts returns the number of entries per day-of-month for the
// given year and month. Days without entries are absent from the map.
func (s *Store) MonthCounts(year int, month time.Month) (map[int]int, error) {
	rows, err := s.db.Query(`SELECT CAST(strftime('%d', date) AS INTEGER) AS day, COUNT(*)
		FROM entries
		WHERE strftime('%Y', date) = ? AND strftime('%m', date) = ?
		GROUP BY day`,
		fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month))
	if err != nil {
		return nil, fmt.Errorf("query month counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var day, total int
		if err := rows.Scan(&day, &total); err != nil {
			return nil, fmt.Errorf("scan month counts: %w", err)
		}
		counts[day] = total
	}
	return counts, rows.Err()
}

// MonthEntries returns all entries for the given year and month, most
// recent first (date, then time, then id descending).
func (s *Store) MonthEntries(year int, month time.Month) ([]Entry, error) {
	rows, err := s.db.Query(`SELECT id, date, time, title, category,
			COALESCE(destination, ''), COALESCE(justification, ''), source,
			COALESCE(content, ''), COALESCE(snippet, '')
		FROM entries
		WHERE strftime('%Y', date) = ? AND strftime('%m', date) = ?
		ORDER BY date DESC, time DESC, id DESC`,
		fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month))
	if err != nil {
		return nil, fmt.Errorf("query month entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Date, &e.Time, &e.Title, &e.Category,
			&e.Destination, &e.Justification, &e.Source, &e.Content, &e.Snippet); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Entry returns the entry with the given id, or sql.ErrNoRows.
func (s *Store) Entry(id int64) (*Entry, error) {
	var e Entry
	err := s.db.QueryRow(`SELECT id, date, time, title, category,
			COALESCE(destination, ''), COALESCE(justification, ''), source,
			COALESCE(content, ''), COALESCE(snippet, '')
		FROM entries WHERE id = ?`, id).
		Scan(&e.ID, &e.Date, &e.Time, &e.Title, &e.Category,
			&e.Destination, &e.Justification, &e.Source, &e.Content, &e.Snippet)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// UpdateEntry overwrites an entry's classification and refreshes its
// date and time to now. Title, source and content are untouched.
func (s *Store) UpdateEntry(id int64, category, destination, justification string) error {
	now := s.now()
	_, err := s.db.Exec(`UPDATE entries
		SET date = ?, time = ?, category = ?, destination = ?, justification = ?
		WHERE id = ?`,
		now.Format(dateLayout), now.Format(timeLayout), category, destination, justification, id)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	return nil
}

// DeleteEntry removes one entry.
func (s *Store) DeleteEntry(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM entries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

// RestoreEntry re-inserts a previously deleted entry from its snapshot,
// assigning a fresh id. A blank snippet is recomputed from content.
func (s *Store) RestoreEntry(e Entry) (int64, error) {
	snippet := e.Snippet
	if snippet == "" && e.Content != "" {
		snippet = Snippet(e.Content)
	}

	result, err := s.db.Exec(`INSERT INTO entries
		(date, time, title, category, destination, justification, source, content, snippet)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Date, e.Time, e.Title, e.Category, e.Destination, e.Justification,
		e.Source, e.Content, snippet)
	if err != nil {
		return 0, fmt.Errorf("restore entry: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// ClearAll deletes every entry and every day summary. Irreversible.
func (s *Store) ClearAll() error {
	if _, err := s.db.Exec(`DELETE FROM entries`); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM day_summaries`); err != nil {
		return fmt.Errorf("clear day summaries: %w", err)
	}
	return nil
}

// DaySummary returns the cached summary text for date (layout
// 2006-01-02), or "" and false when none is stored.
func (s *Store) DaySummary(date string) (string, bool, error) {
	var text string
	err := s.db.QueryRow(`SELECT text FROM day_summaries WHERE date = ?`, date).Scan(&text)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query day summary: %w", err)
	}
	return text, true, nil
}

// SaveDaySummary stores the summary for date, replacing any prior one.
func (s *Store) SaveDaySummary(date, text string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO day_summaries (date, text, generated_at)
		VALUES (?, ?, ?)`,
		date, text, s.now().Format(generatedLayout))
	if err != nil {
		return fmt.Errorf("save day summary: %w", err)
	}
	return nil
}

// DeleteDaySummary drops the cached summary for date, if any.
func (s *Store) DeleteDaySummary(date string) error {
	if _, err := s.db.Exec(`DELETE FROM day_summaries WHERE date = ?`, date); err != nil {
		return fmt.Errorf("delete day summary: %w", err)
	}
	return nil
}
