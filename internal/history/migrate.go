package history

import (
	"database/sql"
	"fmt"
)

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			date          TEXT NOT NULL,
			time          TEXT NOT NULL,
			title         TEXT NOT NULL,
			category      TEXT NOT NULL,
			destination   TEXT,
			justification TEXT,
			source        TEXT NOT NULL,
			content       TEXT,
			snippet       TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS day_summaries (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			date         TEXT NOT NULL UNIQUE,
			text         TEXT NOT NULL,
			generated_at TEXT NOT NULL
		)`,
	}

	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}

	// Databases created by older versions predate these columns.
	if err := ensureColumn(db, "entries", "content", "TEXT"); err != nil {
		return err
	}
	if err := ensureColumn(db, "entries", "snippet", "TEXT"); err != nil {
		return err
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_entries_date ON entries (date)`); err != nil {
		return fmt.Errorf("create date index: %w", err)
	}

	return nil
}

// ensureColumn adds a column when the existing table lacks it. The
// column list is inspected first so the migration never assumes a
// fresh schema.
func ensureColumn(db *sql.DB, table, column, colType string) error {
	exists, err := columnExists(db, table, column)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if _, err := db.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, colType)); err != nil {
		return fmt.Errorf("add column %s.%s: %w", table, column, err)
	}
	return nil
}

func columnExists(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return false, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notnull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return false, fmt.Errorf("scan table info: %w", err)
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
