package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lthms/triage/internal/classify"
	"github.com/lthms/triage/internal/history"
	"github.com/lthms/triage/internal/note"
)

// ReprocessCmd re-runs classification for one stored entry using its
// saved content, then overwrites the entry's classification fields.
type ReprocessCmd struct {
	ID int64 `arg:"" help:"History entry id."`
}

func (cmd *ReprocessCmd) Run() error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	entry, err := store.Entry(cmd.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("no history entry with id %d", cmd.ID)
	}
	if err != nil {
		return err
	}
	if strings.TrimSpace(entry.Content) == "" {
		return fmt.Errorf("entry %d has no saved content to reprocess", cmd.ID)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := requireAPIKey(cfg); err != nil {
		return err
	}

	chat := classify.NewGroqClient(cfg.APIKey)
	defer chat.Close()

	result := classify.Classify(context.Background(), chat, note.Note{
		FileName:   entry.Title,
		FilePath:   fmt.Sprintf("history://%d", entry.ID),
		ModifiedAt: time.Now(),
		Content:    entry.Content,
	}, cfg.BasePrompt, cfg.Categories)

	if result.Failed() {
		return fmt.Errorf("reprocess failed: %s", result.Err)
	}

	if err := store.UpdateEntry(entry.ID, result.Category, result.Destination, result.Justification); err != nil {
		return err
	}

	fmt.Printf("#%d %s: %s -> %s (%s)\n",
		entry.ID, entry.Title, result.Category, result.Destination, result.Justification)
	return nil
}

// DeleteCmd removes one or more entries, keeping their snapshots on
// disk so that 'triage undo' can bring them back.
type DeleteCmd struct {
	IDs []int64 `arg:"" help:"History entry ids."`
}

func (cmd *DeleteCmd) Run() error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	// Resolve every id up front so an unknown one aborts the whole
	// command before anything is deleted.
	entries := make([]history.Entry, 0, len(cmd.IDs))
	for _, id := range cmd.IDs {
		entry, err := store.Entry(id)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("no history entry with id %d", id)
		}
		if err != nil {
			return err
		}
		entries = append(entries, *entry)
	}

	if err := writeSnapshot(entries); err != nil {
		return err
	}
	for _, entry := range entries {
		if err := store.DeleteEntry(entry.ID); err != nil {
			return err
		}
		fmt.Printf("Deleted #%d %s.\n", entry.ID, entry.Title)
	}
	fmt.Println("Run 'triage undo' to restore.")
	return nil
}

// UndoCmd restores the most recently deleted entries from their
// snapshot. Every restored entry gets a fresh id.
type UndoCmd struct{}

func (cmd *UndoCmd) Run() error {
	entries, err := readSnapshot()
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	for _, entry := range entries {
		id, err := store.RestoreEntry(entry)
		if err != nil {
			return err
		}
		fmt.Printf("Restored %s as #%d.\n", entry.Title, id)
	}
	removeSnapshot()
	return nil
}

// ClearCmd wipes every entry and day summary.
type ClearCmd struct {
	Yes bool `help:"Confirm: this cannot be undone."`
}

func (cmd *ClearCmd) Run() error {
	if !cmd.Yes {
		return fmt.Errorf("refusing to clear history without --yes")
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.ClearAll(); err != nil {
		return err
	}
	fmt.Println("History cleared.")
	return nil
}

// --- Undo snapshot ---

func snapshotPath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "last-deleted.json"), nil
}

func writeSnapshot(entries []history.Entry) error {
	path, err := snapshotPath()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func readSnapshot() ([]history.Entry, error) {
	path, err := snapshotPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("nothing to undo")
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var entries []history.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("nothing to undo")
	}
	return entries, nil
}

func removeSnapshot() {
	if path, err := snapshotPath(); err == nil {
		os.Remove(path)
	}
}
