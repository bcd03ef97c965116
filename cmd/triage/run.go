package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/lthms/triage/internal/classify"
	"github.com/lthms/triage/internal/history"
	"github.com/lthms/triage/internal/note"
)

// RunCmd classifies today's notes and saves the successful results.
type RunCmd struct{}

// progressEvent is one (index, total) step of the classification batch.
type progressEvent struct {
	Current int
	Total   int
}

// Run lists today's notes from the configured source, classifies them
// sequentially while streaming progress to the terminal, prints every
// outcome, and records the successful ones.
func (cmd *RunCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := requireAPIKey(cfg); err != nil {
		return err
	}
	if cfg.Source == sourceLocal && cfg.NotesDir == "" {
		return fmt.Errorf("no notes directory configured: set notes_dir in the config file")
	}

	notes, err := listTodayNotes(cfg)
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		fmt.Println("No notes found for today.")
		return nil
	}

	chat := classify.NewGroqClient(cfg.APIKey)
	defer chat.Close()

	// The batch runs in its own goroutine; the main goroutine consumes
	// progress events so the terminal updates while the model works.
	progress := make(chan progressEvent)
	var results []classify.Result

	g := new(errgroup.Group)
	g.Go(func() error {
		defer close(progress)
		results = classify.ClassifyAll(context.Background(), chat, notes,
			cfg.BasePrompt, cfg.Categories, func(current, total int) {
				progress <- progressEvent{Current: current, Total: total}
			})
		return nil
	})

	for ev := range progress {
		fmt.Printf("Classifying note %d of %d...\n", ev.Current, ev.Total)
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, result := range results {
		if result.Failed() {
			fmt.Printf("  %s: FAILED (%s)\n", result.FileName, result.Err)
			continue
		}
		fmt.Printf("  %s: %s -> %s (%s)\n",
			result.FileName, result.Category, result.Destination, result.Justification)
	}

	dbPath, err := historyDBPath()
	if err != nil {
		return err
	}
	store, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SaveBatch(results, cfg.Source, notes); err != nil {
		return fmt.Errorf("save history: %w", err)
	}

	slog.Debug("run: batch complete", "notes", len(notes), "source", cfg.Source)
	return nil
}

// listTodayNotes dispatches to the configured source adapter and maps
// missing-source failures to messages that name the source.
func listTodayNotes(cfg *Config) ([]note.Note, error) {
	switch cfg.Source {
	case sourceAntinote:
		dbPath, err := note.AntinoteDBPath()
		if err != nil {
			return nil, err
		}
		notes, err := note.ListAntinote(dbPath)
		if errors.Is(err, note.ErrNotFound) {
			return nil, fmt.Errorf("Antinote database not found at %s", dbPath)
		}
		return notes, err
	case sourceLocal:
		notes, err := note.ListDir(cfg.NotesDir)
		if errors.Is(err, note.ErrNotFound) {
			return nil, fmt.Errorf("notes directory not found: %s", cfg.NotesDir)
		}
		return notes, err
	default:
		return nil, fmt.Errorf("unknown notes source %q (expected %q or %q)",
			cfg.Source, sourceLocal, sourceAntinote)
	}
}
