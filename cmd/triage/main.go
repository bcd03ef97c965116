// Command triage reads today's notes from a configured source, sends
// each one to an AI classification model, and records the results in a
// local history database that can be browsed, summarized and edited
// from the same CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
)

// CLI is the top-level command structure for triage.
type CLI struct {
	Debug bool `env:"TRIAGE_DEBUG" help:"Enable debug logging."`

	Run       RunCmd       `cmd:"" help:"Classify today's notes and record the results."`
	History   HistoryCmd   `cmd:"" help:"Show a month of history: per-day counts and entries."`
	Summary   SummaryCmd   `cmd:"" help:"Show (or generate) the AI summary for one day."`
	Reprocess ReprocessCmd `cmd:"" help:"Re-run classification for a stored entry."`
	Delete    DeleteCmd    `cmd:"" help:"Delete a history entry (undo with 'triage undo')."`
	Undo      UndoCmd      `cmd:"" help:"Restore the most recently deleted entry."`
	Clear     ClearCmd     `cmd:"" help:"Erase the entire history. Irreversible."`
}

// dataDir returns the directory holding the history database and the
// undo snapshot. TRIAGE_DATA_DIR overrides the default, mainly for
// tests.
func dataDir() (string, error) {
	if dir := os.Getenv("TRIAGE_DATA_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "triage"), nil
}

func historyDBPath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

func main() {
	cli := CLI{}
	parser, err := kong.New(&cli,
		kong.Name("triage"),
		kong.Description("Classify today's notes with an AI model and keep a browsable history."),
		kong.UsageOnError(),
		kong.Exit(func(code int) {
			os.Exit(code)
		}),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "triage: %v\n", err)
		os.Exit(1)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	setupLogger(cli.Debug)

	err = ctx.Run()
	ctx.FatalIfErrorf(err)
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}
