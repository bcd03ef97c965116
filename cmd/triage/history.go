package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lthms/triage/internal/history"
)

// HistoryCmd prints one month of history: a per-day count line (the
// CLI rendition of the calendar heat map) followed by the entries,
// newest first.
type HistoryCmd struct {
	Year   int    `help:"Year to show (defaults to the current year)."`
	Month  int    `help:"Month to show, 1-12 (defaults to the current month)."`
	Export string `help:"Export format instead of the text view (only 'yaml')."`
}

func (cmd *HistoryCmd) Run() error {
	if cmd.Export != "" && cmd.Export != "yaml" {
		return fmt.Errorf("unsupported export format %q", cmd.Export)
	}
	year, month := resolveMonth(cmd.Year, cmd.Month)

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.MonthEntries(year, month)
	if err != nil {
		return err
	}

	if cmd.Export == "yaml" {
		return yaml.NewEncoder(os.Stdout).Encode(entries)
	}

	counts, err := store.MonthCounts(year, month)
	if err != nil {
		return err
	}

	fmt.Printf("%s %d\n", month, year)
	if len(counts) == 0 {
		fmt.Println("  no entries")
		return nil
	}

	daysIn := time.Date(year, month+1, 0, 0, 0, 0, 0, time.Local).Day()
	for day := 1; day <= daysIn; day++ {
		if n, ok := counts[day]; ok {
			fmt.Printf("  %02d: %d\n", day, n)
		}
	}

	fmt.Println()
	for _, e := range entries {
		fmt.Printf("#%d %s %s  %s  [%s] -> %s\n", e.ID, e.Date, e.Time, e.Title, e.Category, e.Destination)
		if e.Snippet != "" {
			fmt.Printf("    %s\n", e.Snippet)
		}
	}
	return nil
}

// resolveMonth fills missing year/month flags from the current date.
func resolveMonth(year, month int) (int, time.Month) {
	now := time.Now()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		return year, now.Month()
	}
	return year, time.Month(month)
}

func openStore() (*history.Store, error) {
	dbPath, err := historyDBPath()
	if err != nil {
		return nil, err
	}
	return history.Open(dbPath)
}
