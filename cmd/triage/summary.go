package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lthms/triage/internal/classify"
	"github.com/lthms/triage/internal/history"
)

// SummaryCmd shows the AI summary for one day's notes, generating and
// caching it when none is stored yet.
type SummaryCmd struct {
	Date    string `help:"Day to summarize, YYYY-MM-DD (defaults to today)."`
	Refresh bool   `help:"Regenerate even when a cached summary exists."`
}

func (cmd *SummaryCmd) Run() error {
	date := cmd.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	day, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", cmd.Date)
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	// The content guard comes before the cache: a day whose entries no
	// longer carry content must not print a stale cached summary.
	combined, err := combinedDayContent(store, day)
	if err != nil {
		return err
	}
	if combined == "" {
		return fmt.Errorf("no notes with content to summarize on %s", date)
	}

	if !cmd.Refresh {
		if cached, ok, err := store.DaySummary(date); err != nil {
			return err
		} else if ok && cached != "" {
			fmt.Println(cached)
			return nil
		}
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

	summary, err := classify.Summarize(context.Background(), chat, combined)
	if err != nil {
		return fmt.Errorf("generate summary: %w", err)
	}

	if err := store.SaveDaySummary(date, summary); err != nil {
		return err
	}

	fmt.Println(summary)
	return nil
}

// combinedDayContent joins the non-blank contents of the day's entries
// with a visible separator, ready for the summary prompt.
func combinedDayContent(store *history.Store, day time.Time) (string, error) {
	entries, err := store.MonthEntries(day.Year(), day.Month())
	if err != nil {
		return "", err
	}

	date := day.Format("2006-01-02")
	var contents []string
	for _, e := range entries {
		if e.Date != date {
			continue
		}
		if c := strings.TrimSpace(e.Content); c != "" {
			contents = append(contents, c)
		}
	}
	return strings.Join(contents, "\n\n---\n\n"), nil
}
