package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/lthms/triage/internal/classify"
)

// Note source identifiers accepted in the config file.
const (
	sourceLocal    = "local"
	sourceAntinote = "antinote"
)

const defaultBasePrompt = "You are an organization assistant. Read the note and classify it " +
	"into a fitting category, suggesting where it should be stored."

// Config holds user configuration loaded from
// ~/.config/triage/config.toml. The core only ever reads it.
type Config struct {
	APIKey     string          `toml:"api_key"`
	NotesDir   string          `toml:"notes_dir"`
	Source     string          `toml:"source"`
	BasePrompt string          `toml:"base_prompt"`
	Categories []classify.Rule `toml:"category"`
}

func defaultCategories() []classify.Rule {
	return []classify.Rule{
		{Name: "Work", Instruction: "Professional matters, projects and work tasks."},
		{Name: "Personal", Instruction: "Personal commitments, family, routine and private life."},
		{Name: "Study", Instruction: "Learning, courses, summaries and study material."},
		{Name: "Misc", Instruction: "Items that do not clearly fit the other categories."},
	}
}

// configPath honors TRIAGE_CONFIG before falling back to the standard
// location.
func configPath() (string, error) {
	if path := os.Getenv("TRIAGE_CONFIG"); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	return filepath.Join(home, ".config", "triage", "config.toml"), nil
}

// loadConfig reads the config file and returns the parsed config with
// defaults applied. If the file does not exist, defaults are returned
// with no error.
func loadConfig() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Source:     sourceLocal,
		BasePrompt: defaultBasePrompt,
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.Categories = defaultCategories()
			return cfg, nil
		}
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	// Re-apply defaults for empty fields
	if cfg.Source == "" {
		cfg.Source = sourceLocal
	}
	if cfg.BasePrompt == "" {
		cfg.BasePrompt = defaultBasePrompt
	}
	cfg.Categories = validCategories(cfg.Categories)
	if len(cfg.Categories) == 0 {
		cfg.Categories = defaultCategories()
	}

	return cfg, nil
}

// validCategories drops rules with a blank name or instruction.
// Classification needs at least one usable rule; the caller falls back
// to the default set when none survive.
func validCategories(rules []classify.Rule) []classify.Rule {
	var out []classify.Rule
	for _, r := range rules {
		if r.Name == "" || r.Instruction == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

// requireAPIKey is shared by every command that talks to the model.
func requireAPIKey(cfg *Config) error {
	if cfg.APIKey == "" {
		return fmt.Errorf("no API key configured: set api_key in the config file")
	}
	return nil
}
