package history

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSnippet(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"whitespace only", " \n\t ", ""},
		{"short", "Buy milk", "Buy milk"},
		{"collapses whitespace", "Buy\n\n  milk   today", "Buy milk today"},
		{"exactly 80", strings.Repeat("a", 80), strings.Repeat("a", 80)},
		{"81 truncates", strings.Repeat("a", 81), strings.Repeat("a", 80) + "..."},
		{"80 runes multibyte", strings.Repeat("ç", 80), strings.Repeat("ç", 80)},
		{"81 runes multibyte", strings.Repeat("ç", 81), strings.Repeat("ç", 80) + "..."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Snippet(tc.input); got != tc.want {
				t.Errorf("Snippet(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestSnippet_MaxVisibleLength(t *testing.T) {
	long := strings.Repeat("word ", 100)
	got := Snippet(long)
	if len(got) > snippetMaxLen+3 {
		t.Errorf("snippet too long: %d chars", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis suffix, got %q", got)
	}
	if strings.HasSuffix(strings.TrimSuffix(got, "..."), " ") {
		t.Errorf("expected trailing space trimmed before ellipsis, got %q", got)
	}
}

func TestSnippet_NeverSplitsRunes(t *testing.T) {
	// A multibyte rune straddling the 80-character boundary must not be
	// cut mid-sequence.
	content := strings.Repeat("a", 79) + "ção de notas"
	got := Snippet(content)
	if !utf8.ValidString(got) {
		t.Fatalf("snippet is not valid UTF-8: %q", got)
	}
	trimmed := strings.TrimSuffix(got, "...")
	if utf8.RuneCountInString(trimmed) != snippetMaxLen {
		t.Errorf("expected %d visible characters, got %d (%q)",
			snippetMaxLen, utf8.RuneCountInString(trimmed), got)
	}
	if trimmed != strings.Repeat("a", 79)+"ç" {
		t.Errorf("unexpected truncation point: %q", trimmed)
	}
}
