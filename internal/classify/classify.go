// Package classify turns free-text notes into structured
// (category, destination, justification) triples by way of a remote
// chat-completions service, and generates day-level summaries. Per-note
// failures are captured as result values rather than errors so that one
// bad note cannot abort a batch.
package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lthms/triage/internal/note"
)

// Rule is one named category with the instruction that guides the model.
type Rule struct {
	Name        string `toml:"name" yaml:"name"`
	Instruction string `toml:"instruction" yaml:"instruction"`
}

// Result is the outcome of classifying one note. Either Err is empty
// and the three content fields hold the classification, or Err carries
// the mapped cause and the content fields hold fixed placeholders.
type Result struct {
	FileName      string
	Category      string
	Destination   string
	Justification string
	Err           string
}

// Failed reports whether the classification of this note failed.
func (r Result) Failed() bool { return r.Err != "" }

// ErrEmptySummary is returned by Summarize when the provider replies
// with blank content.
var ErrEmptySummary = errors.New("model returned an empty summary")

const (
	classifySystem = `You analyze notes and reply exclusively with valid JSON. ` +
		`Required format: {"category":"...","destination":"...","justification":"..."}.`
	summarySystem = "You are a productivity assistant."

	classifyTemperature = 0.3
	summaryTemperature  = 0.4
)

// Classify sends one note to the model and returns a Result. It never
// returns an error: provider and parse failures are mapped into the
// result's Err field.
func Classify(ctx context.Context, chat Chat, n note.Note, basePrompt string, rules []Rule) Result {
	var sb strings.Builder
	sb.WriteString(basePrompt)
	sb.WriteString("\n\nPossible categories:\n")
	for _, rule := range rules {
		fmt.Fprintf(&sb, "- %s: %s\n", rule.Name, rule.Instruction)
	}
	fmt.Fprintf(&sb, "\nFile name: %s\nNote content:\n%s\n", n.FileName, n.Content)

	reply, err := chat.Complete(ctx, classifySystem, sb.String(), classifyTemperature)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return failedResult(n.FileName, "API call failed.", mapAPIError(apiErr))
		}
		return failedResult(n.FileName, "Unexpected error during analysis.", err.Error())
	}

	parsed, err := parseJSONReply(reply)
	if err != nil {
		return failedResult(n.FileName, "Could not interpret the model reply.", "AI returned invalid format")
	}

	return Result{
		FileName:      n.FileName,
		Category:      fieldOr(parsed, "category", "no category"),
		Destination:   fieldOr(parsed, "destination", "no destination"),
		Justification: fieldOr(parsed, "justification", "no justification"),
	}
}

// ClassifyAll classifies notes strictly one at a time, in input order.
// Before item i (1-indexed) it invokes onProgress(i, total) when the
// callback is non-nil. A failing item is recorded in place and the
// batch continues; the returned slice always has len(notes) elements.
func ClassifyAll(ctx context.Context, chat Chat, notes []note.Note, basePrompt string, rules []Rule, onProgress func(current, total int)) []Result {
	results := make([]Result, 0, len(notes))
	total := len(notes)

	for i, n := range notes {
		if onProgress != nil {
			onProgress(i+1, total)
		}
		results = append(results, Classify(ctx, chat, n, basePrompt, rules))
	}

	return results
}

// Summarize asks the model for a bulleted executive summary of
// combined, the concatenation of one day's note contents. Unlike
// Classify, failures propagate: summarization is a single on-demand
// action, not an unattended batch.
func Summarize(ctx context.Context, chat Chat, combined string) (string, error) {
	user := "Write an executive summary of my day, in bullet points, based on these notes:\n\n" + combined

	reply, err := chat.Complete(ctx, summarySystem, user, summaryTemperature)
	if err != nil {
		return "", err
	}

	summary := strings.TrimSpace(reply)
	if summary == "" {
		return "", ErrEmptySummary
	}
	return summary, nil
}

func failedResult(fileName, justification, cause string) Result {
	return Result{
		FileName:      fileName,
		Category:      "Error",
		Destination:   "-",
		Justification: justification,
		Err:           cause,
	}
}

func mapAPIError(err *APIError) string {
	switch {
	case err.Status == 401 || err.Status == 403:
		return "invalid or unauthorized API key"
	case err.Status == 429:
		return "rate limit exceeded, retry later"
	case err.Status >= 500:
		return "temporary upstream error"
	}
	if err.Message != "" {
		return err.Message
	}
	return err.Error()
}

// parseJSONReply parses the model reply as a JSON object, stripping an
// optional markdown code fence first.
func parseJSONReply(raw string) (map[string]any, error) {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.ReplaceAll(cleaned, "```json", "")
		cleaned = strings.ReplaceAll(cleaned, "```", "")
		cleaned = strings.TrimSpace(cleaned)
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

func fieldOr(parsed map[string]any, key, fallback string) string {
	v, ok := parsed[key]
	if !ok || v == nil {
		return fallback
	}
	switch s := v.(type) {
	case string:
		return s
	default:
		return fmt.Sprintf("%v", s)
	}
}
