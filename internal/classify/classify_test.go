package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/lthms/triage/internal/note"
)

// stubChat implements Chat for testing.
type stubChat struct {
	replies []string
	errs    []error
	calls   []string
	idx     int
}

func (s *stubChat) Complete(_ context.Context, system, user string, _ float64) (string, error) {
	s.calls = append(s.calls, system+"\n"+user)
	if s.idx >= len(s.replies) && s.idx >= len(s.errs) {
		return "", fmt.Errorf("stub: no replies configured")
	}
	i := s.idx
	s.idx++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.replies) {
		return s.replies[i], nil
	}
	return "", nil
}

var testRules = []Rule{
	{Name: "Work", Instruction: "Professional matters."},
	{Name: "Personal", Instruction: "Private life."},
}

func testNote(name, content string) note.Note {
	return note.Note{FileName: name, FilePath: "/tmp/" + name, Content: content}
}

func TestClassify_FencedJSONReply(t *testing.T) {
	stub := &stubChat{replies: []string{
		"```json\n{\"category\":\"Work\",\"destination\":\"Projects/\",\"justification\":\"mentions deadline\"}\n```",
	}}

	result := Classify(context.Background(), stub, testNote("a.txt", "ship it"), "classify this", testRules)

	if result.Failed() {
		t.Fatalf("unexpected failure: %s", result.Err)
	}
	if result.Category != "Work" || result.Destination != "Projects/" || result.Justification != "mentions deadline" {
		t.Errorf("unexpected result %+v", result)
	}
	if result.FileName != "a.txt" {
		t.Errorf("expected file name carried over, got %q", result.FileName)
	}
}

func TestClassify_MissingKeysGetPlaceholders(t *testing.T) {
	stub := &stubChat{replies: []string{`{"category":"Work"}`}}

	result := Classify(context.Background(), stub, testNote("a.txt", "x"), "p", testRules)

	if result.Failed() {
		t.Fatalf("unexpected failure: %s", result.Err)
	}
	if result.Destination != "no destination" {
		t.Errorf("expected placeholder destination, got %q", result.Destination)
	}
	if result.Justification != "no justification" {
		t.Errorf("expected placeholder justification, got %q", result.Justification)
	}
}

func TestClassify_InvalidJSON(t *testing.T) {
	stub := &stubChat{replies: []string{"sure! here is my analysis..."}}

	result := Classify(context.Background(), stub, testNote("a.txt", "x"), "p", testRules)

	if !result.Failed() {
		t.Fatal("expected failure")
	}
	if result.Err != "AI returned invalid format" {
		t.Errorf("unexpected cause %q", result.Err)
	}
	if result.Category != "Error" || result.Destination != "-" {
		t.Errorf("expected sentinel fields, got %+v", result)
	}
}

func TestClassify_APIErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"unauthorized", &APIError{Status: 401, Message: "bad key"}, "invalid or unauthorized API key"},
		{"forbidden", &APIError{Status: 403, Message: "nope"}, "invalid or unauthorized API key"},
		{"rate limited", &APIError{Status: 429, Message: "slow down"}, "rate limit exceeded, retry later"},
		{"server error", &APIError{Status: 503, Message: "oops"}, "temporary upstream error"},
		{"other status", &APIError{Status: 422, Message: "unprocessable"}, "unprocessable"},
		{"transport error", fmt.Errorf("connection refused"), "connection refused"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubChat{errs: []error{tc.err}}
			result := Classify(context.Background(), stub, testNote("a.txt", "x"), "p", testRules)
			if !result.Failed() {
				t.Fatal("expected failure")
			}
			if result.Err != tc.want {
				t.Errorf("expected cause %q, got %q", tc.want, result.Err)
			}
			if result.Category != "Error" {
				t.Errorf("expected Error category, got %q", result.Category)
			}
		})
	}
}

func TestClassify_PromptContainsRulesAndNote(t *testing.T) {
	stub := &stubChat{replies: []string{`{"category":"Work","destination":"d","justification":"j"}`}}

	Classify(context.Background(), stub, testNote("meeting.md", "standup at 9"), "base prompt", testRules)

	if len(stub.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(stub.calls))
	}
	prompt := stub.calls[0]
	for _, want := range []string{"base prompt", "- Work: Professional matters.", "meeting.md", "standup at 9"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestClassifyAll_OrderLengthAndProgress(t *testing.T) {
	stub := &stubChat{
		replies: []string{
			`{"category":"Work","destination":"a","justification":"x"}`,
			"not json at all",
			`{"category":"Personal","destination":"b","justification":"y"}`,
		},
	}
	notes := []note.Note{testNote("1.txt", "a"), testNote("2.txt", "b"), testNote("3.txt", "c")}

	var events [][2]int
	results := ClassifyAll(context.Background(), stub, notes, "p", testRules, func(cur, total int) {
		events = append(events, [2]int{cur, total})
	})

	if len(results) != len(notes) {
		t.Fatalf("expected %d results, got %d", len(notes), len(results))
	}
	for i, n := range notes {
		if results[i].FileName != n.FileName {
			t.Errorf("position %d: expected %s, got %s", i, n.FileName, results[i].FileName)
		}
	}
	if results[0].Failed() || !results[1].Failed() || results[2].Failed() {
		t.Errorf("unexpected failure pattern: %+v", results)
	}

	wantEvents := [][2]int{{1, 3}, {2, 3}, {3, 3}}
	if len(events) != len(wantEvents) {
		t.Fatalf("expected %d progress events, got %d", len(wantEvents), len(events))
	}
	for i, want := range wantEvents {
		if events[i] != want {
			t.Errorf("event %d: expected %v, got %v", i, want, events[i])
		}
	}
}

func TestClassifyAll_NilProgress(t *testing.T) {
	stub := &stubChat{replies: []string{`{"category":"Work","destination":"d","justification":"j"}`}}

	results := ClassifyAll(context.Background(), stub, []note.Note{testNote("1.txt", "a")}, "p", testRules, nil)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}

func TestClassifyAll_Empty(t *testing.T) {
	results := ClassifyAll(context.Background(), &stubChat{}, nil, "p", testRules, nil)
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestSummarize_TrimsReply(t *testing.T) {
	stub := &stubChat{replies: []string{"\n  - did things\n  - did more things\n\n"}}

	summary, err := Summarize(context.Background(), stub, "notes")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary != "- did things\n  - did more things" {
		t.Errorf("unexpected summary %q", summary)
	}
}

func TestSummarize_EmptyReply(t *testing.T) {
	stub := &stubChat{replies: []string{"   \n  "}}

	_, err := Summarize(context.Background(), stub, "notes")
	if !errors.Is(err, ErrEmptySummary) {
		t.Fatalf("expected ErrEmptySummary, got %v", err)
	}
}

func TestSummarize_ErrorPropagates(t *testing.T) {
	stub := &stubChat{errs: []error{&APIError{Status: 500, Message: "down"}}}

	_, err := Summarize(context.Background(), stub, "notes")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError to propagate, got %v", err)
	}
}
