package classify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestGroq(t *testing.T, handler http.HandlerFunc) *GroqClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewGroqClient("test-key")
	client.endpoint = srv.URL
	return client
}

func TestGroqClient_Complete(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest

	client := newTestGroq(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"category\":\"Work\"}"}}]}`))
	})
	defer client.Close()

	reply, err := client.Complete(context.Background(), "sys", "user", 0.3)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if reply != `{"category":"Work"}` {
		t.Errorf("unexpected reply %q", reply)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("unexpected auth header %q", gotAuth)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Role != "user" {
		t.Errorf("unexpected messages %+v", gotReq.Messages)
	}
	if gotReq.Temperature != 0.3 {
		t.Errorf("unexpected temperature %v", gotReq.Temperature)
	}
}

func TestGroqClient_APIError(t *testing.T) {
	client := newTestGroq(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	})
	defer client.Close()

	_, err := client.Complete(context.Background(), "sys", "user", 0.3)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnauthorized {
		t.Errorf("unexpected status %d", apiErr.Status)
	}
	if apiErr.Message != "invalid api key" {
		t.Errorf("unexpected message %q", apiErr.Message)
	}
}

func TestGroqClient_NoChoices(t *testing.T) {
	client := newTestGroq(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})
	defer client.Close()

	reply, err := client.Complete(context.Background(), "sys", "user", 0.3)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if reply != "" {
		t.Errorf("expected empty reply, got %q", reply)
	}
}
