package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	groqEndpoint = "https://api.groq.com/openai/v1/chat/completions"
	groqModel    = "llama-3.3-70b-versatile"
)

// Chat abstracts the chat-completions backend so that tests can stub
// the provider.
type Chat interface {
	// Complete sends one system+user exchange and returns the raw
	// reply text.
	Complete(ctx context.Context, system, user string, temperature float64) (string, error)
}

// APIError is a non-2xx reply from the provider.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

// GroqClient implements Chat against Groq's OpenAI-compatible
// chat-completions endpoint. One attempt per call, no retries.
type GroqClient struct {
	apiKey   string
	endpoint string
	model    string
	client   *http.Client
}

// NewGroqClient returns a client authenticated with apiKey.
func NewGroqClient(apiKey string) *GroqClient {
	return &GroqClient{
		apiKey:   apiKey,
		endpoint: groqEndpoint,
		model:    groqModel,
		client:   &http.Client{Timeout: 2 * time.Minute},
	}
}

// Close releases the client's idle connections. Callers acquire a
// client per batch or per call and must close it on every exit path.
func (c *GroqClient) Close() {
	c.client.CloseIdleConnections()
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete implements Chat.
func (c *GroqClient) Complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	reqBody, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("groq request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read groq response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(body)
		var apiErr chatResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != nil {
			msg = apiErr.Error.Message
		}
		return "", &APIError{Status: resp.StatusCode, Message: msg}
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("parse groq response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", nil
	}
	return result.Choices[0].Message.Content, nil
}
