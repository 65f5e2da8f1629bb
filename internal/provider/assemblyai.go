package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Client calls the AssemblyAI transcript API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

// APIError is a non-2xx response from the provider.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider API error (status %d): %s", e.StatusCode, e.Message)
}

// NewClient creates a transcript API client. baseURL has no trailing slash,
// e.g. "https://api.assemblyai.com".
func NewClient(baseURL, apiKey string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "provider").Logger(),
	}
}

// Submit starts a transcription and returns the provider's job ID.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal submit request: %w", err)
	}

	tr, err := c.do(ctx, http.MethodPost, "/v2/transcript", bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	// The provider can reject a submission inline rather than via HTTP status.
	if tr.Status == StatusError {
		msg := tr.Error
		if msg == "" {
			msg = "transcription rejected"
		}
		return "", &APIError{StatusCode: http.StatusOK, Message: msg}
	}

	c.log.Debug().Str("provider_job_id", tr.ID).Msg("transcription submitted")
	return tr.ID, nil
}

// Get fetches the current transcript state by provider job ID.
func (c *Client) Get(ctx context.Context, id string) (*Transcript, error) {
	return c.do(ctx, http.MethodGet, "/v2/transcript/"+id, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*Transcript, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(raw, resp.StatusCode)}
	}

	var tr Transcript
	if err := json.Unmarshal(raw, &tr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &tr, nil
}

// errorMessage extracts the provider's error text from a failure body.
func errorMessage(raw []byte, status int) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return body.Error
	}
	if len(raw) > 0 {
		return string(raw)
	}
	return http.StatusText(status)
}
