// Package transcribe wraps an AssemblyAI-style transcription service:
// submit an audio URL, then poll the returned job until it settles.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkorolev/reposage/internal/jobs"
)

type Client struct {
	baseURL      string
	apiKey       string
	pollInterval time.Duration
	httpClient   *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:      baseURL,
		apiKey:       apiKey,
		pollInterval: 3 * time.Second,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type submitRequest struct {
	AudioURL string `json:"audio_url"`
}

type Transcript struct {
	ID     string `json:"id"`
	Status string `json:"status"` // queued, processing, completed, error
	Text   string `json:"text"`
	Error  string `json:"error"`
}

// Submit starts a transcription job and returns its id.
func (c *Client) Submit(ctx context.Context, audioURL string) (string, error) {
	reqBody, err := json.Marshal(submitRequest{AudioURL: audioURL})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v2/transcript", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to submit transcription: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("transcription service error (status %d): %s", resp.StatusCode, string(body))
	}

	var tr Transcript
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if tr.ID == "" {
		return "", fmt.Errorf("transcription service returned no job id")
	}
	return tr.ID, nil
}

// Get reads the current state of a transcription job.
func (c *Client) Get(ctx context.Context, id string) (*Transcript, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/v2/transcript/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcription: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("transcription service error (status %d): %s", resp.StatusCode, string(body))
	}

	var tr Transcript
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &tr, nil
}

// Transcribe submits the audio and blocks until the job settles,
// returning the transcript text. Transport failures while polling are
// retried with the standard job poll backoff; a job that settles in the
// error state is a terminal answer, not retried.
func (c *Client) Transcribe(ctx context.Context, audioURL string) (string, error) {
	id, err := c.Submit(ctx, audioURL)
	if err != nil {
		return "", err
	}

	for {
		tr, err := jobs.Poll(ctx, func(ctx context.Context) (*Transcript, error) {
			return c.Get(ctx, id)
		})
		if err != nil {
			return "", err
		}

		switch tr.Status {
		case "completed":
			return tr.Text, nil
		case "error":
			return "", fmt.Errorf("transcription failed: %s", tr.Error)
		}

		select {
		case <-time.After(c.pollInterval):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}
