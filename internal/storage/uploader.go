// Package storage defines the object-storage contract the meeting flow
// needs: durable upload with progress reporting. The provider's wire
// details stay behind this interface.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ProgressFunc receives cumulative bytes sent against the total size.
type ProgressFunc func(sent, total int64)

// Uploader stores a binary object and returns a durable, externally
// resolvable URL.
type Uploader interface {
	Upload(ctx context.Context, name string, r io.Reader, size int64, progress ProgressFunc) (string, error)
}

type HTTPUploader struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPUploader(baseURL string) *HTTPUploader {
	return &HTTPUploader{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Minute,
		},
	}
}

type uploadResponse struct {
	URL string `json:"url"`
}

func (u *HTTPUploader) Upload(ctx context.Context, name string, r io.Reader, size int64, progress ProgressFunc) (string, error) {
	body := io.Reader(r)
	if progress != nil {
		body = &progressReader{r: r, total: size, report: progress}
	}

	req, err := http.NewRequestWithContext(ctx, "PUT", u.baseURL+"/objects/"+name, body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		payload, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("object storage error (status %d): %s", resp.StatusCode, string(payload))
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if out.URL == "" {
		return "", fmt.Errorf("object storage returned no URL")
	}
	return out.URL, nil
}

type progressReader struct {
	r      io.Reader
	sent   int64
	total  int64
	report ProgressFunc
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.sent += int64(n)
		p.report(p.sent, p.total)
	}
	return n, err
}
