// Package gitremote fetches commit history from a GitHub-compatible
// REST API. Reads only; the caller classifies failures as transient or
// permanent.
package gitremote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkorolev/reposage/internal/models"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type commitRecord struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name string    `json:"name"`
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
	Author *struct {
		AvatarURL string `json:"avatar_url"`
	} `json:"author"`
}

// ListCommits returns up to limit most-recent commits for the repository,
// newest first, as the provider orders them. credential is an optional
// access token.
func (c *Client) ListCommits(ctx context.Context, repoURL, credential string, limit int) ([]models.CommitData, error) {
	owner, repo, err := ParseOwnerRepo(repoURL)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/repos/%s/%s/commits?per_page=%d", c.baseURL, owner, repo, limit)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch commits: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("history provider error (status %d): %s", resp.StatusCode, string(body))
	}

	var records []commitRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode commits: %w", err)
	}

	commits := make([]models.CommitData, 0, len(records))
	for _, rec := range records {
		commit := models.CommitData{
			Hash:        rec.SHA,
			Message:     rec.Commit.Message,
			AuthorName:  rec.Commit.Author.Name,
			CommittedAt: rec.Commit.Author.Date,
		}
		if rec.Author != nil {
			commit.AuthorAvatar = rec.Author.AvatarURL
		}
		commits = append(commits, commit)
	}
	return commits, nil
}

// ParseOwnerRepo extracts the owner and repository name from an HTTPS or
// SSH repository URL.
func ParseOwnerRepo(repoURL string) (string, string, error) {
	url := strings.TrimSuffix(strings.TrimSpace(repoURL), ".git")
	url = strings.TrimSuffix(url, "/")

	// SSH form: git@host:owner/repo. The colon must follow the "@";
	// a colon in the userinfo part alone is not an SSH path separator.
	if at := strings.Index(url, "@"); at >= 0 && strings.Contains(url[at+1:], ":") && !strings.Contains(url, "://") {
		url = strings.SplitN(url[at+1:], ":", 2)[1]
	} else if idx := strings.Index(url, "://"); idx >= 0 {
		// HTTPS form: scheme://host/owner/repo
		rest := url[idx+3:]
		slash := strings.Index(rest, "/")
		if slash < 0 {
			return "", "", fmt.Errorf("repository URL %q has no path", repoURL)
		}
		url = rest[slash+1:]
	}

	parts := strings.Split(url, "/")
	if len(parts) < 2 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return "", "", fmt.Errorf("cannot parse owner/repo from %q", repoURL)
	}
	return parts[len(parts)-2], parts[len(parts)-1], nil
}
