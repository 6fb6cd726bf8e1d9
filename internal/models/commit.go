package models

import "time"

// Commit is a persisted commit record, unique per (ProjectID, Hash).
// Re-syncing updates the mutable fields but never duplicates the record.
type Commit struct {
	ProjectID    string    `json:"projectId"`
	Hash         string    `json:"hash"`
	Message      string    `json:"message"`
	AuthorName   string    `json:"authorName"`
	AuthorAvatar string    `json:"authorAvatar"`
	Summary      string    `json:"summary"`
	CommittedAt  time.Time `json:"committedAt"`
}

// CommitData is a raw commit as fetched from the remote history provider.
type CommitData struct {
	Hash         string    `json:"hash"`
	Message      string    `json:"message"`
	AuthorName   string    `json:"authorName"`
	AuthorAvatar string    `json:"authorAvatar"`
	CommittedAt  time.Time `json:"committedAt"`
}
