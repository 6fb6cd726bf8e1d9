package models

import "time"

type Project struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	RepoURL    string    `json:"repoUrl,omitempty"`
	Credential string    `json:"-"`
	SyncStatus string    `json:"syncStatus,omitempty"` // jobs.Status of the last sync, empty if never synced
	CreatedAt  time.Time `json:"createdAt"`
}

type CreateProjectInput struct {
	Name       string `json:"name"`
	RepoURL    string `json:"repoUrl"`
	Credential string `json:"credential"`
}
