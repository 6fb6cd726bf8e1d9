package db

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/pkorolev/reposage/internal/models"
)

type CommitStore struct {
	client *Client
}

func NewCommitStore(client *Client) *CommitStore {
	return &CommitStore{client: client}
}

// Upsert inserts or updates a commit keyed by (projectId, hash). The
// natural key is never duplicated; mutable fields are overwritten on
// re-sync.
func (s *CommitStore) Upsert(ctx context.Context, commit models.Commit) (models.Commit, error) {
	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (p:Project {id: $projectId})
			MERGE (c:Commit {projectId: $projectId, hash: $hash})
			SET c.message = $message,
			    c.authorName = $authorName,
			    c.authorAvatar = $authorAvatar,
			    c.summary = $summary,
			    c.committedAt = $committedAt
			MERGE (p)-[:HAS_COMMIT]->(c)
		`
		_, err := tx.Run(ctx, query, map[string]any{
			"projectId":    commit.ProjectID,
			"hash":         commit.Hash,
			"message":      commit.Message,
			"authorName":   commit.AuthorName,
			"authorAvatar": commit.AuthorAvatar,
			"summary":      commit.Summary,
			"committedAt":  commit.CommittedAt.UTC(),
		})
		return nil, err
	})

	if err != nil {
		return models.Commit{}, fmt.Errorf("failed to upsert commit %s: %w", commit.Hash, err)
	}
	return commit, nil
}

// ListByProject returns the project's commits, newest first.
func (s *CommitStore) ListByProject(ctx context.Context, projectID string, limit int) ([]models.Commit, error) {
	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (:Project {id: $projectId})-[:HAS_COMMIT]->(c:Commit)
			RETURN c.projectId AS projectId, c.hash AS hash, c.message AS message,
			       c.authorName AS authorName, c.authorAvatar AS authorAvatar,
			       c.summary AS summary, c.committedAt AS committedAt
			ORDER BY c.committedAt DESC
			LIMIT $limit
		`
		records, err := tx.Run(ctx, query, map[string]any{
			"projectId": projectID,
			"limit":     limit,
		})
		if err != nil {
			return nil, err
		}

		var commits []models.Commit
		for records.Next(ctx) {
			commits = append(commits, recordToCommit(records.Record()))
		}
		return commits, records.Err()
	})

	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return result.([]models.Commit), nil
}

func recordToCommit(record *neo4j.Record) models.Commit {
	commit := models.Commit{}

	if v, ok := record.Get("projectId"); ok && v != nil {
		commit.ProjectID = v.(string)
	}
	if v, ok := record.Get("hash"); ok && v != nil {
		commit.Hash = v.(string)
	}
	if v, ok := record.Get("message"); ok && v != nil {
		commit.Message = v.(string)
	}
	if v, ok := record.Get("authorName"); ok && v != nil {
		commit.AuthorName = v.(string)
	}
	if v, ok := record.Get("authorAvatar"); ok && v != nil {
		commit.AuthorAvatar = v.(string)
	}
	if v, ok := record.Get("summary"); ok && v != nil {
		commit.Summary = v.(string)
	}
	if v, ok := record.Get("committedAt"); ok && v != nil {
		if t, ok := v.(time.Time); ok {
			commit.CommittedAt = t
		}
	}

	return commit
}
