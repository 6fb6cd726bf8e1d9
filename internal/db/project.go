package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/pkorolev/reposage/internal/jobs"
	"github.com/pkorolev/reposage/internal/models"
)

func CreateProject(ctx context.Context, client *Client, project *models.Project) (*models.Project, error) {
	project.ID = uuid.New().String()
	project.CreatedAt = time.Now().UTC()

	_, err := client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			CREATE (p:Project {
				id: $id,
				name: $name,
				repoUrl: $repoUrl,
				credential: $credential,
				syncStatus: '',
				createdAt: $createdAt
			})
		`
		_, err := tx.Run(ctx, query, map[string]any{
			"id":         project.ID,
			"name":       project.Name,
			"repoUrl":    project.RepoURL,
			"credential": project.Credential,
			"createdAt":  project.CreatedAt,
		})
		return nil, err
	})

	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return project, nil
}

func GetProject(ctx context.Context, client *Client, id string) (*models.Project, error) {
	result, err := client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (p:Project {id: $id})
			RETURN p.id AS id, p.name AS name, p.repoUrl AS repoUrl,
			       p.credential AS credential, p.syncStatus AS syncStatus,
			       p.createdAt AS createdAt
		`
		records, err := tx.Run(ctx, query, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}

		if records.Next(ctx) {
			return recordToProject(records.Record()), nil
		}
		return nil, records.Err()
	})

	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, ErrNotFound
	}
	return result.(*models.Project), nil
}

func ListProjects(ctx context.Context, client *Client) ([]*models.Project, error) {
	result, err := client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (p:Project)
			RETURN p.id AS id, p.name AS name, p.repoUrl AS repoUrl,
			       p.credential AS credential, p.syncStatus AS syncStatus,
			       p.createdAt AS createdAt
			ORDER BY p.createdAt DESC
		`
		records, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}

		var projects []*models.Project
		for records.Next(ctx) {
			projects = append(projects, recordToProject(records.Record()))
		}
		return projects, records.Err()
	})

	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return result.([]*models.Project), nil
}

// DeleteProject removes a project and everything it owns: commits,
// questions, meetings and file embeddings have no existence outside
// their project.
func DeleteProject(ctx context.Context, client *Client, id string) error {
	_, err := client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (p:Project {id: $id})
			OPTIONAL MATCH (p)-[:HAS_COMMIT|HAS_QUESTION|HAS_MEETING|HAS_EMBEDDING]->(owned)
			DETACH DELETE owned, p
		`
		_, err := tx.Run(ctx, query, map[string]any{"id": id})
		return nil, err
	})
	return err
}

// SetSyncStatus marks a sync job's lifecycle state on the project.
// Terminal states may only be written over PROCESSING (single writer);
// writing PROCESSING itself is unconditional since sync jobs start there.
func SetSyncStatus(ctx context.Context, client *Client, id string, status jobs.Status) error {
	if !status.IsTerminal() {
		_, err := client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			query := `MATCH (p:Project {id: $id}) SET p.syncStatus = $status`
			_, err := tx.Run(ctx, query, map[string]any{"id": id, "status": string(status)})
			return nil, err
		})
		return err
	}

	result, err := client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (p:Project {id: $id})
			WHERE p.syncStatus = $from
			SET p.syncStatus = $status
			RETURN count(p) AS updated
		`
		records, err := tx.Run(ctx, query, map[string]any{
			"id":     id,
			"from":   string(jobs.StatusProcessing),
			"status": string(status),
		})
		if err != nil {
			return nil, err
		}
		return countUpdated(ctx, records)
	})
	if err != nil {
		return err
	}
	if result.(int64) == 0 {
		return jobs.ErrInvalidTransition
	}
	return nil
}

func recordToProject(record *neo4j.Record) *models.Project {
	project := &models.Project{}

	if id, ok := record.Get("id"); ok && id != nil {
		project.ID = id.(string)
	}
	if name, ok := record.Get("name"); ok && name != nil {
		project.Name = name.(string)
	}
	if repoURL, ok := record.Get("repoUrl"); ok && repoURL != nil {
		project.RepoURL = repoURL.(string)
	}
	if credential, ok := record.Get("credential"); ok && credential != nil {
		project.Credential = credential.(string)
	}
	if status, ok := record.Get("syncStatus"); ok && status != nil {
		project.SyncStatus = status.(string)
	}
	if createdAt, ok := record.Get("createdAt"); ok && createdAt != nil {
		if t, ok := createdAt.(time.Time); ok {
			project.CreatedAt = t
		}
	}

	return project
}

func countUpdated(ctx context.Context, records neo4j.ResultWithContext) (int64, error) {
	if !records.Next(ctx) {
		if err := records.Err(); err != nil {
			return 0, err
		}
		return 0, nil
	}
	updated, _ := records.Record().Get("updated")
	n, _ := updated.(int64)
	return n, nil
}
