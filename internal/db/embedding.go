package db

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/pkorolev/reposage/internal/models"
)

// EmbeddingStore persists file vectors as plain node properties. The
// query path loads every vector for a project and ranks in Go: the
// store's own cosine index rescales scores to (cos+1)/2, which would
// break the raw-cosine contract downstream thresholds depend on.
type EmbeddingStore struct {
	client *Client
}

func NewEmbeddingStore(client *Client) *EmbeddingStore {
	return &EmbeddingStore{client: client}
}

// Save upserts a file embedding keyed by (projectId, fileName). Re-index
// replaces the record wholesale.
func (s *EmbeddingStore) Save(ctx context.Context, rec models.FileEmbedding) error {
	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (p:Project {id: $projectId})
			MERGE (e:FileEmbedding {projectId: $projectId, fileName: $fileName})
			SET e.summary = $summary,
			    e.sourceCode = $sourceCode,
			    e.outline = $outline,
			    e.vector = $vector
			MERGE (p)-[:HAS_EMBEDDING]->(e)
		`
		_, err := tx.Run(ctx, query, map[string]any{
			"projectId":  rec.ProjectID,
			"fileName":   rec.FileName,
			"summary":    rec.Summary,
			"sourceCode": rec.SourceCode,
			"outline":    rec.Outline,
			"vector":     float32sToAny(rec.Vector),
		})
		return nil, err
	})

	if err != nil {
		return fmt.Errorf("failed to save embedding for %s: %w", rec.FileName, err)
	}
	return nil
}

// LoadProject returns every indexed file for the project. An empty index
// yields an empty slice, not an error.
func (s *EmbeddingStore) LoadProject(ctx context.Context, projectID string) ([]models.FileEmbedding, error) {
	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (:Project {id: $projectId})-[:HAS_EMBEDDING]->(e:FileEmbedding)
			RETURN e.projectId AS projectId, e.fileName AS fileName,
			       e.summary AS summary, e.sourceCode AS sourceCode,
			       e.outline AS outline, e.vector AS vector
		`
		records, err := tx.Run(ctx, query, map[string]any{"projectId": projectID})
		if err != nil {
			return nil, err
		}

		var embeddings []models.FileEmbedding
		for records.Next(ctx) {
			embeddings = append(embeddings, recordToEmbedding(records.Record()))
		}
		return embeddings, records.Err()
	})

	if err != nil {
		return nil, err
	}
	if result == nil {
		return []models.FileEmbedding{}, nil
	}
	return result.([]models.FileEmbedding), nil
}

func recordToEmbedding(record *neo4j.Record) models.FileEmbedding {
	rec := models.FileEmbedding{}

	if v, ok := record.Get("projectId"); ok && v != nil {
		rec.ProjectID = v.(string)
	}
	if v, ok := record.Get("fileName"); ok && v != nil {
		rec.FileName = v.(string)
	}
	if v, ok := record.Get("summary"); ok && v != nil {
		rec.Summary = v.(string)
	}
	if v, ok := record.Get("sourceCode"); ok && v != nil {
		rec.SourceCode = v.(string)
	}
	if v, ok := record.Get("outline"); ok && v != nil {
		rec.Outline = v.(string)
	}
	if v, ok := record.Get("vector"); ok && v != nil {
		if list, ok := v.([]any); ok {
			rec.Vector = make([]float32, 0, len(list))
			for _, item := range list {
				if f, ok := item.(float64); ok {
					rec.Vector = append(rec.Vector, float32(f))
				}
			}
		}
	}

	return rec
}

// The driver round-trips lists as []any of float64.
func float32sToAny(vec []float32) []any {
	out := make([]any, len(vec))
	for i, f := range vec {
		out[i] = float64(f)
	}
	return out
}
