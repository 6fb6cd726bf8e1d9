package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/pkorolev/reposage/internal/models"
)

type QuestionStore struct {
	client *Client
}

func NewQuestionStore(client *Client) *QuestionStore {
	return &QuestionStore{client: client}
}

// Create appends a question to the project's Q&A log. Questions are
// immutable; the file references are serialized onto the node as JSON
// since they are not separately addressable.
func (s *QuestionStore) Create(ctx context.Context, question models.Question) (models.Question, error) {
	if question.ID == "" {
		question.ID = uuid.New().String()
	}
	question.CreatedAt = time.Now().UTC()

	refsJSON, err := json.Marshal(question.References)
	if err != nil {
		return models.Question{}, fmt.Errorf("failed to serialize file references: %w", err)
	}

	_, err = s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (p:Project {id: $projectId})
			CREATE (q:Question {
				id: $id,
				projectId: $projectId,
				userId: $userId,
				text: $text,
				answer: $answer,
				references: $references,
				createdAt: $createdAt
			})
			CREATE (p)-[:HAS_QUESTION]->(q)
		`
		_, err := tx.Run(ctx, query, map[string]any{
			"id":         question.ID,
			"projectId":  question.ProjectID,
			"userId":     question.UserID,
			"text":       question.Text,
			"answer":     question.Answer,
			"references": string(refsJSON),
			"createdAt":  question.CreatedAt,
		})
		return nil, err
	})

	if err != nil {
		return models.Question{}, fmt.Errorf("failed to create question: %w", err)
	}
	return question, nil
}

// ListByProject returns the project's questions, newest first.
func (s *QuestionStore) ListByProject(ctx context.Context, projectID string) ([]models.Question, error) {
	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (:Project {id: $projectId})-[:HAS_QUESTION]->(q:Question)
			RETURN q.id AS id, q.projectId AS projectId, q.userId AS userId,
			       q.text AS text, q.answer AS answer,
			       q.references AS references, q.createdAt AS createdAt
			ORDER BY q.createdAt DESC
		`
		records, err := tx.Run(ctx, query, map[string]any{"projectId": projectID})
		if err != nil {
			return nil, err
		}

		var questions []models.Question
		for records.Next(ctx) {
			questions = append(questions, recordToQuestion(records.Record()))
		}
		return questions, records.Err()
	})

	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return result.([]models.Question), nil
}

func recordToQuestion(record *neo4j.Record) models.Question {
	question := models.Question{}

	if v, ok := record.Get("id"); ok && v != nil {
		question.ID = v.(string)
	}
	if v, ok := record.Get("projectId"); ok && v != nil {
		question.ProjectID = v.(string)
	}
	if v, ok := record.Get("userId"); ok && v != nil {
		question.UserID = v.(string)
	}
	if v, ok := record.Get("text"); ok && v != nil {
		question.Text = v.(string)
	}
	if v, ok := record.Get("answer"); ok && v != nil {
		question.Answer = v.(string)
	}
	if v, ok := record.Get("references"); ok && v != nil {
		if raw, ok := v.(string); ok && raw != "" {
			if err := json.Unmarshal([]byte(raw), &question.References); err != nil {
				slog.Warn("corrupt file references on question",
					"question", question.ID, "error", err)
			}
		}
	}
	if v, ok := record.Get("createdAt"); ok && v != nil {
		if t, ok := v.(time.Time); ok {
			question.CreatedAt = t
		}
	}

	return question
}
