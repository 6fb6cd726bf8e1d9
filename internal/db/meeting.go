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

type MeetingStore struct {
	client *Client
}

func NewMeetingStore(client *Client) *MeetingStore {
	return &MeetingStore{client: client}
}

// Create persists a new meeting in PROCESSING state, as of upload
// completion.
func (s *MeetingStore) Create(ctx context.Context, meeting models.Meeting) (models.Meeting, error) {
	meeting.ID = uuid.New().String()
	meeting.Status = jobs.StatusProcessing
	meeting.CreatedAt = time.Now().UTC()

	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (p:Project {id: $projectId})
			CREATE (m:Meeting {
				id: $id,
				projectId: $projectId,
				name: $name,
				audioUrl: $audioUrl,
				transcription: '',
				summary: '',
				status: $status,
				createdAt: $createdAt
			})
			CREATE (p)-[:HAS_MEETING]->(m)
		`
		_, err := tx.Run(ctx, query, map[string]any{
			"id":        meeting.ID,
			"projectId": meeting.ProjectID,
			"name":      meeting.Name,
			"audioUrl":  meeting.AudioURL,
			"status":    string(meeting.Status),
			"createdAt": meeting.CreatedAt,
		})
		return nil, err
	})

	if err != nil {
		return models.Meeting{}, fmt.Errorf("failed to create meeting: %w", err)
	}
	return meeting, nil
}

// Complete transitions PROCESSING -> COMPLETED, writing transcription and
// summary in the same conditional update so status and content cannot
// disagree. The WHERE clause on the current status is the at-most-one-
// writer guard: of any concurrent terminal writers, exactly one matches.
func (s *MeetingStore) Complete(ctx context.Context, id, transcription, summary string) error {
	return s.transition(ctx, id, jobs.StatusCompleted, map[string]any{
		"transcription": transcription,
		"summary":       summary,
	})
}

// Fail transitions PROCESSING -> FAILED. No partial content is kept.
func (s *MeetingStore) Fail(ctx context.Context, id string) error {
	return s.transition(ctx, id, jobs.StatusFailed, map[string]any{
		"transcription": "",
		"summary":       "",
	})
}

func (s *MeetingStore) transition(ctx context.Context, id string, to jobs.Status, content map[string]any) error {
	if !jobs.StatusProcessing.CanTransitionTo(to) {
		return jobs.ErrInvalidTransition
	}

	result, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (m:Meeting {id: $id})
			WHERE m.status = $from
			SET m.status = $to,
			    m.transcription = $transcription,
			    m.summary = $summary
			RETURN count(m) AS updated
		`
		records, err := tx.Run(ctx, query, map[string]any{
			"id":            id,
			"from":          string(jobs.StatusProcessing),
			"to":            string(to),
			"transcription": content["transcription"],
			"summary":       content["summary"],
		})
		if err != nil {
			return nil, err
		}
		return countUpdated(ctx, records)
	})
	if err != nil {
		return fmt.Errorf("failed to transition meeting %s: %w", id, err)
	}
	if result.(int64) == 0 {
		return jobs.ErrInvalidTransition
	}
	return nil
}

func (s *MeetingStore) Get(ctx context.Context, id string) (*models.Meeting, error) {
	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (m:Meeting {id: $id})
			RETURN m.id AS id, m.projectId AS projectId, m.name AS name,
			       m.audioUrl AS audioUrl, m.transcription AS transcription,
			       m.summary AS summary, m.status AS status,
			       m.createdAt AS createdAt
		`
		records, err := tx.Run(ctx, query, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}

		if records.Next(ctx) {
			return recordToMeeting(records.Record()), nil
		}
		return nil, records.Err()
	})

	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, ErrNotFound
	}
	return result.(*models.Meeting), nil
}

// ListByProject returns the project's meetings, newest first.
func (s *MeetingStore) ListByProject(ctx context.Context, projectID string) ([]models.Meeting, error) {
	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (:Project {id: $projectId})-[:HAS_MEETING]->(m:Meeting)
			RETURN m.id AS id, m.projectId AS projectId, m.name AS name,
			       m.audioUrl AS audioUrl, m.transcription AS transcription,
			       m.summary AS summary, m.status AS status,
			       m.createdAt AS createdAt
			ORDER BY m.createdAt DESC
		`
		records, err := tx.Run(ctx, query, map[string]any{"projectId": projectID})
		if err != nil {
			return nil, err
		}

		var meetings []models.Meeting
		for records.Next(ctx) {
			meetings = append(meetings, *recordToMeeting(records.Record()))
		}
		return meetings, records.Err()
	})

	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return result.([]models.Meeting), nil
}

func recordToMeeting(record *neo4j.Record) *models.Meeting {
	meeting := &models.Meeting{}

	if v, ok := record.Get("id"); ok && v != nil {
		meeting.ID = v.(string)
	}
	if v, ok := record.Get("projectId"); ok && v != nil {
		meeting.ProjectID = v.(string)
	}
	if v, ok := record.Get("name"); ok && v != nil {
		meeting.Name = v.(string)
	}
	if v, ok := record.Get("audioUrl"); ok && v != nil {
		meeting.AudioURL = v.(string)
	}
	if v, ok := record.Get("transcription"); ok && v != nil {
		meeting.Transcription = v.(string)
	}
	if v, ok := record.Get("summary"); ok && v != nil {
		meeting.Summary = v.(string)
	}
	if v, ok := record.Get("status"); ok && v != nil {
		if status, err := jobs.Parse(v.(string)); err == nil {
			meeting.Status = status
		}
	}
	if v, ok := record.Get("createdAt"); ok && v != nil {
		if t, ok := v.(time.Time); ok {
			meeting.CreatedAt = t
		}
	}

	return meeting
}
