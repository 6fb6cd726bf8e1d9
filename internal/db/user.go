package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/pkorolev/reposage/internal/models"
)

type UserStore struct {
	client *Client
}

func NewUserStore(client *Client) *UserStore {
	return &UserStore{client: client}
}

// Upsert mirrors an identity-provider payload into the local user record,
// keyed on email. Safe to call on every sign-in.
func (s *UserStore) Upsert(ctx context.Context, identity models.IdentityPayload) (models.User, error) {
	if identity.Email == "" {
		return models.User{}, fmt.Errorf("identity payload has no email")
	}

	result, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MERGE (u:User {email: $email})
			ON CREATE SET u.id = $id, u.createdAt = $createdAt
			SET u.firstName = $firstName,
			    u.lastName = $lastName,
			    u.avatarUrl = $avatarUrl
			RETURN u.id AS id, u.email AS email, u.firstName AS firstName,
			       u.lastName AS lastName, u.avatarUrl AS avatarUrl,
			       u.createdAt AS createdAt
		`
		records, err := tx.Run(ctx, query, map[string]any{
			"email":     identity.Email,
			"id":        uuid.New().String(),
			"createdAt": time.Now().UTC(),
			"firstName": identity.FirstName,
			"lastName":  identity.LastName,
			"avatarUrl": identity.AvatarURL,
		})
		if err != nil {
			return nil, err
		}

		if records.Next(ctx) {
			return recordToUser(records.Record()), nil
		}
		return nil, records.Err()
	})

	if err != nil {
		return models.User{}, fmt.Errorf("failed to upsert user: %w", err)
	}
	if result == nil {
		return models.User{}, fmt.Errorf("user upsert returned no record")
	}
	return result.(models.User), nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (u:User {email: $email})
			RETURN u.id AS id, u.email AS email, u.firstName AS firstName,
			       u.lastName AS lastName, u.avatarUrl AS avatarUrl,
			       u.createdAt AS createdAt
		`
		records, err := tx.Run(ctx, query, map[string]any{"email": email})
		if err != nil {
			return nil, err
		}

		if records.Next(ctx) {
			user := recordToUser(records.Record())
			return &user, nil
		}
		return nil, records.Err()
	})

	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, ErrNotFound
	}
	return result.(*models.User), nil
}

func recordToUser(record *neo4j.Record) models.User {
	user := models.User{}

	if v, ok := record.Get("id"); ok && v != nil {
		user.ID = v.(string)
	}
	if v, ok := record.Get("email"); ok && v != nil {
		user.Email = v.(string)
	}
	if v, ok := record.Get("firstName"); ok && v != nil {
		user.FirstName = v.(string)
	}
	if v, ok := record.Get("lastName"); ok && v != nil {
		user.LastName = v.(string)
	}
	if v, ok := record.Get("avatarUrl"); ok && v != nil {
		user.AvatarURL = v.(string)
	}
	if v, ok := record.Get("createdAt"); ok && v != nil {
		if t, ok := v.(time.Time); ok {
			user.CreatedAt = t
		}
	}

	return user
}
