package models

import "time"

// User is a read-mostly mirror of an external identity, keyed on email.
// The identity provider stays authoritative; syncing is an idempotent
// upsert.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	AvatarURL string    `json:"avatarUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// IdentityPayload is what the identity provider hands us on sign-in.
type IdentityPayload struct {
	ExternalID string `json:"externalId"`
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	AvatarURL  string `json:"avatarUrl"`
}
