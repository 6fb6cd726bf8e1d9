package models

import (
	"time"

	"github.com/pkorolev/reposage/internal/jobs"
)

// Meeting is created in PROCESSING as soon as its audio upload finishes
// and transitions exactly once to COMPLETED or FAILED. Status and content
// never disagree: COMPLETED implies Transcription and Summary are set,
// FAILED implies neither is trusted.
type Meeting struct {
	ID            string      `json:"id"`
	ProjectID     string      `json:"projectId"`
	Name          string      `json:"name"`
	AudioURL      string      `json:"audioUrl"`
	Transcription string      `json:"transcription,omitempty"`
	Summary       string      `json:"summary,omitempty"`
	Status        jobs.Status `json:"status"`
	CreatedAt     time.Time   `json:"createdAt"`
}

type CreateMeetingInput struct {
	Name     string `json:"name"`
	AudioURL string `json:"audioUrl"`
}
