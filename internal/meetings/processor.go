// Package meetings runs the asynchronous post-upload pipeline for a
// meeting: transcribe the audio, summarize the transcript, and settle
// the meeting's job state exactly once.
package meetings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pkorolev/reposage/internal/jobs"
	"github.com/pkorolev/reposage/internal/models"
)

var processedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "reposage_meetings_processed_total",
	Help: "Meeting processing runs by outcome.",
}, []string{"outcome"})

type Transcriber interface {
	Transcribe(ctx context.Context, audioURL string) (string, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, text string) string
}

type MeetingStore interface {
	Create(ctx context.Context, meeting models.Meeting) (models.Meeting, error)
	Complete(ctx context.Context, id, transcription, summary string) error
	Fail(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*models.Meeting, error)
	ListByProject(ctx context.Context, projectID string) ([]models.Meeting, error)
}

type Processor struct {
	store       MeetingStore
	transcriber Transcriber
	summarizer  Summarizer
	log         *slog.Logger
}

func NewProcessor(store MeetingStore, transcriber Transcriber, summarizer Summarizer, log *slog.Logger) *Processor {
	if log == nil {
		log = slog.Default()
	}
	return &Processor{
		store:       store,
		transcriber: transcriber,
		summarizer:  summarizer,
		log:         log,
	}
}

// Create registers a meeting in PROCESSING state at upload completion.
func (p *Processor) Create(ctx context.Context, projectID string, input models.CreateMeetingInput) (models.Meeting, error) {
	if input.Name == "" || input.AudioURL == "" {
		return models.Meeting{}, fmt.Errorf("meeting name and audio URL are required")
	}
	return p.store.Create(ctx, models.Meeting{
		ProjectID: projectID,
		Name:      input.Name,
		AudioURL:  input.AudioURL,
	})
}

// Process runs the pipeline to a terminal state. The store's conditional
// transition guarantees at most one writer settles the meeting; losing
// that race is reported as jobs.ErrInvalidTransition.
func (p *Processor) Process(ctx context.Context, meetingID, audioURL string) error {
	transcription, err := p.transcriber.Transcribe(ctx, audioURL)
	if err != nil {
		p.fail(ctx, meetingID)
		processedTotal.WithLabelValues("transcription_error").Inc()
		return fmt.Errorf("transcription failed for meeting %s: %w", meetingID, err)
	}

	summary := p.summarizer.Summarize(ctx, transcription)

	if err := p.store.Complete(ctx, meetingID, transcription, summary); err != nil {
		if errors.Is(err, jobs.ErrInvalidTransition) {
			p.log.Warn("meeting already settled", "meeting", meetingID)
			processedTotal.WithLabelValues("lost_race").Inc()
			return err
		}
		processedTotal.WithLabelValues("store_error").Inc()
		return fmt.Errorf("failed to complete meeting %s: %w", meetingID, err)
	}

	p.log.Info("meeting processed", "meeting", meetingID)
	processedTotal.WithLabelValues("ok").Inc()
	return nil
}

func (p *Processor) fail(ctx context.Context, meetingID string) {
	if err := p.store.Fail(ctx, meetingID); err != nil && !errors.Is(err, jobs.ErrInvalidTransition) {
		p.log.Error("failed to mark meeting failed", "meeting", meetingID, "error", err)
	}
}

func (p *Processor) Get(ctx context.Context, id string) (*models.Meeting, error) {
	return p.store.Get(ctx, id)
}

func (p *Processor) ListByProject(ctx context.Context, projectID string) ([]models.Meeting, error) {
	return p.store.ListByProject(ctx, projectID)
}
