// Package qa answers natural-language questions about a project,
// grounded in its indexed source files. Unlike summarization there is no
// degraded path here: an answer without real grounding would mislead,
// so model failures surface to the caller.
package qa

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pkorolev/reposage/internal/models"
)

var answersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "reposage_answers_total",
	Help: "Question-answering invocations by outcome.",
}, []string{"outcome"})

type Retriever interface {
	Query(ctx context.Context, projectID, question string, k int) ([]models.FileReference, error)
}

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type QuestionStore interface {
	Create(ctx context.Context, question models.Question) (models.Question, error)
	ListByProject(ctx context.Context, projectID string) ([]models.Question, error)
}

type Orchestrator struct {
	retriever Retriever
	generator Generator
	store     QuestionStore
	log       *slog.Logger
	topK      int
}

func NewOrchestrator(retriever Retriever, generator Generator, store QuestionStore, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		retriever: retriever,
		generator: generator,
		store:     store,
		log:       log,
	}
}

// Answer retrieves the most relevant files, asks the model for a
// markdown answer citing them, and appends the result to the project's
// question log. The persisted references are the ones actually used, so
// citations stay reproducible even if the index changes later.
func (o *Orchestrator) Answer(ctx context.Context, projectID, questionText, userID string) (models.Question, error) {
	refs, err := o.retriever.Query(ctx, projectID, questionText, o.topK)
	if err != nil {
		answersTotal.WithLabelValues("retrieval_error").Inc()
		return models.Question{}, fmt.Errorf("retrieval failed: %w", err)
	}

	answer, err := o.generator.Generate(ctx, buildPrompt(questionText, refs))
	if err != nil {
		answersTotal.WithLabelValues("generation_error").Inc()
		return models.Question{}, fmt.Errorf("answer generation failed: %w", err)
	}

	question, err := o.store.Create(ctx, models.Question{
		ProjectID:  projectID,
		UserID:     userID,
		Text:       questionText,
		Answer:     strings.TrimSpace(answer),
		References: refs,
	})
	if err != nil {
		answersTotal.WithLabelValues("store_error").Inc()
		return models.Question{}, fmt.Errorf("failed to persist question: %w", err)
	}

	o.log.Info("question answered", "project", projectID, "references", len(refs))
	answersTotal.WithLabelValues("ok").Inc()
	return question, nil
}

// List returns the project's question log, newest first.
func (o *Orchestrator) List(ctx context.Context, projectID string) ([]models.Question, error) {
	return o.store.ListByProject(ctx, projectID)
}

func buildPrompt(question string, refs []models.FileReference) string {
	var b strings.Builder

	b.WriteString("You are a senior engineer answering a question about a code repository.\n")
	b.WriteString("Answer in markdown and cite only the files provided below. ")
	if len(refs) == 0 {
		b.WriteString("No relevant files were found for this question; say that you cannot cite sources and keep the answer brief.\n")
	} else {
		b.WriteString("If the files do not contain the answer, say so instead of guessing.\n")
	}

	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n")

	for _, ref := range refs {
		b.WriteString("\n--- file: ")
		b.WriteString(ref.FileName)
		b.WriteString("\nrole: ")
		b.WriteString(ref.Summary)
		b.WriteString("\nsource:\n")
		b.WriteString(ref.Excerpt)
		b.WriteString("\n")
	}

	return b.String()
}
