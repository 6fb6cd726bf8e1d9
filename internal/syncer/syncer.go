// Package syncer keeps a project's commit log in step with its remote
// repository. Syncing is idempotent: re-running against identical remote
// state produces no changes.
package syncer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pkorolev/reposage/internal/models"
	"github.com/pkorolev/reposage/internal/retry"
)

// CommitLimit bounds how much history one sync fetches. A pagination and
// cost bound, not a domain limit.
const CommitLimit = 15

var syncsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "reposage_commit_syncs_total",
	Help: "Commit sync invocations by outcome.",
}, []string{"outcome"})

type HistoryProvider interface {
	ListCommits(ctx context.Context, repoURL, credential string, limit int) ([]models.CommitData, error)
}

type CommitStore interface {
	Upsert(ctx context.Context, commit models.Commit) (models.Commit, error)
	ListByProject(ctx context.Context, projectID string, limit int) ([]models.Commit, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, text string) string
}

type Engine struct {
	provider   HistoryProvider
	store      CommitStore
	summarizer Summarizer
	log        *slog.Logger
	retryOpts  retry.Options
}

func NewEngine(provider HistoryProvider, store CommitStore, summarizer Summarizer, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		provider:   provider,
		store:      store,
		summarizer: summarizer,
		log:        log,
		retryOpts:  retry.Options{Logger: log},
	}
}

// Sync fetches the most recent commits and upserts each one, keyed by
// (projectID, hash), through the retry executor. Any single upsert
// failure aborts the whole sync: the caller gets the error and no
// partial-batch success claim.
func (e *Engine) Sync(ctx context.Context, projectID, repoURL, credential string) ([]models.Commit, error) {
	fetched, err := e.provider.ListCommits(ctx, repoURL, credential, CommitLimit)
	if err != nil {
		syncsTotal.WithLabelValues("fetch_error").Inc()
		return nil, fmt.Errorf("failed to fetch commit history: %w", err)
	}

	saved := make([]models.Commit, 0, len(fetched))
	for _, data := range fetched {
		commit := models.Commit{
			ProjectID:    projectID,
			Hash:         data.Hash,
			Message:      data.Message,
			AuthorName:   data.AuthorName,
			AuthorAvatar: data.AuthorAvatar,
			Summary:      e.summarizer.Summarize(ctx, data.Message),
			CommittedAt:  data.CommittedAt,
		}

		persisted, err := retry.Do(ctx, func(ctx context.Context) (models.Commit, error) {
			return e.store.Upsert(ctx, commit)
		}, e.retryOpts)
		if err != nil {
			syncsTotal.WithLabelValues("store_error").Inc()
			return nil, fmt.Errorf("sync aborted at commit %s: %w", commit.Hash, err)
		}
		saved = append(saved, persisted)
	}

	e.log.Info("commit sync finished", "project", projectID, "commits", len(saved))
	syncsTotal.WithLabelValues("ok").Inc()
	return saved, nil
}

// ListCommits returns the project's persisted commits, newest first.
func (e *Engine) ListCommits(ctx context.Context, projectID string) ([]models.Commit, error) {
	return e.store.ListByProject(ctx, projectID, CommitLimit)
}
