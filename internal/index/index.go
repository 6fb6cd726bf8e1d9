// Package index maintains per-project file embeddings and answers
// nearest-neighbor queries over them by raw cosine similarity.
package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/pkorolev/reposage/internal/models"
)

const (
	// DefaultTopK is how many file references a query returns.
	DefaultTopK = 5

	// Bounds on what gets persisted and cited. Excerpts are display
	// material, not the whole file.
	maxStoredSource = 10000
	maxExcerptLen   = 1200

	queryCacheSize = 256
	queryCacheTTL  = 5 * time.Minute
)

type Embedder interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

type VectorStore interface {
	Save(ctx context.Context, rec models.FileEmbedding) error
	LoadProject(ctx context.Context, projectID string) ([]models.FileEmbedding, error)
}

type CodeSummarizer interface {
	SummarizeCode(ctx context.Context, fileName, source string) string
}

type Index struct {
	store      VectorStore
	embedder   Embedder
	summarizer CodeSummarizer
	queryCache *expirable.LRU[string, []float32]
}

func New(store VectorStore, embedder Embedder, summarizer CodeSummarizer) *Index {
	return &Index{
		store:      store,
		embedder:   embedder,
		summarizer: summarizer,
		queryCache: expirable.NewLRU[string, []float32](queryCacheSize, nil, queryCacheTTL),
	}
}

// IndexFile summarizes, embeds and stores one source file, replacing any
// previous record for (projectID, fileName) wholesale.
func (ix *Index) IndexFile(ctx context.Context, projectID, fileName, content, outline string) error {
	source := content
	if len(source) > maxStoredSource {
		source = source[:maxStoredSource]
	}

	summary := ix.summarizer.SummarizeCode(ctx, fileName, source)

	vector, err := ix.embedder.EmbedOne(ctx, summary)
	if err != nil {
		return fmt.Errorf("failed to embed %s: %w", fileName, err)
	}

	return ix.store.Save(ctx, models.FileEmbedding{
		ProjectID:  projectID,
		FileName:   fileName,
		Summary:    summary,
		SourceCode: source,
		Outline:    outline,
		Vector:     vector,
	})
}

// Query embeds the question and ranks every indexed file of the project
// by raw cosine similarity, descending, ties broken by file name so
// results are deterministic. k <= 0 selects DefaultTopK. A project with
// nothing indexed returns an empty list, not an error.
func (ix *Index) Query(ctx context.Context, projectID, question string, k int) ([]models.FileReference, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	queryVec, err := ix.embedQuery(ctx, question)
	if err != nil {
		return nil, err
	}

	records, err := ix.store.LoadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []models.FileReference{}, nil
	}

	refs := make([]models.FileReference, 0, len(records))
	for _, rec := range records {
		score := Cosine(queryVec, rec.Vector)
		if score < 0 {
			score = 0
		}
		refs = append(refs, models.FileReference{
			FileName:   rec.FileName,
			Summary:    rec.Summary,
			Excerpt:    excerpt(rec.SourceCode),
			Similarity: score,
		})
	}

	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Similarity != refs[j].Similarity {
			return refs[i].Similarity > refs[j].Similarity
		}
		return refs[i].FileName < refs[j].FileName
	})

	if len(refs) > k {
		refs = refs[:k]
	}
	return refs, nil
}

func (ix *Index) embedQuery(ctx context.Context, question string) ([]float32, error) {
	if vec, ok := ix.queryCache.Get(question); ok {
		return vec, nil
	}
	vec, err := ix.embedder.EmbedOne(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}
	ix.queryCache.Add(question, vec)
	return vec, nil
}

// Cosine returns the raw cosine similarity of two vectors. Mismatched or
// zero-magnitude vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func excerpt(source string) string {
	if len(source) > maxExcerptLen {
		return source[:maxExcerptLen]
	}
	return source
}
