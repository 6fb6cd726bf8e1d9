package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkorolev/reposage/internal/models"
)

type stubEmbedder struct {
	vectors map[string][]float32
	calls   int
}

func (s *stubEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	s.calls++
	vec, ok := s.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no stub vector for %q", text)
	}
	return vec, nil
}

type memStore struct {
	records map[string]models.FileEmbedding // keyed projectID+"/"+fileName
	loadErr error
}

func newMemStore() *memStore {
	return &memStore{records: map[string]models.FileEmbedding{}}
}

func (m *memStore) Save(ctx context.Context, rec models.FileEmbedding) error {
	m.records[rec.ProjectID+"/"+rec.FileName] = rec
	return nil
}

func (m *memStore) LoadProject(ctx context.Context, projectID string) ([]models.FileEmbedding, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	var out []models.FileEmbedding
	for _, rec := range m.records {
		if rec.ProjectID == projectID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type stubSummarizer struct{}

func (stubSummarizer) SummarizeCode(ctx context.Context, fileName, source string) string {
	return "Role of " + fileName
}

// vectorWithCosine builds a 2-d unit vector whose cosine similarity to
// (1, 0) is exactly c.
func vectorWithCosine(c float64) []float32 {
	return []float32{float32(c), float32(math.Sqrt(1 - c*c))}
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, Cosine([]float32{1, 0}, []float32{1}), "mismatched dimensions")
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 0}), "zero magnitude")
}

func TestQuery_RanksByRawCosineDescending(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"how does login work?": {1, 0},
		"Role of auth.ts":      vectorWithCosine(0.91),
		"Role of billing.ts":   vectorWithCosine(0.42),
	}}
	store := newMemStore()
	ix := New(store, embedder, stubSummarizer{})

	require.NoError(t, ix.IndexFile(context.Background(), "p1", "auth.ts", "export function login() {}", ""))
	require.NoError(t, ix.IndexFile(context.Background(), "p1", "billing.ts", "export function charge() {}", ""))

	refs, err := ix.Query(context.Background(), "p1", "how does login work?", 2)
	require.NoError(t, err)
	require.Len(t, refs, 2)

	assert.Equal(t, "auth.ts", refs[0].FileName)
	assert.InDelta(t, 0.91, refs[0].Similarity, 1e-6)
	assert.Equal(t, "billing.ts", refs[1].FileName)
	assert.InDelta(t, 0.42, refs[1].Similarity, 1e-6)

	for i := 0; i < len(refs)-1; i++ {
		assert.GreaterOrEqual(t, refs[i].Similarity, refs[i+1].Similarity)
	}
}

func TestQuery_TiesBrokenByFileName(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"q":            {1, 0},
		"Role of b.go": {1, 0},
		"Role of a.go": {1, 0},
		"Role of c.go": {1, 0},
	}}
	store := newMemStore()
	ix := New(store, embedder, stubSummarizer{})

	for _, name := range []string{"b.go", "a.go", "c.go"} {
		require.NoError(t, ix.IndexFile(context.Background(), "p1", name, "package x", ""))
	}

	refs, err := ix.Query(context.Background(), "p1", "q", 3)
	require.NoError(t, err)
	require.Len(t, refs, 3)
	assert.Equal(t, "a.go", refs[0].FileName)
	assert.Equal(t, "b.go", refs[1].FileName)
	assert.Equal(t, "c.go", refs[2].FileName)
}

func TestQuery_EmptyIndexIsNotAnError(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{"q": {1, 0}}}
	ix := New(newMemStore(), embedder, stubSummarizer{})

	refs, err := ix.Query(context.Background(), "empty-project", "q", 5)
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestQuery_NegativeSimilarityClampedToZero(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"q":            {1, 0},
		"Role of x.go": {-1, 0},
	}}
	store := newMemStore()
	ix := New(store, embedder, stubSummarizer{})
	require.NoError(t, ix.IndexFile(context.Background(), "p1", "x.go", "package x", ""))

	refs, err := ix.Query(context.Background(), "p1", "q", 1)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, 0.0, refs[0].Similarity)
}

func TestQuery_TruncatesToK(t *testing.T) {
	vectors := map[string][]float32{"q": {1, 0}}
	store := newMemStore()
	for i := 0; i < 10; i++ {
		name := fmt.Sprintf("f%02d.go", i)
		vectors["Role of "+name] = vectorWithCosine(0.1 + float64(i)*0.05)
	}
	embedder := &stubEmbedder{vectors: vectors}
	ix := New(store, embedder, stubSummarizer{})
	for i := 0; i < 10; i++ {
		name := fmt.Sprintf("f%02d.go", i)
		require.NoError(t, ix.IndexFile(context.Background(), "p1", name, "package x", ""))
	}

	refs, err := ix.Query(context.Background(), "p1", "q", 0)
	require.NoError(t, err)
	assert.Len(t, refs, DefaultTopK, "k <= 0 selects the default")
}

func TestIndexFile_ReplacesRecordWholesale(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"Role of a.go": {1, 0},
	}}
	store := newMemStore()
	ix := New(store, embedder, stubSummarizer{})

	require.NoError(t, ix.IndexFile(context.Background(), "p1", "a.go", "package old", ""))
	require.NoError(t, ix.IndexFile(context.Background(), "p1", "a.go", "package new", "func New"))

	require.Len(t, store.records, 1)
	rec := store.records["p1/a.go"]
	assert.Equal(t, "package new", rec.SourceCode)
	assert.Equal(t, "func New", rec.Outline)
}

func TestQuery_CachesQueryEmbedding(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{"q": {1, 0}}}
	ix := New(newMemStore(), embedder, stubSummarizer{})

	_, err := ix.Query(context.Background(), "p1", "q", 5)
	require.NoError(t, err)
	_, err = ix.Query(context.Background(), "p1", "q", 5)
	require.NoError(t, err)

	assert.Equal(t, 1, embedder.calls, "second query hits the cache")
}

func TestQuery_StoreFailurePropagates(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{"q": {1, 0}}}
	store := newMemStore()
	store.loadErr = errors.New("store unavailable")
	ix := New(store, embedder, stubSummarizer{})

	_, err := ix.Query(context.Background(), "p1", "q", 5)
	assert.Error(t, err)
}

func TestExcerptBounded(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"q":              {1, 0},
		"Role of big.go": {1, 0},
	}}
	store := newMemStore()
	ix := New(store, embedder, stubSummarizer{})

	big := strings.Repeat("a", 50000)
	require.NoError(t, ix.IndexFile(context.Background(), "p1", "big.go", big, ""))

	refs, err := ix.Query(context.Background(), "p1", "q", 1)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.LessOrEqual(t, len(refs[0].Excerpt), maxExcerptLen)
}
