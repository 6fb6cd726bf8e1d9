package qa

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkorolev/reposage/internal/models"
)

type stubRetriever struct {
	refs []models.FileReference
	err  error
}

func (s *stubRetriever) Query(ctx context.Context, projectID, question string, k int) ([]models.FileReference, error) {
	return s.refs, s.err
}

type stubGenerator struct {
	answer string
	err    error
	prompt string
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.answer, s.err
}

type memQuestionStore struct {
	created []models.Question
	err     error
}

func (m *memQuestionStore) Create(ctx context.Context, q models.Question) (models.Question, error) {
	if m.err != nil {
		return models.Question{}, m.err
	}
	q.ID = "q-1"
	m.created = append(m.created, q)
	return q, nil
}

func (m *memQuestionStore) ListByProject(ctx context.Context, projectID string) ([]models.Question, error) {
	return m.created, nil
}

func TestAnswer_PersistsAnswerWithReferences(t *testing.T) {
	refs := []models.FileReference{
		{FileName: "auth.ts", Summary: "token validation", Excerpt: "function verify() {}", Similarity: 0.91},
		{FileName: "billing.ts", Summary: "invoice math", Excerpt: "function total() {}", Similarity: 0.42},
	}
	retriever := &stubRetriever{refs: refs}
	generator := &stubGenerator{answer: "Auth happens in `auth.ts`.\n"}
	store := &memQuestionStore{}
	orch := NewOrchestrator(retriever, generator, store, nil)

	question, err := orch.Answer(context.Background(), "p1", "How does authentication work?", "u1")
	require.NoError(t, err)

	assert.Equal(t, "q-1", question.ID)
	assert.Equal(t, "Auth happens in `auth.ts`.", question.Answer, "answer is trimmed")
	assert.Equal(t, refs, question.References)

	require.Len(t, store.created, 1)
	assert.Equal(t, refs, store.created[0].References, "persisted references match the ones used")
	assert.Equal(t, "u1", store.created[0].UserID)
}

func TestAnswer_PromptCarriesRetrievedFiles(t *testing.T) {
	retriever := &stubRetriever{refs: []models.FileReference{
		{FileName: "auth.ts", Summary: "token validation", Excerpt: "function verify() {}"},
	}}
	generator := &stubGenerator{answer: "ok"}
	orch := NewOrchestrator(retriever, generator, &memQuestionStore{}, nil)

	_, err := orch.Answer(context.Background(), "p1", "How does authentication work?", "u1")
	require.NoError(t, err)

	assert.Contains(t, generator.prompt, "How does authentication work?")
	assert.Contains(t, generator.prompt, "auth.ts")
	assert.Contains(t, generator.prompt, "token validation")
	assert.Contains(t, generator.prompt, "function verify() {}")
}

func TestAnswer_RetrievalFailurePersistsNothing(t *testing.T) {
	retriever := &stubRetriever{err: errors.New("store down")}
	store := &memQuestionStore{}
	orch := NewOrchestrator(retriever, &stubGenerator{answer: "ok"}, store, nil)

	_, err := orch.Answer(context.Background(), "p1", "anything", "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retrieval failed")
	assert.Empty(t, store.created)
}

func TestAnswer_GenerationFailurePersistsNothing(t *testing.T) {
	retriever := &stubRetriever{refs: []models.FileReference{{FileName: "auth.ts"}}}
	generator := &stubGenerator{err: errors.New("model overloaded")}
	store := &memQuestionStore{}
	orch := NewOrchestrator(retriever, generator, store, nil)

	_, err := orch.Answer(context.Background(), "p1", "anything", "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "answer generation failed")
	assert.Empty(t, store.created, "no degraded answer is recorded")
}

func TestAnswer_ZeroReferencesStillAnswers(t *testing.T) {
	retriever := &stubRetriever{refs: nil}
	generator := &stubGenerator{answer: "I cannot cite any sources for this."}
	store := &memQuestionStore{}
	orch := NewOrchestrator(retriever, generator, store, nil)

	question, err := orch.Answer(context.Background(), "p1", "anything", "u1")
	require.NoError(t, err)
	assert.Empty(t, question.References)
	assert.Contains(t, generator.prompt, "No relevant files were found")
}

func TestAnswer_StoreFailurePropagates(t *testing.T) {
	retriever := &stubRetriever{refs: nil}
	store := &memQuestionStore{err: errors.New("write conflict")}
	orch := NewOrchestrator(retriever, &stubGenerator{answer: "ok"}, store, nil)

	_, err := orch.Answer(context.Background(), "p1", "anything", "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to persist question")
}
