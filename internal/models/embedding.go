package models

// FileEmbedding is an indexed source file, keyed by (ProjectID, FileName)
// and replaced wholesale on re-index.
type FileEmbedding struct {
	ProjectID  string    `json:"projectId"`
	FileName   string    `json:"fileName"`
	Summary    string    `json:"summary"`
	SourceCode string    `json:"sourceCode"`
	Outline    string    `json:"outline,omitempty"`
	Vector     []float32 `json:"-"`
}
