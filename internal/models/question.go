package models

import "time"

// Question is an append-only Q&A record. Once created it is never
// updated; the References list is the citation set that produced the
// answer, frozen even if the index changes later.
type Question struct {
	ID         string          `json:"id"`
	ProjectID  string          `json:"projectId"`
	UserID     string          `json:"userId"`
	Text       string          `json:"text"`
	Answer     string          `json:"answer"` // markdown
	References []FileReference `json:"references"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// FileReference is a cited source file, embedded in a Question. The
// slice it appears in is ordered by descending Similarity; that ordering
// is a display and ranking invariant.
type FileReference struct {
	FileName   string  `json:"fileName"`
	Summary    string  `json:"summary"`
	Excerpt    string  `json:"excerpt"`
	Similarity float64 `json:"similarity"` // raw cosine, [0,1]
}
