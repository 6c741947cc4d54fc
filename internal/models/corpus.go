package models

import "time"

// CorpusEntry is a reference snippet with its precomputed fingerprints.
type CorpusEntry struct {
	ID          string    `json:"id" bson:"_id" yaml:"id"`
	Code        string    `json:"code" bson:"code" yaml:"code"`
	Language    string    `json:"language" bson:"language" yaml:"language"`
	Description string    `json:"description" bson:"description" yaml:"description"`
	Source      string    `json:"source" bson:"source" yaml:"source"`
	ContentHash string    `json:"content_hash" bson:"contentHash" yaml:"-"`
	Shingles    []uint64  `json:"-" bson:"-" yaml:"-"`
	Embedding   []float64 `json:"-" bson:"embedding,omitempty" yaml:"-"`
	CreatedAt   time.Time `json:"created_at" bson:"createdAt" yaml:"-"`
}

type CorpusAddRequest struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Language    string `json:"language"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

type CorpusAddResponse struct {
	ID    string `json:"id"`
	Added bool   `json:"added"`
}

type Statistics struct {
	CorpusSize             int      `json:"corpus_size"`
	TotalComparisons       int64    `json:"total_comparisons"`
	PlagiarizedComparisons int64    `json:"plagiarized_comparisons"`
	SupportedLanguages     []string `json:"supported_languages"`
}
