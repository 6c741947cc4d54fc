package repository

import (
	"context"
	"errors"

	"github.com/RishiKendai/codelens/internal/models"
)

var (
	// ErrNotFound is returned when a lookup by id matches nothing.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateID is returned when an id is reused for different content.
	ErrDuplicateID = errors.New("id already used by a different entry")
)

// CorpusStore holds the reference snippets searched for matches.
type CorpusStore interface {
	// List returns a snapshot of every entry, shingles included.
	List(ctx context.Context) ([]*models.CorpusEntry, error)
	Count(ctx context.Context) (int, error)
	// Add stores e unless an entry with the same content hash exists, in
	// which case that entry's id is returned with added=false.
	Add(ctx context.Context, e *models.CorpusEntry) (id string, added bool, err error)
}

// ReportStore persists comparison reports. Reports are written whole and
// never updated.
type ReportStore interface {
	Save(ctx context.Context, r *models.ComparisonReport) error
	Get(ctx context.Context, id string) (*models.ComparisonReport, error)
	// History lists reports newest first; limit <= 0 means no cap.
	History(ctx context.Context, limit int) ([]models.ReportSummary, error)
	Stats(ctx context.Context) (total, plagiarized int64, err error)
}
