package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/RishiKendai/codelens/internal/models"
)

// MemoryCorpus is an in-process CorpusStore.
type MemoryCorpus struct {
	mu      sync.RWMutex
	entries []*models.CorpusEntry
	byHash  map[string]string
	byID    map[string]string
}

func NewMemoryCorpus() *MemoryCorpus {
	return &MemoryCorpus{byHash: make(map[string]string), byID: make(map[string]string)}
}

func (m *MemoryCorpus) List(_ context.Context) ([]*models.CorpusEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.entries), nil
}

func (m *MemoryCorpus) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

func (m *MemoryCorpus) Add(_ context.Context, e *models.CorpusEntry) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.byHash[e.ContentHash]; ok {
		return id, false, nil
	}
	if hash, ok := m.byID[e.ID]; ok && hash != e.ContentHash {
		return "", false, ErrDuplicateID
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	m.entries = append(m.entries, e)
	m.byHash[e.ContentHash] = e.ID
	m.byID[e.ID] = e.ContentHash
	return e.ID, true, nil
}

// MemoryReports is an in-process ReportStore.
type MemoryReports struct {
	mu      sync.RWMutex
	reports []*models.ComparisonReport
	byID    map[string]*models.ComparisonReport
}

func NewMemoryReports() *MemoryReports {
	return &MemoryReports{byID: make(map[string]*models.ComparisonReport)}
}

func (m *MemoryReports) Save(_ context.Context, r *models.ComparisonReport) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	stored := *r

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[stored.ID]; ok {
		return ErrDuplicateID
	}
	m.reports = append(m.reports, &stored)
	m.byID[stored.ID] = &stored
	return nil
}

func (m *MemoryReports) Get(_ context.Context, id string) (*models.ComparisonReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *r
	return &out, nil
}

func (m *MemoryReports) History(_ context.Context, limit int) ([]models.ReportSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.ReportSummary, 0, len(m.reports))
	// Walk backwards so reports saved later win ties on CreatedAt.
	for i := len(m.reports) - 1; i >= 0; i-- {
		out = append(out, m.reports[i].Summary())
	}
	slices.SortStableFunc(out, func(a, b models.ReportSummary) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryReports) Stats(_ context.Context) (int64, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var plagiarized int64
	for _, r := range m.reports {
		if r.IsPlagiarized {
			plagiarized++
		}
	}
	return int64(len(m.reports)), plagiarized, nil
}

var (
	_ CorpusStore = (*MemoryCorpus)(nil)
	_ CorpusStore = (*CorpusRepository)(nil)
	_ ReportStore = (*MemoryReports)(nil)
	_ ReportStore = (*ReportsRepository)(nil)
)
