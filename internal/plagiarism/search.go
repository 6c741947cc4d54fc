package plagiarism

import (
	"runtime"
	"slices"

	"github.com/sourcegraph/conc/pool"

	"github.com/RishiKendai/codelens/internal/fingerprint"
	"github.com/RishiKendai/codelens/internal/models"
)

// Query is a fingerprinted snippet. A nil Embedding searches lexically.
type Query struct {
	Fingerprint fingerprint.Fingerprint
	Embedding   []float64
}

// Searcher ranks corpus entries against a query.
type Searcher struct {
	topK    int
	floor   float64
	workers int
}

// NewSearcher creates a searcher. workers <= 0 uses twice the CPU count.
func NewSearcher(topK int, floor float64, workers int) *Searcher {
	if workers <= 0 {
		workers = 2 * runtime.NumCPU()
	}
	return &Searcher{topK: topK, floor: floor, workers: workers}
}

// Search scores every entry in parallel, then sorts once: score descending,
// id ascending on ties. Only the top K entries at or above the floor are
// returned, while TotalChecked always reports the full corpus size.
func (s *Searcher) Search(q Query, corpus []*models.CorpusEntry) models.SimilarityReport {
	p := pool.NewWithResults[models.Match]().WithMaxGoroutines(s.workers)
	for _, entry := range corpus {
		p.Go(func() models.Match {
			return scoreEntry(q, entry)
		})
	}
	scored := p.Wait()

	matches := make([]models.Match, 0, s.topK)
	for _, m := range scored {
		if m.SimilarityScore >= s.floor && m.SimilarityScore > 0 {
			matches = append(matches, m)
		}
	}
	slices.SortFunc(matches, func(a, b models.Match) int {
		switch {
		case a.SimilarityScore > b.SimilarityScore:
			return -1
		case a.SimilarityScore < b.SimilarityScore:
			return 1
		default:
			return cmpString(a.ID, b.ID)
		}
	})
	if len(matches) > s.topK {
		matches = matches[:s.topK]
	}

	report := models.SimilarityReport{
		Matches:      matches,
		TotalChecked: len(corpus),
		Mode:         models.ModeLexical,
	}
	if q.Embedding != nil {
		report.Mode = models.ModeEnhanced
	}
	if len(matches) > 0 {
		report.HighestSimilarity = matches[0].SimilarityScore
	}
	report.RiskLevel = GetRiskLevel(report.HighestSimilarity)
	return report
}

func scoreEntry(q Query, e *models.CorpusEntry) models.Match {
	lexical := Round4(fingerprint.Jaccard(q.Fingerprint.Shingles, e.Shingles))
	var semantic *float64
	if q.Embedding != nil && len(e.Embedding) > 0 {
		v := Round4(fingerprint.Cosine(q.Embedding, e.Embedding))
		semantic = &v
	}
	return models.Match{
		ID:              e.ID,
		SimilarityScore: Round4(Blend(lexical, semantic)),
		Description:     e.Description,
		Source:          e.Source,
		CodeSnippet:     e.Code,
		Language:        e.Language,
		Breakdown: models.SimilarityBreakdown{
			Lexical:  lexical,
			Semantic: semantic,
		},
	}
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
