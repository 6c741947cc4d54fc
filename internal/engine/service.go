// Package engine orchestrates analysis, corpus search, pairwise comparison
// and report history on top of the pure analysis packages.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/RishiKendai/codelens/internal/corpus"
	"github.com/RishiKendai/codelens/internal/embedding"
	"github.com/RishiKendai/codelens/internal/features"
	"github.com/RishiKendai/codelens/internal/lang"
	"github.com/RishiKendai/codelens/internal/models"
	"github.com/RishiKendai/codelens/internal/observability"
	"github.com/RishiKendai/codelens/internal/parser"
	"github.com/RishiKendai/codelens/internal/plagiarism"
	"github.com/RishiKendai/codelens/internal/repository"
)

// Default file names used when a comparison has none.
const (
	DefaultFile1Name = "code_snippet_1"
	DefaultFile2Name = "code_snippet_2"
)

// Options are the tunables of a Service.
type Options struct {
	MaxSnippetBytes     int
	PlagiarismThreshold float64
	TopK                int
	MatchFloor          float64
	SearchWorkers       int
	BatchMaxSnippets    int
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		MaxSnippetBytes:     1 << 20,
		PlagiarismThreshold: 0.7,
		TopK:                10,
		MatchFloor:          0.3,
		BatchMaxSnippets:    20,
	}
}

// Service is safe for concurrent use. The stores are its only shared state.
type Service struct {
	corpus     repository.CorpusStore
	reports    repository.ReportStore
	embedder   *embedding.Embedder
	pool       *plagiarism.WorkerPool
	searcher   *plagiarism.Searcher
	comparator *plagiarism.Comparator
	opts       Options

	// texts remembers canonical texts of corpus entries by content hash so
	// entries without a stored embedding are parsed at most once.
	texts sync.Map

	now   func() time.Time
	newID func() string
}

// New wires a Service. embedder may be nil to disable enhanced mode.
func New(corpusStore repository.CorpusStore, reports repository.ReportStore, embedder *embedding.Embedder, pool *plagiarism.WorkerPool, opts Options) *Service {
	return &Service{
		corpus:     corpusStore,
		reports:    reports,
		embedder:   embedder,
		pool:       pool,
		searcher:   plagiarism.NewSearcher(opts.TopK, opts.MatchFloor, opts.SearchWorkers),
		comparator: plagiarism.NewComparator(opts.PlagiarismThreshold),
		opts:       opts,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      func() string { return uuid.New().String() },
	}
}

// AnalyzeInput is one analysis request.
type AnalyzeInput struct {
	Code          string
	Language      string
	CheckDatabase bool
	Enhanced      bool
}

// Analyze runs the single-snippet pipeline and, when asked, the corpus
// search.
func (s *Service) Analyze(ctx context.Context, in AnalyzeInput) (resp *models.AnalyzeResponse, err error) {
	defer s.track("analyze", time.Now(), &err)

	sn, err := s.prepare(ctx, in.Code, in.Language)
	if err != nil {
		return nil, err
	}
	analysis := analyze(sn.parsed)
	if sn.parsed.Degraded {
		observability.DegradedCount.WithLabelValues("parse_fallback").Inc()
	}

	similarity := &models.SimilarityReport{
		Matches:   []models.Match{},
		RiskLevel: plagiarism.GetRiskLevel(0),
		Mode:      models.ModeLexical,
	}
	if in.CheckDatabase {
		report, err := s.search(ctx, sn, in.Enhanced)
		if err != nil {
			return nil, err
		}
		similarity = report
	}

	return &models.AnalyzeResponse{
		Analysis:   analysis,
		Similarity: similarity,
		Timestamp:  s.now(),
		Language:   string(sn.lang),
	}, nil
}

func (s *Service) search(ctx context.Context, sn *snippet, enhanced bool) (*models.SimilarityReport, error) {
	entries, err := s.corpus.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load corpus")
		return nil, corpusUnavailable(err)
	}

	q := plagiarism.Query{Fingerprint: sn.fp}
	var reason string
	if enhanced {
		q.Embedding, entries, reason = s.embedForSearch(ctx, sn, entries)
	}

	report := s.searcher.Search(q, entries)
	if reason != "" {
		report.Degraded = true
		report.DegradedReason = reason
	}
	return &report, nil
}

// embedForSearch embeds the query together with every entry that has no
// stored vector. On failure it returns a nil query vector and the reason,
// which makes the search lexical.
func (s *Service) embedForSearch(ctx context.Context, sn *snippet, entries []*models.CorpusEntry) ([]float64, []*models.CorpusEntry, string) {
	items := []embedding.Item{{Key: sn.fp.Key, Text: sn.fp.Text}}
	var missing []int
	for i, e := range entries {
		if len(e.Embedding) == 0 {
			missing = append(missing, i)
			items = append(items, embedding.Item{Key: e.ContentHash, Text: s.entryText(ctx, e)})
		}
	}

	vecs, err := s.embed(ctx, items)
	if err != nil {
		return nil, entries, embedding.Reason(err)
	}
	if len(missing) == 0 {
		return vecs[0], entries, ""
	}

	// Entries from the store are shared; attach vectors to copies.
	out := make([]*models.CorpusEntry, len(entries))
	copy(out, entries)
	for j, i := range missing {
		e := *entries[i]
		e.Embedding = vecs[j+1]
		out[i] = &e
	}
	return vecs[0], out, ""
}

func (s *Service) entryText(ctx context.Context, e *models.CorpusEntry) string {
	if v, ok := s.texts.Load(e.ContentHash); ok {
		return v.(string)
	}
	text := parser.Parse(ctx, e.Code, lang.Normalize(e.Language)).NormalizedText()
	s.texts.Store(e.ContentHash, text)
	return text
}

func (s *Service) embed(ctx context.Context, items []embedding.Item) ([][]float64, error) {
	vecs, err := s.embedder.Embed(ctx, items)
	if err != nil {
		reason := embedding.Reason(err)
		observability.DegradedCount.WithLabelValues(reason).Inc()
		log.Warn().Err(err).Str("reason", reason).Msg("Falling back to lexical similarity")
		return nil, err
	}
	return vecs, nil
}

// CompareInput is one pairwise comparison request. A nil Enhanced uses
// enhanced mode whenever a provider is configured.
type CompareInput struct {
	Code1, Code2         string
	Language1, Language2 string
	File1Name, File2Name string
	Enhanced             *bool
}

// Compare scores two snippets and persists the report.
func (s *Service) Compare(ctx context.Context, in CompareInput) (report *models.ComparisonReport, err error) {
	defer s.track("compare", time.Now(), &err)

	a, err := s.prepare(ctx, in.Code1, in.Language1)
	if err != nil {
		return nil, withSide("code1", err)
	}
	b, err := s.prepare(ctx, in.Code2, in.Language2)
	if err != nil {
		return nil, withSide("code2", err)
	}

	sideA := plagiarism.Side{Language: a.lang, Fingerprint: a.fp, Source: a.parsed.RawLines}
	sideB := plagiarism.Side{Language: b.lang, Fingerprint: b.fp, Source: b.parsed.RawLines}

	enhanced := s.embedder.Enabled()
	if in.Enhanced != nil {
		enhanced = *in.Enhanced
	}
	var reason string
	if enhanced {
		vecs, err := s.embed(ctx, []embedding.Item{{Key: a.fp.Key, Text: a.fp.Text}, {Key: b.fp.Key, Text: b.fp.Text}})
		if err != nil {
			reason = embedding.Reason(err)
		} else {
			sideA.Embedding, sideB.Embedding = vecs[0], vecs[1]
		}
	}

	result, err := s.comparator.Compare(ctx, sideA, sideB)
	if err != nil {
		return nil, internalError("comparison did not finish", err)
	}
	result.Analysis.StructuralComparison = features.CompareStructure(features.Extract(a.parsed), features.Extract(b.parsed))
	result.Analysis.Degraded = reason != ""
	result.Analysis.DegradedReason = reason

	report = &models.ComparisonReport{
		ID:              s.newID(),
		File1Name:       orDefault(in.File1Name, DefaultFile1Name),
		File2Name:       orDefault(in.File2Name, DefaultFile2Name),
		Language1:       string(a.lang),
		Language2:       string(b.lang),
		Code1:           in.Code1,
		Code2:           in.Code2,
		SimilarityScore: result.Score,
		IsPlagiarized:   result.IsPlagiarized,
		Analysis:        result.Analysis,
		CreatedAt:       s.now(),
	}
	if err := s.reports.Save(ctx, report); err != nil {
		log.Error().Err(err).Str("report_id", report.ID).Msg("Failed to save comparison report")
		return nil, internalError("failed to save comparison report", err)
	}

	log.Info().
		Str("report_id", report.ID).
		Float64("score", report.SimilarityScore).
		Bool("plagiarized", report.IsPlagiarized).
		Str("mode", report.Analysis.Mode).
		Msg("Comparison completed")
	return report, nil
}

// Report fetches a stored comparison.
func (s *Service) Report(ctx context.Context, id string) (*models.ComparisonReport, error) {
	report, err := s.reports.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("report "+id+" not found", err)
	}
	if err != nil {
		return nil, internalError("failed to load report", err)
	}
	return report, nil
}

// History lists stored comparisons newest first. limit <= 0 returns all.
func (s *Service) History(ctx context.Context, limit int) ([]models.ReportSummary, error) {
	summaries, err := s.reports.History(ctx, limit)
	if err != nil {
		return nil, internalError("failed to load history", err)
	}
	return summaries, nil
}

// Statistics summarizes corpus and history.
func (s *Service) Statistics(ctx context.Context) (*models.Statistics, error) {
	size, err := s.corpus.Count(ctx)
	if err != nil {
		return nil, corpusUnavailable(err)
	}
	total, plagiarized, err := s.reports.Stats(ctx)
	if err != nil {
		return nil, internalError("failed to count reports", err)
	}
	return &models.Statistics{
		CorpusSize:             size,
		TotalComparisons:       total,
		PlagiarizedComparisons: plagiarized,
		SupportedLanguages:     SupportedLanguages(),
	}, nil
}

// SupportedLanguages lists the declared-language tags with a dedicated
// parser.
func SupportedLanguages() []string {
	langs := lang.Supported()
	out := make([]string, len(langs))
	for i, l := range langs {
		out[i] = string(l)
	}
	return out
}

// AddToCorpus fingerprints and stores a reference snippet. Content already
// in the corpus is not stored twice.
func (s *Service) AddToCorpus(ctx context.Context, req models.CorpusAddRequest) (*models.CorpusAddResponse, error) {
	sn, err := s.prepare(ctx, req.Code, req.Language)
	if err != nil {
		return nil, err
	}

	entry := &models.CorpusEntry{
		ID:          orDefault(req.ID, s.newID()),
		Code:        req.Code,
		Language:    string(sn.lang),
		Description: req.Description,
		Source:      req.Source,
		ContentHash: sn.fp.Key,
		Shingles:    sn.fp.Shingles,
		CreatedAt:   s.now(),
	}
	if s.embedder.Enabled() {
		if vecs, err := s.embed(ctx, []embedding.Item{{Key: sn.fp.Key, Text: sn.fp.Text}}); err == nil {
			entry.Embedding = vecs[0]
		}
	}

	id, added, err := s.corpus.Add(ctx, entry)
	if errors.Is(err, repository.ErrDuplicateID) {
		return nil, inputError("corpus id "+entry.ID+" is already used by different code", err)
	}
	if err != nil {
		return nil, corpusUnavailable(err)
	}

	if added {
		s.texts.Store(entry.ContentHash, sn.fp.Text)
		if n, err := s.corpus.Count(ctx); err == nil {
			observability.CorpusSize.Set(float64(n))
		}
		log.Info().Str("id", id).Str("language", entry.Language).Msg("Corpus entry added")
	}
	return &models.CorpusAddResponse{ID: id, Added: added}, nil
}

// SeedCorpus loads the bundled reference snippets into an empty corpus and
// returns how many were added.
func (s *Service) SeedCorpus(ctx context.Context) (int, error) {
	n, err := s.corpus.Count(ctx)
	if err != nil {
		return 0, corpusUnavailable(err)
	}
	if n > 0 {
		return 0, nil
	}

	seeds, err := corpus.Seed()
	if err != nil {
		return 0, internalError("failed to load seed corpus", err)
	}
	added := 0
	for _, e := range seeds {
		resp, err := s.AddToCorpus(ctx, models.CorpusAddRequest{
			ID:          e.ID,
			Code:        e.Code,
			Language:    e.Language,
			Description: e.Description,
			Source:      e.Source,
		})
		if err != nil {
			return added, err
		}
		if resp.Added {
			added++
		}
	}
	log.Info().Int("entries", added).Msg("Seed corpus loaded")
	return added, nil
}

func (s *Service) track(kind string, start time.Time, err *error) {
	status := "ok"
	if *err != nil {
		status = string(KindOf(*err))
	}
	observability.AnalysisCount.WithLabelValues(kind, status).Inc()
	observability.AnalysisDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func withSide(side string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return &Error{Kind: e.Kind, Message: side + ": " + e.Message, Err: e.Err}
	}
	return err
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
