package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/RishiKendai/codelens/internal/models"
	"github.com/RishiKendai/codelens/internal/plagiarism"
)

// Batch item statuses.
const (
	BatchStatusOK    = "success"
	BatchStatusError = "error"
)

// BatchAnalyze analyzes each snippet independently and scores every pair of
// valid snippets lexically on the worker pool. An invalid snippet is
// reported in place and does not fail the batch.
func (s *Service) BatchAnalyze(ctx context.Context, codes []string, language string) (resp *models.BatchAnalyzeResponse, err error) {
	defer s.track("batch", time.Now(), &err)

	if len(codes) == 0 {
		return nil, inputError("codes must not be empty", nil)
	}
	if len(codes) > s.opts.BatchMaxSnippets {
		return nil, inputError(fmt.Sprintf("at most %d snippets per batch", s.opts.BatchMaxSnippets), nil)
	}

	results := make([]models.BatchItem, len(codes))
	sides := make([]*plagiarism.Side, len(codes))
	for i, code := range codes {
		sn, err := s.prepare(ctx, code, language)
		if err != nil {
			results[i] = models.BatchItem{Index: i, Status: BatchStatusError, Error: MessageOf(err)}
			continue
		}
		results[i] = models.BatchItem{Index: i, Status: BatchStatusOK, Analysis: analyze(sn.parsed)}
		sides[i] = &plagiarism.Side{Language: sn.lang, Fingerprint: sn.fp}
	}

	return &models.BatchAnalyzeResponse{
		Results:           results,
		CrossSimilarities: plagiarism.CrossSimilarities(ctx, s.pool, s.comparator, sides),
		Timestamp:         s.now(),
	}, nil
}
