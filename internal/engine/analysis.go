package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/RishiKendai/codelens/internal/features"
	"github.com/RishiKendai/codelens/internal/fingerprint"
	"github.com/RishiKendai/codelens/internal/lang"
	"github.com/RishiKendai/codelens/internal/models"
	"github.com/RishiKendai/codelens/internal/parser"
	"github.com/RishiKendai/codelens/internal/patterns"
	"github.com/RishiKendai/codelens/internal/quality"
)

// snippet is a validated, parsed and fingerprinted input.
type snippet struct {
	lang   lang.Language
	parsed *parser.Result
	fp     fingerprint.Fingerprint
}

func (s *Service) validate(code string) error {
	if strings.TrimSpace(code) == "" {
		return inputError("code must not be empty", nil)
	}
	if len(code) > s.opts.MaxSnippetBytes {
		return inputError(fmt.Sprintf("code exceeds the %d byte limit", s.opts.MaxSnippetBytes), ErrSnippetTooLarge)
	}
	return nil
}

func (s *Service) prepare(ctx context.Context, code, tag string) (*snippet, error) {
	if err := s.validate(code); err != nil {
		return nil, err
	}
	l := lang.Resolve(tag, code)
	r := parser.Parse(ctx, code, l)
	return &snippet{lang: l, parsed: r, fp: fingerprint.Build(r)}, nil
}

// analyze is a pure function of the parse result.
func analyze(r *parser.Result) *models.AnalysisResult {
	f := features.Extract(r)
	return &models.AnalysisResult{
		DetectedLanguage:  string(r.Language),
		LinesOfCode:       f.Lines,
		ComplexityMetrics: f.Complexity,
		StructureAnalysis: f.Structure,
		Patterns:          patterns.Detect(r),
		CodeQuality:       quality.Score(r, f),
		ParseDegraded:     r.Degraded,
		ParseNotes:        r.Notes,
	}
}
