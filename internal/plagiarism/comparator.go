package plagiarism

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/RishiKendai/codelens/internal/fingerprint"
	"github.com/RishiKendai/codelens/internal/lang"
	"github.com/RishiKendai/codelens/internal/models"
)

// MaxSimilarBlocks caps the blocks listed per comparison; the longest win.
const MaxSimilarBlocks = 20

// Side is one fingerprinted snippet of a pairwise comparison. A nil
// Embedding compares lexically. Source holds the raw lines used to quote
// similar blocks and may be nil.
type Side struct {
	Language    lang.Language
	Fingerprint fingerprint.Fingerprint
	Embedding   []float64
	Source      []string
}

// Comparison is the scored outcome of comparing two sides.
type Comparison struct {
	Score         float64
	IsPlagiarized bool
	Analysis      models.ComparisonAnalysis
}

// Comparator scores pairs against a fixed decision threshold.
type Comparator struct {
	threshold float64
}

func NewComparator(threshold float64) *Comparator {
	return &Comparator{threshold: threshold}
}

// Score is the blended similarity of a pair without the detailed analysis.
func (c *Comparator) Score(a, b Side) float64 {
	score, _, _ := c.score(a, b)
	return score
}

func (c *Comparator) score(a, b Side) (score, lexical float64, semantic *float64) {
	lexical = Round4(fingerprint.Jaccard(a.Fingerprint.Shingles, b.Fingerprint.Shingles))
	if a.Embedding != nil && b.Embedding != nil {
		v := Round4(fingerprint.Cosine(a.Embedding, b.Embedding))
		semantic = &v
	}
	return Round4(Blend(lexical, semantic)), lexical, semantic
}

// Compare is symmetric in its arguments apart from which side is reported
// as code1 and code2. It fails only when ctx ends during token tiling.
func (c *Comparator) Compare(ctx context.Context, a, b Side) (Comparison, error) {
	fa, fb := a.Fingerprint, b.Fingerprint
	score, lexical, semantic := c.score(a, b)

	var tileSim *float64
	blocks := []models.SimilarBlock{}
	tiles, err := TokenTiles(ctx, fa.Tokens, fb.Tokens)
	switch {
	case errors.Is(err, ErrTileBudget):
		log.Warn().Int("code1_tokens", len(fa.Tokens)).Int("code2_tokens", len(fb.Tokens)).Msg("Token tiling skipped")
	case err != nil:
		return Comparison{}, err
	default:
		v := Round4(TileCoverage(tiles, len(fa.Tokens), len(fb.Tokens)))
		tileSim = &v
		blocks = similarBlocks(tiles, a, b)
	}

	analysis := models.ComparisonAnalysis{
		LexicalSimilarity:   lexical,
		SemanticSimilarity:  semantic,
		TokenTileSimilarity: tileSim,
		SimilarBlocks:       blocks,
		CommonTokens:        fingerprint.Intersection(fa.Shingles, fb.Shingles),
		Code1Tokens:         len(fa.Tokens),
		Code2Tokens:         len(fb.Tokens),
		Language1:           string(a.Language),
		Language2:           string(b.Language),
		Mode:                models.ModeLexical,
	}
	if semantic != nil {
		analysis.Mode = models.ModeEnhanced
	}
	analysis.Explanation = Explain(score, lexical, semantic, analysis.CommonTokens)

	return Comparison{
		Score:         score,
		IsPlagiarized: score >= c.threshold,
		Analysis:      analysis,
	}, nil
}

// similarBlocks maps the longest tiles back to source lines, ordered by
// their position in code1.
func similarBlocks(tiles []Tile, a, b Side) []models.SimilarBlock {
	longest := slices.Clone(tiles)
	slices.SortStableFunc(longest, func(x, y Tile) int {
		return cmp.Compare(y.Length, x.Length)
	})
	if len(longest) > MaxSimilarBlocks {
		longest = longest[:MaxSimilarBlocks]
	}
	slices.SortFunc(longest, func(x, y Tile) int {
		return cmp.Or(cmp.Compare(x.StartA, y.StartA), cmp.Compare(x.StartB, y.StartB))
	})

	linesA, linesB := a.Fingerprint.Lines, b.Fingerprint.Lines
	out := make([]models.SimilarBlock, 0, len(longest))
	for _, t := range longest {
		if t.StartA+t.Length > len(linesA) || t.StartB+t.Length > len(linesB) {
			continue
		}
		blk := models.SimilarBlock{
			Code1StartLine: linesA[t.StartA],
			Code1EndLine:   linesA[t.StartA+t.Length-1],
			Code2StartLine: linesB[t.StartB],
			Code2EndLine:   linesB[t.StartB+t.Length-1],
			Tokens:         t.Length,
		}
		if blk.Code1EndLine <= len(a.Source) && blk.Code1StartLine >= 1 {
			blk.Content = strings.TrimSpace(strings.Join(a.Source[blk.Code1StartLine-1:blk.Code1EndLine], "\n"))
		}
		out = append(out, blk)
	}
	return out
}

// Explain renders the templated summary of a pairwise score.
func Explain(score, lexical float64, semantic *float64, commonShingles int) string {
	signal := fmt.Sprintf("token structure (%d shared %d-token sequences)", commonShingles, fingerprint.ShingleSize)
	if semantic != nil && SemanticWeight**semantic > LexicalWeight*lexical {
		signal = fmt.Sprintf("semantic meaning (embedding similarity %.2f)", *semantic)
	}

	switch {
	case score >= 0.7:
		return fmt.Sprintf("The snippets show high similarity (%.2f), driven mainly by %s. "+
			"Structure and logic are nearly the same, which suggests possible plagiarism.", score, signal)
	case score >= 0.4:
		return fmt.Sprintf("The snippets show moderate similarity (%.2f), driven mainly by %s. "+
			"They share common patterns but differ in notable ways.", score, signal)
	default:
		return fmt.Sprintf("The snippets show low similarity (%.2f); the strongest signal is %s. "+
			"They appear substantially different.", score, signal)
	}
}
