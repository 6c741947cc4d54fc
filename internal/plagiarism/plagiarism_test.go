package plagiarism

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RishiKendai/codelens/internal/fingerprint"
	"github.com/RishiKendai/codelens/internal/lang"
	"github.com/RishiKendai/codelens/internal/models"
	"github.com/RishiKendai/codelens/internal/parser"
)

const bubble = `def bubble_sort(arr):
    n = len(arr)
    for i in range(n):
        for j in range(0, n - i - 1):
            if arr[j] > arr[j + 1]:
                arr[j], arr[j + 1] = arr[j + 1], arr[j]
    return arr
`

const fib = `function fibonacci(n) {
  if (n <= 1) return n;
  return fibonacci(n - 1) + fibonacci(n - 2);
}
`

func fp(src string, l lang.Language) fingerprint.Fingerprint {
	return fingerprint.Build(parser.Parse(context.Background(), src, l))
}

func entry(id, src string, l lang.Language) *models.CorpusEntry {
	return &models.CorpusEntry{ID: id, Code: src, Language: string(l), Shingles: fp(src, l).Shingles}
}

func TestGetRiskLevel(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0, RiskLow},
		{0.3999, RiskLow},
		{0.4, RiskMedium},
		{0.5999, RiskMedium},
		{0.6, RiskHigh},
		{0.7999, RiskHigh},
		{0.8, RiskVeryHigh},
		{1, RiskVeryHigh},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.score), func(t *testing.T) {
			assert.Equal(t, tt.want, GetRiskLevel(tt.score))
		})
	}
}

func TestRiskLevelIsMonotonic(t *testing.T) {
	prev := RiskRank(GetRiskLevel(0))
	for i := 1; i <= 1000; i++ {
		rank := RiskRank(GetRiskLevel(float64(i) / 1000))
		require.GreaterOrEqual(t, rank, prev, "score %v", float64(i)/1000)
		prev = rank
	}
}

func TestBlend(t *testing.T) {
	assert.Equal(t, 0.5, Blend(0.5, nil))
	sem := 1.0
	assert.InDelta(t, 0.4*0.5+0.6, Blend(0.5, &sem), 1e-9)
}

func TestSearchHighestIsMaxAndSorted(t *testing.T) {
	corpus := []*models.CorpusEntry{
		entry("fib", fib, lang.JavaScript),
		entry("bubble", bubble, lang.Python),
		entry("bubble-copy", bubble, lang.Python),
	}
	report := NewSearcher(10, 0.3, 4).Search(Query{Fingerprint: fp(bubble, lang.Python)}, corpus)

	require.Len(t, report.Matches, 2)
	assert.Equal(t, "bubble", report.Matches[0].ID)
	assert.Equal(t, "bubble-copy", report.Matches[1].ID)
	assert.Equal(t, 1.0, report.HighestSimilarity)
	assert.Equal(t, RiskVeryHigh, report.RiskLevel)
	assert.Equal(t, 3, report.TotalChecked)
	assert.Equal(t, models.ModeLexical, report.Mode)
	for _, m := range report.Matches {
		assert.LessOrEqual(t, m.SimilarityScore, report.HighestSimilarity)
		assert.Nil(t, m.Breakdown.Semantic)
	}
}

func TestSearchNoMatchesInLargeCorpus(t *testing.T) {
	corpus := make([]*models.CorpusEntry, 100)
	for i := range corpus {
		corpus[i] = &models.CorpusEntry{ID: fmt.Sprintf("e%03d", i), Shingles: []uint64{uint64(1000 + i)}}
	}
	report := NewSearcher(10, 0.3, 0).Search(Query{Fingerprint: fingerprint.Fingerprint{Shingles: []uint64{1, 2, 3}}}, corpus)

	assert.Empty(t, report.Matches)
	assert.NotNil(t, report.Matches)
	assert.Equal(t, 0.0, report.HighestSimilarity)
	assert.Equal(t, RiskLow, report.RiskLevel)
	assert.Equal(t, 100, report.TotalChecked)
}

func TestSearchTopKAndTieBreak(t *testing.T) {
	var corpus []*models.CorpusEntry
	for _, id := range []string{"d", "b", "a", "c"} {
		corpus = append(corpus, &models.CorpusEntry{ID: id, Shingles: []uint64{7}})
	}
	q := Query{Fingerprint: fingerprint.Fingerprint{Shingles: []uint64{7}}}

	report := NewSearcher(3, 0.3, 2).Search(q, corpus)
	require.Len(t, report.Matches, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{report.Matches[0].ID, report.Matches[1].ID, report.Matches[2].ID})

	again := NewSearcher(3, 0.3, 2).Search(q, corpus)
	assert.Equal(t, report, again)
}

func TestSearchEnhancedUsesEmbeddings(t *testing.T) {
	corpus := []*models.CorpusEntry{
		{ID: "near", Shingles: []uint64{1}, Embedding: []float64{1, 0}},
		{ID: "far", Shingles: []uint64{1}, Embedding: []float64{0, 1}},
	}
	q := Query{Fingerprint: fingerprint.Fingerprint{Shingles: []uint64{1}}, Embedding: []float64{1, 0}}
	report := NewSearcher(10, 0.3, 2).Search(q, corpus)

	assert.Equal(t, models.ModeEnhanced, report.Mode)
	require.Len(t, report.Matches, 2)
	assert.Equal(t, "near", report.Matches[0].ID)
	assert.Equal(t, 1.0, report.Matches[0].SimilarityScore)
	assert.Equal(t, 0.4, report.Matches[1].SimilarityScore)
	require.NotNil(t, report.Matches[1].Breakdown.Semantic)
	assert.Equal(t, 0.0, *report.Matches[1].Breakdown.Semantic)
}

func TestCompareIdenticalSnippets(t *testing.T) {
	side := Side{Language: lang.Python, Fingerprint: fp(bubble, lang.Python), Source: strings.Split(bubble, "\n")}
	res, err := NewComparator(0.7).Compare(context.Background(), side, side)
	require.NoError(t, err)

	assert.Equal(t, 1.0, res.Score)
	assert.True(t, res.IsPlagiarized)
	require.NotNil(t, res.Analysis.TokenTileSimilarity)
	assert.Equal(t, 1.0, *res.Analysis.TokenTileSimilarity)
	require.Len(t, res.Analysis.SimilarBlocks, 1)
	blk := res.Analysis.SimilarBlocks[0]
	assert.Equal(t, 1, blk.Code1StartLine)
	assert.Equal(t, 7, blk.Code1EndLine)
	assert.Equal(t, 1, blk.Code2StartLine)
	assert.Equal(t, 7, blk.Code2EndLine)
	assert.Equal(t, len(side.Fingerprint.Tokens), blk.Tokens)
	assert.Equal(t, strings.TrimSpace(bubble), blk.Content)
	assert.Equal(t, len(side.Fingerprint.Shingles), res.Analysis.CommonTokens)
	assert.Equal(t, models.ModeLexical, res.Analysis.Mode)
	assert.Contains(t, res.Analysis.Explanation, "high similarity")
}

func TestCompareIsSymmetric(t *testing.T) {
	pairs := [][2]Side{
		{{Language: lang.Python, Fingerprint: fp(bubble, lang.Python)}, {Language: lang.JavaScript, Fingerprint: fp(fib, lang.JavaScript)}},
		{{Fingerprint: fp("a = b + c\nd = a * 2\n", lang.Python)}, {Fingerprint: fp("x = y + z\nw = x * 3\nv = 1\n", lang.Python)}},
		{{Fingerprint: fp(bubble, lang.Python), Embedding: []float64{1, 2}}, {Fingerprint: fp(fib, lang.JavaScript), Embedding: []float64{2, 1}}},
	}
	c := NewComparator(0.7)
	ctx := context.Background()
	for i, p := range pairs {
		ab, err := c.Compare(ctx, p[0], p[1])
		require.NoError(t, err)
		ba, err := c.Compare(ctx, p[1], p[0])
		require.NoError(t, err)
		assert.Equal(t, ab.Score, ba.Score, "pair %d", i)
		assert.Equal(t, ab.Score, c.Score(p[0], p[1]), "pair %d", i)
		assert.Len(t, ba.Analysis.SimilarBlocks, len(ab.Analysis.SimilarBlocks), "pair %d", i)
		assert.Equal(t, ab.Analysis.TokenTileSimilarity, ba.Analysis.TokenTileSimilarity, "pair %d", i)
		assert.Equal(t, ab.Analysis.Explanation, ba.Analysis.Explanation, "pair %d", i)
	}
}

func TestCompareDifferentSnippets(t *testing.T) {
	res, err := NewComparator(0.7).Compare(context.Background(),
		Side{Fingerprint: fp(bubble, lang.Python)},
		Side{Fingerprint: fp(fib, lang.JavaScript)},
	)
	require.NoError(t, err)
	assert.False(t, res.IsPlagiarized)
	assert.Less(t, res.Score, 0.4)
	assert.Contains(t, res.Analysis.Explanation, "low similarity")
}

func TestExplainNamesDominantSignal(t *testing.T) {
	sem := 0.9
	assert.Contains(t, Explain(0.7, 0.4, &sem, 3), "semantic meaning")
	assert.Contains(t, Explain(0.5, 0.5, nil, 3), "token structure")
	assert.Contains(t, Explain(0.5, 0.5, nil, 3), "moderate similarity")
}

func TestTokenTileSimilarity(t *testing.T) {
	a := []string{"a", "b", "c", "d", "e", "f"}
	assert.Equal(t, 1.0, TokenTileSimilarity(a, a))
	assert.Equal(t, 0.0, TokenTileSimilarity([]string{"a", "b"}, []string{"a", "b"}))
	assert.Equal(t, 0.0, TokenTileSimilarity(nil, a))

	b := []string{"x", "a", "b", "c", "d", "e", "y"}
	assert.InDelta(t, 10.0/13.0, TokenTileSimilarity(a, b), 1e-9)
	assert.Equal(t, TokenTileSimilarity(a, b), TokenTileSimilarity(b, a))
}

func TestTokenTilesPositions(t *testing.T) {
	a := strings.Fields("p q r s t u v w x y z")
	b := strings.Fields("z z p q r s t k u v w x y")

	tiles, err := TokenTiles(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, []Tile{{StartA: 0, StartB: 2, Length: 5}, {StartA: 5, StartB: 8, Length: 5}}, tiles)

	swapped, err := TokenTiles(context.Background(), b, a)
	require.NoError(t, err)
	assert.Equal(t, []Tile{{StartA: 2, StartB: 0, Length: 5}, {StartA: 8, StartB: 5, Length: 5}}, swapped)
}

// randomStream draws n tokens from a small vocabulary.
func randomStream(n int, seed uint64) []string {
	vocab := strings.Fields("ID NUM STR = + - * / ( ) [ ] { } , ; . : if for while return def class < > == and or not in")
	r := rand.New(rand.NewPCG(seed, seed+1))
	out := make([]string, n)
	for i := range out {
		out[i] = vocab[r.IntN(len(vocab))]
	}
	return out
}

func TestTokenTilesLargeStreamsFinishQuickly(t *testing.T) {
	a := randomStream(10_000, 7)
	b := make([]string, 0, len(a)+40)
	for i, tok := range a {
		if i > 0 && i%500 == 0 {
			b = append(b, "extra", "extra")
		}
		b = append(b, tok)
	}

	start := time.Now()
	tiles, err := TokenTiles(context.Background(), a, b)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 3*time.Second)
	assert.Greater(t, TileCoverage(tiles, len(a), len(b)), 0.95)
}

func TestTokenTilesRepetitiveStreamsStayBounded(t *testing.T) {
	unit := strings.Fields("ID = ID + NUM")
	var a, b []string
	for i := 0; i < 2_000; i++ {
		a = append(a, unit...)
		b = append(b, unit...)
		if i == 1_000 {
			b = append(b, "return")
		}
	}

	start := time.Now()
	tiles, err := TokenTiles(context.Background(), a, b)
	assert.Less(t, time.Since(start), 3*time.Second)
	if err != nil {
		assert.ErrorIs(t, err, ErrTileBudget)
		return
	}
	assert.Greater(t, TileCoverage(tiles, len(a), len(b)), 0.99)
}

func TestTokenTilesHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := randomStream(2_000, 3)
	_, err := TokenTiles(ctx, a, a)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = NewComparator(0.7).Compare(ctx, Side{Fingerprint: fingerprint.Fingerprint{Tokens: a}}, Side{Fingerprint: fingerprint.Fingerprint{Tokens: a}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCrossSimilarities(t *testing.T) {
	ctx := context.Background()
	pool := NewWorkerPool(ctx, 2)
	defer pool.Close()

	sides := []*Side{
		{Fingerprint: fp(bubble, lang.Python)},
		nil,
		{Fingerprint: fp(bubble, lang.Python)},
		{Fingerprint: fp(fib, lang.JavaScript)},
	}
	got := CrossSimilarities(ctx, pool, NewComparator(0.7), sides)

	require.Len(t, got, 3)
	assert.Equal(t, models.CrossSimilarity{Code1Index: 0, Code2Index: 2, SimilarityScore: 1}, got[0])
	assert.Equal(t, 0, got[1].Code1Index)
	assert.Equal(t, 3, got[1].Code2Index)
	assert.Equal(t, 2, got[2].Code1Index)
}

func TestWorkerPoolDefaultsToAtLeastOneWorker(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 0)
	defer pool.Close()
	assert.GreaterOrEqual(t, pool.Size(), 1)
}

func TestSearchIgnoresTokenlessSnippets(t *testing.T) {
	corpus := []*models.CorpusEntry{
		{ID: "blank", Shingles: []uint64{}},
		entry("bubble", bubble, lang.Python),
	}
	report := NewSearcher(10, 0.3, 2).Search(Query{Fingerprint: fp("# only a comment\n", lang.Python)}, corpus)
	assert.Empty(t, report.Matches)
	assert.Equal(t, 0.0, report.HighestSimilarity)
	assert.Equal(t, 2, report.TotalChecked)
}
