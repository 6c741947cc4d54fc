package fingerprint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RishiKendai/codelens/internal/lang"
	"github.com/RishiKendai/codelens/internal/parser"
)

func build(src string, l lang.Language) Fingerprint {
	return Build(parser.Parse(context.Background(), src, l))
}

func TestShingles(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   int
	}{
		{"empty", nil, 0},
		{"shorter than k", []string{"a", "b"}, 1},
		{"exactly k", []string{"a", "b", "c", "d", "e"}, 1},
		{"sliding", []string{"a", "b", "c", "d", "e", "f", "g"}, 3},
		{"repeated windows collapse", []string{"x", "x", "x", "x", "x", "x", "x"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Shingles(tt.tokens, ShingleSize)
			assert.Len(t, s, tt.want)
			assert.IsNonDecreasing(t, s)
		})
	}
}

func TestShingleBoundariesDoNotCollide(t *testing.T) {
	a := Shingles([]string{"ab", "c"}, ShingleSize)
	b := Shingles([]string{"a", "bc"}, ShingleSize)
	assert.NotEqual(t, a, b)
}

func TestBuildRecordsTokenLines(t *testing.T) {
	fp := build("x = 1\n\n# note\ny = x\n", lang.Python)
	require.Len(t, fp.Lines, len(fp.Tokens))
	assert.Equal(t, []int{1, 1, 1, 4, 4, 4}, fp.Lines)
}

func TestJaccard(t *testing.T) {
	assert.Equal(t, 0.0, Jaccard(nil, nil))
	assert.Equal(t, 0.0, Jaccard([]uint64{}, []uint64{}))
	assert.Equal(t, 0.0, Jaccard([]uint64{1}, nil))
	assert.Equal(t, 1.0, Jaccard([]uint64{1, 2, 3}, []uint64{1, 2, 3}))
	assert.InDelta(t, 0.5, Jaccard([]uint64{1, 2, 3}, []uint64{2, 3, 4}), 1e-9)
	assert.Equal(t, 2, Intersection([]uint64{1, 2, 3}, []uint64{2, 3, 4}))
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.Equal(t, 0.0, Cosine([]float64{1, 0}, []float64{-1, 0}))
	assert.Equal(t, 0.0, Cosine([]float64{1, 2}, []float64{1, 2, 3}))
	assert.Equal(t, 0.0, Cosine([]float64{0, 0}, []float64{1, 1}))
}

func TestFormattingInvariance(t *testing.T) {
	a := build("def add(a, b):\n    return a + b\n", lang.Python)
	b := build("def add(a,b):\n\n        # sum\n        return a+b\n", lang.Python)
	require.NotEmpty(t, a.Shingles)
	assert.Equal(t, a.Shingles, b.Shingles)
	assert.Equal(t, a.Key, b.Key)

	third := build("def mul(a, b):\n    return a * b\n", lang.Python)
	assert.Equal(t, Jaccard(a.Shingles, third.Shingles), Jaccard(b.Shingles, third.Shingles))
}

func TestRenamingKeepsShinglesButChangesKey(t *testing.T) {
	a := build("def add(a, b):\n    return a + b\n", lang.Python)
	b := build("def plus(x, y):\n    return x + y\n", lang.Python)
	assert.Equal(t, a.Shingles, b.Shingles)
	assert.NotEqual(t, a.Key, b.Key)
}

func TestContentKeyIncludesLanguage(t *testing.T) {
	assert.NotEqual(t, ContentKey(lang.Python, "x"), ContentKey(lang.Ruby, "x"))
	assert.Len(t, ContentKey(lang.Python, "x"), 64)
}

func TestStoredRoundTripKeepsOrder(t *testing.T) {
	in := []uint64{3, 1 << 63, 7}
	got := FromStored(ToStored(in))
	assert.Equal(t, []uint64{3, 7, 1 << 63}, got)
}
