// Package fingerprint reduces a normalized token stream to comparable
// representations: a shingle set for lexical comparison and the canonical
// text that semantic embeddings are computed from.
package fingerprint

import (
	"encoding/hex"
	"math"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
	"gonum.org/v1/gonum/floats"

	"github.com/RishiKendai/codelens/internal/lang"
	"github.com/RishiKendai/codelens/internal/parser"
)

// ShingleSize is the n-gram width; shingles overlap with stride 1.
const ShingleSize = 5

// Fingerprint is the lexical identity of one snippet.
type Fingerprint struct {
	// Shingles is sorted and free of duplicates.
	Shingles []uint64
	// Tokens is the normalized stream the shingles were cut from.
	Tokens []string
	// Lines holds the 1-based source line of each token.
	Lines []int
	// Text is the canonical rendering used as embedding input.
	Text string
	// Key addresses cached derivatives of Text.
	Key string
}

// Build fingerprints a parse result. It never looks at raw source text.
func Build(r *parser.Result) Fingerprint {
	norms := r.Norms()
	text := r.NormalizedText()
	lines := make([]int, len(r.Tokens))
	for i, t := range r.Tokens {
		lines[i] = t.Line
	}
	return Fingerprint{
		Shingles: Shingles(norms, ShingleSize),
		Tokens:   norms,
		Lines:    lines,
		Text:     text,
		Key:      ContentKey(r.Language, text),
	}
}

// Shingles hashes every window of k tokens. A stream shorter than k but not
// empty yields a single shingle over the whole stream.
func Shingles(tokens []string, k int) []uint64 {
	if len(tokens) == 0 {
		return []uint64{}
	}
	if len(tokens) < k {
		return []uint64{hashWindow(tokens)}
	}

	set := make(map[uint64]struct{}, len(tokens)-k+1)
	for i := 0; i <= len(tokens)-k; i++ {
		set[hashWindow(tokens[i:i+k])] = struct{}{}
	}
	out := make([]uint64, 0, len(set))
	for h := range set {
		out = append(out, h)
	}
	slices.Sort(out)
	return out
}

func hashWindow(tokens []string) uint64 {
	d := xxhash.New()
	for _, t := range tokens {
		_, _ = d.WriteString(t)
		_, _ = d.WriteString("\x1f")
	}
	return d.Sum64()
}

// Intersection counts shingles present in both sorted sets.
func Intersection(a, b []uint64) int {
	i, j, n := 0, 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			n++
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return n
}

// Jaccard is |A∩B| / |A∪B| over sorted shingle sets. An empty set carries
// no evidence of copying, so any comparison involving one scores 0.
func Jaccard(a, b []uint64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := Intersection(a, b)
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Cosine similarity of two embeddings, clamped to [0, 1]. Vectors of
// different dimension or zero length compare as 0.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	c := floats.Dot(a, b) / (na * nb)
	return math.Max(0, math.Min(1, c))
}

// ContentKey is the stable hash of a canonical text under a language.
func ContentKey(l lang.Language, text string) string {
	sum := blake3.Sum256([]byte(string(l) + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// ToStored converts shingles for stores without unsigned integers.
func ToStored(s []uint64) []int64 {
	out := make([]int64, len(s))
	for i, v := range s {
		out[i] = int64(v)
	}
	return out
}

// FromStored reverses ToStored and restores sort order.
func FromStored(s []int64) []uint64 {
	out := make([]uint64, len(s))
	for i, v := range s {
		out[i] = uint64(v)
	}
	slices.Sort(out)
	return out
}
