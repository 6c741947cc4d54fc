package plagiarism

import (
	"context"
	"errors"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// MinTileLength is the shortest run of tokens counted as a tile.
const MinTileLength = 5

const (
	// initialSearchLength is the first window size scanned; longer matches
	// restart the scan at their own length.
	initialSearchLength = 20

	// maxTileWork bounds candidate visits plus extension steps for one
	// tiling. Pathologically repetitive streams stop here.
	maxTileWork = 50_000_000

	ctxCheckEvery = 1024

	hashBase = 1099511628211
)

// ErrTileBudget is returned when tiling exceeds its work budget.
var ErrTileBudget = errors.New("token tiling exceeded work budget")

// Tile is a run of Length equal tokens starting at StartA in the first
// stream and StartB in the second.
type Tile struct {
	StartA, StartB, Length int
}

// TokenTiles finds non-overlapping common runs of at least MinTileLength
// tokens with Running Karp-Rabin Greedy String Tiling. Tiles are ordered by
// StartA. The tiling does not depend on argument order apart from which
// stream is reported as A.
func TokenTiles(ctx context.Context, tokensA, tokensB []string) ([]Tile, error) {
	if len(tokensA) < MinTileLength || len(tokensB) < MinTileLength {
		return []Tile{}, nil
	}
	swapped := slices.Compare(tokensA, tokensB) > 0
	if swapped {
		tokensA, tokensB = tokensB, tokensA
	}

	t := newTiler(tokensA, tokensB)
	tiles, err := t.run(ctx, MinTileLength)
	if err != nil {
		return nil, err
	}
	if swapped {
		for i := range tiles {
			tiles[i].StartA, tiles[i].StartB = tiles[i].StartB, tiles[i].StartA
		}
	}
	slices.SortFunc(tiles, func(x, y Tile) int {
		if x.StartA != y.StartA {
			return x.StartA - y.StartA
		}
		return x.StartB - y.StartB
	})
	return tiles, nil
}

// TileCoverage is the share of both streams covered by tiles:
// 2 * matched / (lenA + lenB).
func TileCoverage(tiles []Tile, lenA, lenB int) float64 {
	if lenA+lenB == 0 {
		return 0
	}
	matched := 0
	for _, t := range tiles {
		matched += t.Length
	}
	return 2.0 * float64(matched) / float64(lenA+lenB)
}

// TokenTileSimilarity is TileCoverage of TokenTiles, or 0 when tiling does
// not finish.
func TokenTileSimilarity(tokensA, tokensB []string) float64 {
	tiles, err := TokenTiles(context.Background(), tokensA, tokensB)
	if err != nil {
		return 0
	}
	return TileCoverage(tiles, len(tokensA), len(tokensB))
}

type tiler struct {
	a, b       []uint64
	ta, tb     []string
	prefA      []uint64
	prefB      []uint64
	pow        []uint64
	markedA    []bool
	markedB    []bool
	work       int
	candidates map[uint64][]int
}

func newTiler(tokensA, tokensB []string) *tiler {
	t := &tiler{
		a:       tokenIDs(tokensA),
		b:       tokenIDs(tokensB),
		ta:      tokensA,
		tb:      tokensB,
		markedA: make([]bool, len(tokensA)),
		markedB: make([]bool, len(tokensB)),
	}
	t.prefA = prefixHashes(t.a)
	t.prefB = prefixHashes(t.b)
	t.pow = make([]uint64, max(len(t.a), len(t.b))+1)
	t.pow[0] = 1
	for i := 1; i < len(t.pow); i++ {
		t.pow[i] = t.pow[i-1] * hashBase
	}
	return t
}

func tokenIDs(tokens []string) []uint64 {
	out := make([]uint64, len(tokens))
	for i, tok := range tokens {
		out[i] = xxhash.Sum64String(tok)
	}
	return out
}

func prefixHashes(ids []uint64) []uint64 {
	h := make([]uint64, len(ids)+1)
	for i, id := range ids {
		h[i+1] = h[i]*hashBase + id
	}
	return h
}

func (t *tiler) window(pref []uint64, i, s int) uint64 {
	return pref[i+s] - pref[i]*t.pow[s]
}

// run alternates scanning and marking, halving the search length until it
// reaches minLength, and keeps marking at minLength until nothing new is
// found.
func (t *tiler) run(ctx context.Context, minLength int) ([]Tile, error) {
	tiles := []Tile{}
	s := max(initialSearchLength, minLength)
	for {
		longest, matches, err := t.scan(ctx, s)
		if err != nil {
			return nil, err
		}
		if longest > 2*s {
			s = longest
			continue
		}
		marked := t.mark(matches, &tiles)
		switch {
		case s > 2*minLength:
			s /= 2
		case s > minLength:
			s = minLength
		case marked == 0:
			return tiles, nil
		}
	}
}

// scan collects maximal unmarked matches of at least s tokens. It stops
// early with the length of the first match longer than 2s.
func (t *tiler) scan(ctx context.Context, s int) (int, []Tile, error) {
	freeA := freeRuns(t.markedA)
	freeB := freeRuns(t.markedB)

	clear(t.candidates)
	if t.candidates == nil {
		t.candidates = make(map[uint64][]int)
	}
	for j := 0; j+s <= len(t.b); j++ {
		if freeB[j] >= s {
			h := t.window(t.prefB, j, s)
			t.candidates[h] = append(t.candidates[h], j)
		}
	}

	longest := 0
	var matches []Tile
	for i := 0; i+s <= len(t.a); i++ {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return 0, nil, err
			}
		}
		if freeA[i] < s {
			continue
		}
		for _, j := range t.candidates[t.window(t.prefA, i, s)] {
			t.work++
			if t.work > maxTileWork {
				return 0, nil, ErrTileBudget
			}
			// Not left-maximal: the same run is found from (i-1, j-1).
			if i > 0 && j > 0 && !t.markedA[i-1] && !t.markedB[j-1] && t.ta[i-1] == t.tb[j-1] {
				continue
			}
			k := 0
			for i+k < len(t.a) && j+k < len(t.b) && !t.markedA[i+k] && !t.markedB[j+k] && t.ta[i+k] == t.tb[j+k] {
				k++
			}
			t.work += k
			if k < s {
				continue
			}
			if k > 2*s {
				return k, nil, nil
			}
			matches = append(matches, Tile{StartA: i, StartB: j, Length: k})
			longest = max(longest, k)
		}
	}
	return longest, matches, nil
}

// mark turns matches into tiles, longest first, skipping any that overlap
// tokens already tiled.
func (t *tiler) mark(matches []Tile, tiles *[]Tile) int {
	slices.SortFunc(matches, func(x, y Tile) int {
		switch {
		case x.Length != y.Length:
			return y.Length - x.Length
		case x.StartA != y.StartA:
			return x.StartA - y.StartA
		default:
			return x.StartB - y.StartB
		}
	})
	marked := 0
	for _, m := range matches {
		if slices.Contains(t.markedA[m.StartA:m.StartA+m.Length], true) ||
			slices.Contains(t.markedB[m.StartB:m.StartB+m.Length], true) {
			continue
		}
		for k := 0; k < m.Length; k++ {
			t.markedA[m.StartA+k] = true
			t.markedB[m.StartB+k] = true
		}
		*tiles = append(*tiles, m)
		marked++
	}
	return marked
}

// freeRuns[i] is the number of consecutive unmarked tokens starting at i.
func freeRuns(marked []bool) []int {
	out := make([]int, len(marked)+1)
	for i := len(marked) - 1; i >= 0; i-- {
		if !marked[i] {
			out[i] = out[i+1] + 1
		}
	}
	return out
}
