package plagiarism

import (
	"context"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/RishiKendai/codelens/internal/models"
)

// Pair indexes two snippets of a batch.
type Pair struct {
	I, J int
}

// PairScore is the result of one pair job.
type PairScore struct {
	Pair  Pair
	Score float64
}

// CrossSimilarityJob scores one pair of a batch.
type CrossSimilarityJob struct {
	Pair       Pair
	A, B       Side
	Comparator *Comparator
	ResultChan chan<- PairScore
}

func (j *CrossSimilarityJob) Execute(ctx context.Context) error {
	score := j.Comparator.Score(j.A, j.B)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case j.ResultChan <- PairScore{Pair: j.Pair, Score: score}:
		return nil
	}
}

// CrossSimilarities scores every pair of the given sides on the pool. nil
// sides are skipped. Results are ordered by (code1_index, code2_index). If
// ctx ends early the pairs scored so far are returned.
func CrossSimilarities(ctx context.Context, pool *WorkerPool, comparator *Comparator, sides []*Side) []models.CrossSimilarity {
	var pairs []Pair
	for i := range sides {
		for j := i + 1; j < len(sides); j++ {
			if sides[i] != nil && sides[j] != nil {
				pairs = append(pairs, Pair{I: i, J: j})
			}
		}
	}
	out := make([]models.CrossSimilarity, 0, len(pairs))
	if len(pairs) == 0 {
		return out
	}

	resultChan := make(chan PairScore, len(pairs))
	submitted := 0
	for _, p := range pairs {
		job := &CrossSimilarityJob{
			Pair:       p,
			A:          *sides[p.I],
			B:          *sides[p.J],
			Comparator: comparator,
			ResultChan: resultChan,
		}
		if err := pool.Submit(ctx, job); err != nil {
			log.Error().Err(err).Msg("Failed to submit job")
			break
		}
		submitted++
	}

collect:
	for received := 0; received < submitted; received++ {
		select {
		case <-ctx.Done():
			break collect
		case r := <-resultChan:
			out = append(out, models.CrossSimilarity{
				Code1Index:      r.Pair.I,
				Code2Index:      r.Pair.J,
				SimilarityScore: r.Score,
			})
		}
	}

	slices.SortFunc(out, func(a, b models.CrossSimilarity) int {
		if a.Code1Index != b.Code1Index {
			return a.Code1Index - b.Code1Index
		}
		return a.Code2Index - b.Code2Index
	})
	return out
}
