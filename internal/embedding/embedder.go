package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"github.com/RishiKendai/codelens/internal/observability"
)

// Item is one text to embed, addressed by its content key.
type Item struct {
	Key  string
	Text string
}

// MaxBatchTexts is the most texts sent to the provider in one request.
const MaxBatchTexts = 96

// Embedder fronts a Provider with a cache and a per-call deadline. A nil
// provider leaves the Embedder disabled.
type Embedder struct {
	provider  Provider
	cache     Cache
	timeout   time.Duration
	namespace string
	batchSize int
}

// NewEmbedder wires an embedder. namespace separates cache entries produced
// by different models.
func NewEmbedder(provider Provider, cache Cache, timeout time.Duration, namespace string) *Embedder {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Embedder{provider: provider, cache: cache, timeout: timeout, namespace: namespace, batchSize: MaxBatchTexts}
}

// WithBatchSize caps the texts per provider request. n <= 0 keeps the
// current size.
func (e *Embedder) WithBatchSize(n int) *Embedder {
	if n > 0 {
		e.batchSize = n
	}
	return e
}

func (e *Embedder) Enabled() bool {
	return e != nil && e.provider != nil
}

// Embed returns one vector per item. Cached items never reach the provider.
// Misses are sent in batches of at most MaxBatchTexts, all under a single
// deadline.
func (e *Embedder) Embed(ctx context.Context, items []Item) ([][]float64, error) {
	if !e.Enabled() {
		return nil, ErrDisabled
	}

	out := make([][]float64, len(items))
	var missIdx []int
	var missTexts []string
	for i, it := range items {
		if v, ok := e.cache.Get(ctx, e.cacheKey(it.Key)); ok {
			out[i] = v
			observability.EmbeddingCache.WithLabelValues("hit").Inc()
			continue
		}
		observability.EmbeddingCache.WithLabelValues("miss").Inc()
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, it.Text)
	}
	if len(missIdx) == 0 {
		return out, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	vecs, err := e.call(callCtx, missTexts)
	if err != nil {
		log.Warn().Err(err).Int("texts", len(missTexts)).Dur("elapsed", time.Since(start)).Msg("Embedding provider failed")
		return nil, fmt.Errorf("embed %d texts: %w", len(missTexts), err)
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("provider returned %d vectors for %d texts", len(vecs), len(missTexts))
	}

	for j, i := range missIdx {
		out[i] = vecs[j]
		e.cache.Put(ctx, e.cacheKey(items[i].Key), vecs[j])
	}
	return out, nil
}

type embedResult struct {
	vecs [][]float64
	err  error
}

// call returns when the provider answers or the deadline passes, whichever
// comes first.
func (e *Embedder) call(ctx context.Context, texts []string) ([][]float64, error) {
	ch := make(chan embedResult, 1)
	go func() {
		vecs, err := e.batches(ctx, texts)
		ch <- embedResult{vecs, err}
	}()
	select {
	case r := <-ch:
		return r.vecs, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// batches fans texts out in chunks of batchSize and reassembles the vectors
// in input order. The first failing chunk cancels the rest.
func (e *Embedder) batches(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) <= e.batchSize {
		return e.provider.Embed(ctx, texts)
	}

	out := make([][]float64, len(texts))
	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError().WithMaxGoroutines(4)
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		p.Go(func(ctx context.Context) error {
			vecs, err := e.provider.Embed(ctx, texts[start:end])
			if err != nil {
				return err
			}
			if len(vecs) != end-start {
				return fmt.Errorf("provider returned %d vectors for %d texts", len(vecs), end-start)
			}
			copy(out[start:end], vecs)
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Embedder) cacheKey(key string) string {
	return e.namespace + ":" + key
}
