package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	calls    atomic.Int32
	delay    time.Duration
	err      error
	maxTexts int
}

func (f *fakeProvider) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	f.calls.Add(1)
	if f.maxTexts > 0 && len(texts) > f.maxTexts {
		return nil, fmt.Errorf("too many texts: %d", len(texts))
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = []float64{float64(len(t)), 1}
	}
	return out, nil
}

func TestEmbedderCachesByKey(t *testing.T) {
	p := &fakeProvider{}
	e := NewEmbedder(p, NewMemoryCache(), time.Second, "m")
	ctx := context.Background()

	first, err := e.Embed(ctx, []Item{{Key: "a", Text: "abc"}, {Key: "b", Text: "de"}})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{3, 1}, {2, 1}}, first)

	second, err := e.Embed(ctx, []Item{{Key: "a", Text: "ignored"}})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{3, 1}}, second)
	assert.EqualValues(t, 1, p.calls.Load())
}

func TestEmbedderSplitsLargeBatches(t *testing.T) {
	p := &fakeProvider{maxTexts: MaxBatchTexts}
	e := NewEmbedder(p, nil, time.Second, "m")

	items := make([]Item, 2*MaxBatchTexts+5)
	for i := range items {
		items[i] = Item{Key: fmt.Sprintf("k%d", i), Text: strings.Repeat("x", i+1)}
	}
	vecs, err := e.Embed(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, vecs, len(items))
	for i, v := range vecs {
		assert.Equal(t, []float64{float64(i + 1), 1}, v, "item %d", i)
	}
	assert.EqualValues(t, 3, p.calls.Load())
}

func TestEmbedderBatchFailureFailsCall(t *testing.T) {
	p := &fakeProvider{maxTexts: 2}
	e := NewEmbedder(p, nil, time.Second, "m").WithBatchSize(3)

	items := []Item{{Key: "a", Text: "a"}, {Key: "b", Text: "b"}, {Key: "c", Text: "c"}, {Key: "d", Text: "d"}}
	_, err := e.Embed(context.Background(), items)
	require.Error(t, err)
	assert.Equal(t, ReasonError, Reason(err))
}

func TestEmbedderTimeoutDegrades(t *testing.T) {
	p := &fakeProvider{delay: 200 * time.Millisecond}
	e := NewEmbedder(p, nil, 20*time.Millisecond, "m")

	start := time.Now()
	_, err := e.Embed(context.Background(), []Item{{Key: "a", Text: "x"}})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 150*time.Millisecond)
	assert.Equal(t, ReasonTimeout, Reason(err))
}

func TestEmbedderProviderError(t *testing.T) {
	e := NewEmbedder(&fakeProvider{err: errors.New("boom")}, nil, time.Second, "m")
	_, err := e.Embed(context.Background(), []Item{{Key: "a", Text: "x"}})
	require.Error(t, err)
	assert.Equal(t, ReasonError, Reason(err))
}

func TestDisabledEmbedder(t *testing.T) {
	var nilEmbedder *Embedder
	assert.False(t, nilEmbedder.Enabled())

	e := NewEmbedder(nil, nil, time.Second, "m")
	_, err := e.Embed(context.Background(), []Item{{Key: "a", Text: "x"}})
	assert.ErrorIs(t, err, ErrDisabled)
	assert.Equal(t, ReasonDisabled, Reason(err))
}

func TestMemoryCacheIsAppendOnly(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	c.Put(ctx, "k", []float64{1})
	c.Put(ctx, "k", []float64{2})

	v, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []float64{1}, v)
	assert.Equal(t, 1, c.Len())
}

func TestTieredCachePromotesSharedHits(t *testing.T) {
	local, shared := NewMemoryCache(), NewMemoryCache()
	ctx := context.Background()
	shared.Put(ctx, "k", []float64{4})

	tc := NewTieredCache(local, shared)
	v, ok := tc.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []float64{4}, v)

	_, ok = local.Get(ctx, "k")
	assert.True(t, ok)
}

func TestCohereClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embed", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req cohereRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "embed-english-v3.0", req.Model)
		assert.Equal(t, "search_document", req.InputType)

		vecs := make([][]float64, len(req.Texts))
		for i := range vecs {
			vecs[i] = []float64{0.1, 0.2}
		}
		_ = json.NewEncoder(w).Encode(cohereResponse{ID: "r1", Embeddings: vecs})
	}))
	defer srv.Close()

	c := NewCohereClient(srv.URL+"/", "secret", "embed-english-v3.0")
	vecs, err := c.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
}

func TestCohereClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid api token"}`))
	}))
	defer srv.Close()

	_, err := NewCohereClient(srv.URL, "bad", "m").Embed(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api token")
}
