package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RishiKendai/codelens/internal/engine"
	"github.com/RishiKendai/codelens/internal/models"
)

type memoryDLQ struct {
	letters []DeadLetter
	err     error
}

func (q *memoryDLQ) Push(_ context.Context, l DeadLetter) error {
	if q.err != nil {
		return q.err
	}
	q.letters = append(q.letters, l)
	return nil
}

type fakeIngester struct {
	calls int
	errs  []error
	got   []models.CorpusAddRequest
}

func (f *fakeIngester) AddToCorpus(_ context.Context, req models.CorpusAddRequest) (*models.CorpusAddResponse, error) {
	f.calls++
	f.got = append(f.got, req)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &models.CorpusAddResponse{ID: "x", Added: true}, nil
}

func TestParseCorpusEntry(t *testing.T) {
	tests := []struct {
		name    string
		fields  map[string]string
		want    *models.CorpusAddRequest
		wantErr bool
	}{
		{
			name:   "all fields",
			fields: map[string]string{"id": " 42 ", "code": "print(1)", "language": "python", "description": "d", "source": "s"},
			want:   &models.CorpusAddRequest{ID: "42", Code: "print(1)", Language: "python", Description: "d", Source: "s"},
		},
		{
			name:   "defaults source",
			fields: map[string]string{"code": "x = 1"},
			want:   &models.CorpusAddRequest{Code: "x = 1", Source: "stream"},
		},
		{name: "missing code", fields: map[string]string{"id": "1"}, wantErr: true},
		{name: "blank code", fields: map[string]string{"code": "  \n"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCorpusEntry(&StreamMessage{ID: "1-0", Fields: tt.fields})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRetryWithBackoff(t *testing.T) {
	transient := errors.New("store down")

	t.Run("succeeds after retries", func(t *testing.T) {
		dlq := &memoryDLQ{}
		h := NewRetryHandler(dlq, 3, time.Millisecond, 5*time.Millisecond)
		calls := 0
		err := h.RetryWithBackoff(context.Background(), func() error {
			calls++
			if calls < 3 {
				return transient
			}
			return nil
		}, "1-0", nil)
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Empty(t, dlq.letters)
	})

	t.Run("exhausted goes to dead letter", func(t *testing.T) {
		dlq := &memoryDLQ{}
		h := NewRetryHandler(dlq, 2, time.Millisecond, time.Millisecond)
		err := h.RetryWithBackoff(context.Background(), func() error { return transient }, "2-0", map[string]interface{}{"code": "x"})
		assert.ErrorIs(t, err, transient)
		require.Len(t, dlq.letters, 1)
		assert.Equal(t, "2-0", dlq.letters[0].MessageID)
		assert.Equal(t, 2, dlq.letters[0].Attempts)
		assert.Equal(t, "store down", dlq.letters[0].Error)
	})

	t.Run("permanent is not retried", func(t *testing.T) {
		dlq := &memoryDLQ{}
		h := NewRetryHandler(dlq, 5, time.Millisecond, time.Millisecond)
		calls := 0
		err := h.RetryWithBackoff(context.Background(), func() error {
			calls++
			return ErrPermanent
		}, "3-0", nil)
		assert.ErrorIs(t, err, ErrPermanent)
		assert.Equal(t, 1, calls)
		assert.Len(t, dlq.letters, 1)
	})

	t.Run("dead letter failure is joined", func(t *testing.T) {
		dlqErr := errors.New("redis gone")
		h := NewRetryHandler(&memoryDLQ{err: dlqErr}, 1, time.Millisecond, time.Millisecond)
		err := h.RetryWithBackoff(context.Background(), func() error { return transient }, "4-0", nil)
		assert.ErrorIs(t, err, transient)
		assert.ErrorIs(t, err, dlqErr)
	})

	t.Run("cancelled while waiting", func(t *testing.T) {
		dlq := &memoryDLQ{}
		h := NewRetryHandler(dlq, 3, time.Hour, time.Hour)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := h.RetryWithBackoff(ctx, func() error { return transient }, "5-0", nil)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, dlq.letters)
	})
}

func TestBackoffIsCapped(t *testing.T) {
	h := NewRetryHandler(&memoryDLQ{}, 10, 100*time.Millisecond, time.Second)
	assert.Equal(t, 100*time.Millisecond, h.backoff(1))
	assert.Equal(t, 200*time.Millisecond, h.backoff(2))
	assert.Equal(t, 800*time.Millisecond, h.backoff(4))
	assert.Equal(t, time.Second, h.backoff(5))
	assert.Equal(t, time.Second, h.backoff(80))
}

func TestProcess(t *testing.T) {
	msg := &StreamMessage{ID: "1-0", Fields: map[string]string{"code": "x = 1", "language": "python"}}

	t.Run("ingests and acks", func(t *testing.T) {
		ing := &fakeIngester{}
		c := NewConsumer(nil, "s", "g", "c", ing, NewRetryHandler(&memoryDLQ{}, 3, time.Millisecond, time.Millisecond), time.Hour)
		assert.True(t, c.process(context.Background(), msg))
		require.Len(t, ing.got, 1)
		assert.Equal(t, "python", ing.got[0].Language)
	})

	t.Run("malformed is acked without ingesting", func(t *testing.T) {
		ing := &fakeIngester{}
		c := NewConsumer(nil, "s", "g", "c", ing, NewRetryHandler(&memoryDLQ{}, 3, time.Millisecond, time.Millisecond), time.Hour)
		assert.True(t, c.process(context.Background(), &StreamMessage{ID: "2-0", Fields: map[string]string{}}))
		assert.Zero(t, ing.calls)
	})

	t.Run("input errors are dead-lettered at once", func(t *testing.T) {
		dlq := &memoryDLQ{}
		ing := &fakeIngester{errs: []error{&engine.Error{Kind: engine.KindInput, Message: "bad"}}}
		c := NewConsumer(nil, "s", "g", "c", ing, NewRetryHandler(dlq, 3, time.Millisecond, time.Millisecond), time.Hour)
		assert.True(t, c.process(context.Background(), msg))
		assert.Equal(t, 1, ing.calls)
		require.Len(t, dlq.letters, 1)
		assert.Equal(t, "x = 1", dlq.letters[0].Fields["code"])
	})

	t.Run("transient errors are retried", func(t *testing.T) {
		ing := &fakeIngester{errs: []error{errors.New("timeout"), nil}}
		c := NewConsumer(nil, "s", "g", "c", ing, NewRetryHandler(&memoryDLQ{}, 3, time.Millisecond, time.Millisecond), time.Hour)
		assert.True(t, c.process(context.Background(), msg))
		assert.Equal(t, 2, ing.calls)
	})

	t.Run("shutdown leaves message pending", func(t *testing.T) {
		ing := &fakeIngester{errs: []error{errors.New("timeout")}}
		c := NewConsumer(nil, "s", "g", "c", ing, NewRetryHandler(&memoryDLQ{}, 3, time.Hour, time.Hour), time.Hour)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.False(t, c.process(ctx, msg))
	})
}

func TestMinIDFor(t *testing.T) {
	ts := time.UnixMilli(1700000000123)
	assert.Equal(t, "1700000000123-0", MinIDFor(ts))
}
