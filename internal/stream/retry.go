package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DeadLetter is a message that kept failing after every retry.
type DeadLetter struct {
	MessageID string                 `json:"message_id"`
	Fields    map[string]interface{} `json:"fields"`
	Error     string                 `json:"error"`
	Attempts  int                    `json:"attempts"`
	FailedAt  time.Time              `json:"failed_at"`
}

// DeadLetterQueue stores messages that could not be processed.
type DeadLetterQueue interface {
	Push(ctx context.Context, letter DeadLetter) error
}

// RedisDeadLetterQueue appends dead letters as JSON to a Redis list.
type RedisDeadLetterQueue struct {
	client redis.Cmdable
	key    string
}

func NewRedisDeadLetterQueue(client redis.Cmdable, key string) *RedisDeadLetterQueue {
	return &RedisDeadLetterQueue{client: client, key: key}
}

func (q *RedisDeadLetterQueue) Push(ctx context.Context, letter DeadLetter) error {
	data, err := json.Marshal(letter)
	if err != nil {
		return fmt.Errorf("failed to marshal dead letter: %w", err)
	}
	if err := q.client.RPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("failed to push dead letter: %w", err)
	}
	return nil
}

// ErrPermanent marks an error that retrying cannot fix.
var ErrPermanent = errors.New("permanent failure")

// RetryHandler retries an operation with exponential backoff and hands the
// message to the dead-letter queue once attempts run out.
type RetryHandler struct {
	deadLetters DeadLetterQueue
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

func NewRetryHandler(deadLetters DeadLetterQueue, maxAttempts int, baseDelay, maxDelay time.Duration) *RetryHandler {
	return &RetryHandler{
		deadLetters: deadLetters,
		maxAttempts: max(1, maxAttempts),
		baseDelay:   baseDelay,
		maxDelay:    maxDelay,
	}
}

func (h *RetryHandler) backoff(attempt int) time.Duration {
	if attempt > 30 {
		return h.maxDelay
	}
	d := h.baseDelay << (attempt - 1)
	if d <= 0 || d > h.maxDelay {
		return h.maxDelay
	}
	return d
}

// RetryWithBackoff runs fn until it succeeds, fails permanently or runs out
// of attempts. Exhausted and permanent failures are dead-lettered.
func (h *RetryHandler) RetryWithBackoff(ctx context.Context, fn func() error, messageID string, fields map[string]interface{}) error {
	var err error
	attempt := 1
	for ; attempt <= h.maxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if errors.Is(err, ErrPermanent) || attempt == h.maxAttempts {
			break
		}

		delay := h.backoff(attempt)
		log.Warn().
			Err(err).
			Str("message_id", messageID).
			Int("attempt", attempt).
			Dur("retry_in", delay).
			Msg("Processing failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	letter := DeadLetter{
		MessageID: messageID,
		Fields:    fields,
		Error:     err.Error(),
		Attempts:  min(attempt, h.maxAttempts),
		FailedAt:  time.Now().UTC(),
	}
	if dlqErr := h.deadLetters.Push(ctx, letter); dlqErr != nil {
		log.Error().Err(dlqErr).Str("message_id", messageID).Msg("Failed to dead-letter message")
		return errors.Join(err, dlqErr)
	}
	log.Error().
		Err(err).
		Str("message_id", messageID).
		Int("attempts", letter.Attempts).
		Msg("Message moved to dead-letter queue")
	return err
}
