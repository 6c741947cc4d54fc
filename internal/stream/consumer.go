// Package stream ingests reference snippets into the corpus from a Redis
// stream consumed through a consumer group.
package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/RishiKendai/codelens/internal/engine"
	"github.com/RishiKendai/codelens/internal/models"
)

// Ingester adds a reference snippet to the corpus.
type Ingester interface {
	AddToCorpus(ctx context.Context, req models.CorpusAddRequest) (*models.CorpusAddResponse, error)
}

type Consumer struct {
	client              *redis.Client
	streamKey           string
	consumerGroup       string
	consumerName        string
	ingester            Ingester
	retryHandler        *RetryHandler
	retentionDuration   time.Duration
	pelRecoveryInterval time.Duration
	cleanupInterval     time.Duration
	lastPELCheck        time.Time
}

func NewConsumer(
	client *redis.Client,
	streamKey string,
	consumerGroup string,
	consumerName string,
	ingester Ingester,
	retryHandler *RetryHandler,
	retentionDuration time.Duration,
) *Consumer {
	return &Consumer{
		client:              client,
		streamKey:           streamKey,
		consumerGroup:       consumerGroup,
		consumerName:        consumerName,
		ingester:            ingester,
		retryHandler:        retryHandler,
		retentionDuration:   retentionDuration,
		pelRecoveryInterval: 30 * time.Second,
		cleanupInterval:     time.Hour,
		lastPELCheck:        time.Now(),
	}
}

// Start blocks until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.createConsumerGroup(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to create consumer group")
	}

	// Messages claimed by a crashed consumer are still pending.
	if err := c.recoverPEL(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to recover pending messages on startup")
	}
	c.lastPELCheck = time.Now()

	go c.runCleanupPeriodically(ctx)
	log.Info().
		Str("stream", c.streamKey).
		Str("consumer", c.consumerName).
		Dur("retention", c.retentionDuration).
		Msg("Corpus stream consumer started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := c.consume(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("Error consuming messages")
				time.Sleep(time.Second)
			}
		}
	}
}

func (c *Consumer) createConsumerGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.streamKey, c.consumerGroup, "$").Err()
	if err != nil {
		if strings.Contains(err.Error(), "BUSYGROUP") {
			log.Debug().Str("group", c.consumerGroup).Msg("Consumer group already exists")
			return nil
		}
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	log.Info().Str("group", c.consumerGroup).Str("stream", c.streamKey).Msg("Created consumer group")
	return nil
}

// recoverPEL claims messages idle in the pending entry list for over a
// minute and processes them.
func (c *Consumer) recoverPEL(ctx context.Context) error {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: c.streamKey,
		Group:  c.consumerGroup,
		Start:  "-",
		End:    "+",
		Count:  100,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get pending messages: %w", err)
	}

	const minIdle = time.Minute
	ids := make([]string, 0, len(pending))
	for _, p := range pending {
		if p.Idle >= minIdle {
			ids = append(ids, p.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	claimed, err := c.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   c.streamKey,
		Group:    c.consumerGroup,
		Consumer: c.consumerName,
		MinIdle:  minIdle,
		Messages: ids,
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to claim messages: %w", err)
	}

	log.Info().Int("claimed", len(claimed)).Msg("Claimed pending messages")
	for _, msg := range claimed {
		c.handle(ctx, msg)
	}
	return nil
}

func (c *Consumer) consume(ctx context.Context) error {
	if time.Since(c.lastPELCheck) > c.pelRecoveryInterval {
		if err := c.recoverPEL(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to recover pending messages")
		}
		c.lastPELCheck = time.Now()
	}

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.consumerGroup,
		Consumer: c.consumerName,
		Streams:  []string{c.streamKey, ">"},
		Count:    10,
		Block:    time.Second,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, stream := range streams {
		if stream.Stream != c.streamKey {
			continue
		}
		for _, msg := range stream.Messages {
			c.handle(ctx, msg)
		}
	}
	return nil
}

func (c *Consumer) handle(ctx context.Context, msg redis.XMessage) {
	sm := toStreamMessage(msg)
	if ack := c.process(ctx, sm); ack {
		c.acknowledge(ctx, sm.ID)
	}
}

// process ingests one message. It reports whether the message is done with
// and can be acknowledged: ingested, unparseable or dead-lettered.
func (c *Consumer) process(ctx context.Context, msg *StreamMessage) bool {
	req, err := ParseCorpusEntry(msg)
	if err != nil {
		log.Error().Err(err).Str("message_id", msg.ID).Msg("Dropping malformed corpus message")
		return true
	}

	fields := make(map[string]interface{}, len(msg.Fields))
	for k, v := range msg.Fields {
		fields[k] = v
	}

	err = c.retryHandler.RetryWithBackoff(ctx, func() error {
		resp, err := c.ingester.AddToCorpus(ctx, *req)
		if err != nil {
			if engine.KindOf(err) == engine.KindInput {
				return fmt.Errorf("%w: %w", ErrPermanent, err)
			}
			return err
		}
		log.Debug().Str("message_id", msg.ID).Str("id", resp.ID).Bool("added", resp.Added).Msg("Corpus message ingested")
		return nil
	}, msg.ID, fields)

	// Shutdown mid-retry leaves the message pending for the next consumer.
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func toStreamMessage(msg redis.XMessage) *StreamMessage {
	fields := make(map[string]string, len(msg.Values))
	for k, v := range msg.Values {
		if s, ok := v.(string); ok {
			fields[k] = s
		}
	}
	return &StreamMessage{ID: msg.ID, Fields: fields}
}

// cleanupOldMessages trims entries older than the retention window.
func (c *Consumer) cleanupOldMessages(ctx context.Context) error {
	cutoff := time.Now().Add(-c.retentionDuration)
	trimmed, err := c.client.XTrimMinID(ctx, c.streamKey, MinIDFor(cutoff)).Result()
	if err != nil {
		return fmt.Errorf("failed to trim stream: %w", err)
	}
	if trimmed > 0 {
		log.Debug().
			Int64("trimmed", trimmed).
			Str("cutoff_time", cutoff.Format(time.RFC3339)).
			Msg("Trimmed old corpus messages")
	}
	return nil
}

// MinIDFor is the smallest stream ID created at or after t.
func MinIDFor(t time.Time) string {
	return fmt.Sprintf("%d-0", t.UnixMilli())
}

func (c *Consumer) runCleanupPeriodically(ctx context.Context) {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	if err := c.cleanupOldMessages(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to run initial cleanup")
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.cleanupOldMessages(ctx); err != nil {
				log.Error().Err(err).Msg("Failed to clean up old messages")
			}
		}
	}
}

func (c *Consumer) acknowledge(ctx context.Context, messageID string) {
	if err := c.client.XAck(ctx, c.streamKey, c.consumerGroup, messageID).Err(); err != nil {
		log.Error().Err(err).Str("message_id", messageID).Msg("Failed to acknowledge message")
		return
	}
	log.Debug().Str("message_id", messageID).Msg("Message acknowledged")
}
