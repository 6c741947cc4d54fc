// Package redis owns the Redis connection.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const pingTimeout = 5 * time.Second

type Client struct {
	Client *redis.Client
}

// NewClient connects and pings before returning.
func NewClient(ctx context.Context, host, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     host,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping Redis at %s: %w", host, err)
	}

	log.Info().Str("host", host).Int("db", db).Msg("Connected to Redis")
	return &Client{Client: rdb}, nil
}

func (c *Client) Close() {
	if err := c.Client.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close Redis client")
	}
}
