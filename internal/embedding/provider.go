// Package embedding turns canonical snippet text into dense vectors through
// an external provider, with an append-only cache in front of it.
package embedding

import (
	"context"
	"errors"
)

// Provider embeds a batch of texts, returning one vector per text in order.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// ErrDisabled is returned when enhanced mode is requested without a provider.
var ErrDisabled = errors.New("embedding provider not configured")

// Degraded reasons reported to callers.
const (
	ReasonDisabled = "embedding_provider_disabled"
	ReasonTimeout  = "embedding_provider_timeout"
	ReasonError    = "embedding_provider_error"
)

// Reason maps an embedding failure to its degraded reason.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrDisabled):
		return ReasonDisabled
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	default:
		return ReasonError
	}
}
