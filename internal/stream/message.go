package stream

import (
	"fmt"
	"strings"

	"github.com/RishiKendai/codelens/internal/models"
)

// StreamMessage is a raw stream entry with its string fields.
type StreamMessage struct {
	ID     string
	Fields map[string]string
}

// ParseCorpusEntry reads a corpus submission from a stream message. Only
// code is required; id, language, description and source are optional.
func ParseCorpusEntry(msg *StreamMessage) (*models.CorpusAddRequest, error) {
	code := msg.Fields["code"]
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("message %s: missing code field", msg.ID)
	}

	source := msg.Fields["source"]
	if source == "" {
		source = "stream"
	}
	return &models.CorpusAddRequest{
		ID:          strings.TrimSpace(msg.Fields["id"]),
		Code:        code,
		Language:    msg.Fields["language"],
		Description: msg.Fields["description"],
		Source:      source,
	}, nil
}
