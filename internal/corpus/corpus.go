// Package corpus ships the reference snippets a fresh corpus starts with.
package corpus

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/RishiKendai/codelens/internal/models"
)

//go:embed seed.yaml
var seedYAML []byte

// Seed decodes the embedded seed corpus. Entries carry code and metadata
// only; fingerprints are computed on ingestion.
func Seed() ([]models.CorpusEntry, error) {
	return Parse(seedYAML)
}

// Parse decodes a YAML list of corpus entries and rejects incomplete ones.
func Parse(data []byte) ([]models.CorpusEntry, error) {
	var entries []models.CorpusEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode corpus: %w", err)
	}
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		if e.ID == "" || e.Code == "" || e.Language == "" {
			return nil, fmt.Errorf("corpus entry %d: id, code and language are required", i)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("corpus entry %d: duplicate id %q", i, e.ID)
		}
		seen[e.ID] = true
	}
	return entries, nil
}
