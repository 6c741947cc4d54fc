package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RishiKendai/codelens/internal/lang"
)

func TestSeed(t *testing.T) {
	entries, err := Seed()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(entries), 3)

	assert.Equal(t, "Bubble sort implementation", entries[0].Description)
	for _, e := range entries {
		assert.True(t, lang.Language(e.Language).IsSupported(), e.ID)
		assert.Equal(t, "public_algorithms", e.Source)
		assert.NotEmpty(t, e.Code)
	}
}

func TestParseRejectsBadEntries(t *testing.T) {
	tests := map[string]string{
		"missing code": "- id: a\n  language: python\n",
		"duplicate id": "- id: a\n  language: python\n  code: x\n- id: a\n  language: python\n  code: y\n",
		"not a list":   "id: a\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}
