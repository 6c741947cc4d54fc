// Package parser turns raw source text into a normalized token stream and a
// syntax skeleton. Parsing never fails: when no grammar applies or the
// snippet does not parse cleanly, a keyword and indentation heuristic takes
// over and the result is flagged as degraded.
package parser

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/RishiKendai/codelens/internal/lang"
)

// Result is everything downstream stages need from one snippet.
type Result struct {
	Language lang.Language
	Tokens   []Token
	// Strings holds string literal contents in source order.
	Strings  []string
	Lines    LineCounts
	RawLines []string
	Skeleton Skeleton
	Degraded bool
	Notes    []string
}

// Parse tokenizes text and builds its skeleton with the strategy registered
// for l.
func Parse(ctx context.Context, text string, l lang.Language) *Result {
	rules := lang.RulesFor(l)
	lx := tokenize(text, rules)
	raw := splitLines(text)

	res := &Result{
		Language: l,
		Tokens:   lx.tokens,
		Strings:  lx.strings,
		Lines:    lx.lines,
		RawLines: raw,
	}

	skel, ok, note := treeSitterSkeleton(ctx, []byte(text), l)
	if !ok {
		skel = heuristicSkeleton(lx.tokens, raw, l)
		res.Degraded = true
		res.Notes = append(res.Notes, note)
		log.Debug().Str("language", string(l)).Str("reason", note).Msg("Falling back to heuristic skeleton")
	}
	skel.Imports = extractImports(text, l)
	addLogicalSites(&skel, lx.tokens, rules)
	res.Skeleton = skel
	return res
}

// NormalizedText is the whitespace-free rendering of the token stream:
// tokens joined by single spaces with comments already dropped.
func (r *Result) NormalizedText() string {
	parts := make([]string, len(r.Tokens))
	for i, t := range r.Tokens {
		if t.Kind == String {
			parts[i] = `"` + t.Text + `"`
			continue
		}
		parts[i] = t.Text
	}
	return strings.Join(parts, " ")
}

// Norms returns the renaming-insensitive token sequence.
func (r *Result) Norms() []string {
	out := make([]string, len(r.Tokens))
	for i, t := range r.Tokens {
		out[i] = t.Norm()
	}
	return out
}

func splitLines(text string) []string {
	return strings.Split(text, "\n")
}
