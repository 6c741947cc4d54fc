// Package patterns matches parsed snippets against a catalog of algorithm,
// data-structure and design-pattern signatures.
package patterns

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/RishiKendai/codelens/internal/lang"
	"github.com/RishiKendai/codelens/internal/models"
	"github.com/RishiKendai/codelens/internal/parser"
)

// Input is the view of a snippet that signatures evaluate.
type Input struct {
	Language lang.Language

	res    *parser.Result
	idents map[string]bool
	lower  []string
}

// NewInput indexes a parse result for signature matching.
func NewInput(r *parser.Result) *Input {
	in := &Input{Language: r.Language, res: r, idents: make(map[string]bool)}
	for _, t := range r.Tokens {
		if t.Kind != parser.Identifier || in.idents[t.Text] {
			continue
		}
		in.idents[t.Text] = true
		in.lower = append(in.lower, strings.ToLower(t.Text))
	}
	return in
}

// Detect runs the whole catalog. A signature that panics is skipped so
// detection can never fail the surrounding request.
func Detect(r *parser.Result) models.Patterns {
	return DetectWith(r, Catalog)
}

// DetectWith runs a custom catalog.
func DetectWith(r *parser.Result, catalog []Signature) models.Patterns {
	in := NewInput(r)
	out := models.Patterns{
		AlgorithmPatterns: []string{},
		DataStructures:    []string{},
		DesignPatterns:    []string{},
	}
	for _, sig := range catalog {
		if !safeMatch(sig, in) {
			continue
		}
		switch sig.Category {
		case Algorithm:
			out.AlgorithmPatterns = appendOnce(out.AlgorithmPatterns, sig.Name)
		case DataStructure:
			out.DataStructures = appendOnce(out.DataStructures, sig.Name)
		case Design:
			out.DesignPatterns = appendOnce(out.DesignPatterns, sig.Name)
		}
	}
	return out
}

func safeMatch(sig Signature, in *Input) (matched bool) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Warn().Str("signature", sig.Name).Interface("panic", rec).Msg("Pattern signature panicked")
			matched = false
		}
	}()
	return sig.Match(in)
}

func appendOnce(list []string, name string) []string {
	for _, s := range list {
		if s == name {
			return list
		}
	}
	return append(list, name)
}

func (in *Input) ident(name string) bool {
	return in.idents[name]
}

func (in *Input) identContains(sub string) bool {
	for _, id := range in.lower {
		if strings.Contains(id, sub) {
			return true
		}
	}
	return false
}

func (in *Input) count(kind parser.NodeKind) int {
	return in.res.Skeleton.Count(kind)
}

// seq reports whether consecutive tokens match parts, each part matching
// either the token text or its normalized class (ID, NUM, STR).
func (in *Input) seq(parts ...string) bool {
	toks := in.res.Tokens
	for i := 0; i+len(parts) <= len(toks); i++ {
		ok := true
		for j, p := range parts {
			t := toks[i+j]
			if t.Text != p && t.Norm() != p {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func (in *Input) call(name string) bool {
	return in.seq(".", name, "(") || in.seq(name, "(")
}

func (in *Input) functionNamed(subs ...string) bool {
	for _, fn := range in.res.Skeleton.Of(parser.KindFunction) {
		name := strings.ToLower(fn.Name)
		for _, s := range subs {
			if strings.Contains(name, s) {
				return true
			}
		}
	}
	return false
}

func (in *Input) functionPrefixed(prefixes ...string) bool {
	for _, fn := range in.res.Skeleton.Of(parser.KindFunction) {
		if hasPrefixFold(fn.Name, prefixes...) {
			return true
		}
	}
	return false
}

func (in *Input) nestedLoops() bool {
	loops := in.res.Skeleton.Of(parser.KindLoop)
	for i, outer := range loops {
		for j, inner := range loops {
			if i != j && outer.NestingLevel < inner.NestingLevel &&
				outer.StartLine <= inner.StartLine && inner.EndLine <= outer.EndLine {
				return true
			}
		}
	}
	return false
}

func (in *Input) midpoint() bool {
	return in.ident("mid") || in.ident("middle") || in.seq(">>", "NUM") || in.seq("//", "NUM") ||
		in.seq(")", "/", "NUM")
}

// swaps detects element exchanges: a tuple assignment of indexed values, a
// temporary variable, or a swap call.
func (in *Input) swaps() bool {
	if in.call("swap") || ((in.ident("temp") || in.ident("tmp")) && in.seq("[")) {
		return true
	}
	byLine := make(map[int][]parser.Token)
	var order []int
	for _, t := range in.res.Tokens {
		if _, ok := byLine[t.Line]; !ok {
			order = append(order, t.Line)
		}
		byLine[t.Line] = append(byLine[t.Line], t)
	}
	for _, line := range order {
		if tupleSwap(byLine[line]) {
			return true
		}
	}
	return false
}

func tupleSwap(toks []parser.Token) bool {
	depth := 0
	for i, t := range toks {
		switch {
		case t.Is("(") || t.Is("["):
			depth++
		case t.Is(")") || t.Is("]"):
			depth--
		case depth == 0 && t.Is("="):
			return indexedPair(toks[:i]) && indexedPair(toks[i+1:])
		}
	}
	return false
}

func indexedPair(toks []parser.Token) bool {
	depth, comma, index := 0, false, false
	for _, t := range toks {
		switch {
		case t.Is("["):
			index = true
			depth++
		case t.Is("("):
			depth++
		case t.Is(")") || t.Is("]"):
			depth--
		case depth == 0 && t.Is(","):
			comma = true
		}
	}
	return comma && index
}

func (in *Input) recursive() bool {
	return len(in.recursiveFunctions()) > 0
}

// recursiveFunctions returns functions that call themselves inside their own
// body. The first occurrence of the name on the header line is the
// definition itself and is not counted.
func (in *Input) recursiveFunctions() []string {
	var out []string
	toks := in.res.Tokens
	for _, fn := range in.res.Skeleton.Of(parser.KindFunction) {
		if fn.Name == "" {
			continue
		}
		seenHeader := false
		for i := 0; i+1 < len(toks); i++ {
			t := toks[i]
			if t.Line < fn.StartLine || t.Line > fn.EndLine || t.Text != fn.Name || !toks[i+1].Is("(") {
				continue
			}
			if !seenHeader && t.Line == fn.StartLine && i > 0 && definitionPrefix(toks[i-1]) {
				seenHeader = true
				continue
			}
			seenHeader = true
			out = append(out, fn.Name)
			break
		}
	}
	return out
}

func definitionPrefix(prev parser.Token) bool {
	switch prev.Kind {
	case parser.Keyword, parser.Identifier:
		return prev.Text != "return" && prev.Text != "await" && prev.Text != "yield"
	}
	return prev.Is(")") || prev.Is("*") || prev.Is("&") || prev.Is(">") || prev.Is("]")
}
