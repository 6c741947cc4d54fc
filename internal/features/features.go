// Package features derives structural metrics from a parsed snippet.
package features

import (
	"strings"

	"github.com/RishiKendai/codelens/internal/models"
	"github.com/RishiKendai/codelens/internal/parser"
)

// Features are the structural counts of one snippet.
type Features struct {
	Lines      models.LinesOfCode
	Complexity models.ComplexityMetrics
	Structure  models.StructureAnalysis
}

var declarators = map[string]bool{
	"let": true, "var": true, "const": true, "val": true, "auto": true, "my": true,
}

// Extract is a pure function of the parse result.
func Extract(r *parser.Result) Features {
	skel := r.Skeleton
	return Features{
		Lines: models.LinesOfCode{
			Total:    r.Lines.Total,
			Code:     r.Lines.Code,
			Comments: r.Lines.Comments,
			Blank:    r.Lines.Blank,
		},
		Complexity: models.ComplexityMetrics{
			CyclomaticComplexity: Cyclomatic(skel),
			FunctionCount:        skel.Count(parser.KindFunction),
			ClassCount:           skel.Count(parser.KindClass),
			NestingDepth:         skel.MaxNesting(),
		},
		Structure: models.StructureAnalysis{
			ControlFlow: models.ControlFlow{
				IfStatements: skel.Count(parser.KindIf),
				Loops:        skel.Count(parser.KindLoop),
				Switches:     skel.Count(parser.KindSwitch),
				TryCatch:     skel.Count(parser.KindTry),
			},
			FunctionNames:  FunctionNames(skel),
			Imports:        nonNil(skel.Imports),
			VariableNames:  VariableNames(r.Tokens),
			StringLiterals: StringLiterals(r.Strings),
		},
	}
}

// Cyclomatic is 1 plus every decision point in the skeleton.
func Cyclomatic(s parser.Skeleton) int {
	cc := 1
	for _, n := range s.Nodes {
		switch n.Kind {
		case parser.KindIf, parser.KindLoop, parser.KindCase, parser.KindCatch, parser.KindLogical:
			cc++
		}
	}
	return cc
}

// FunctionNames lists named functions in first-seen order.
func FunctionNames(s parser.Skeleton) []string {
	d := newDedup()
	for _, n := range s.Of(parser.KindFunction) {
		d.add(n.Name)
	}
	return d.items
}

// VariableNames lists assigned or declared identifiers in first-seen order.
// Attribute targets, call arguments and single-letter names are skipped.
func VariableNames(tokens []parser.Token) []string {
	d := newDedup()
	parens := 0
	for i, t := range tokens {
		switch {
		case t.Is("("):
			parens++
			continue
		case t.Is(")"):
			parens = max(0, parens-1)
			continue
		}
		if t.Kind != parser.Identifier || len(t.Text) < 2 {
			continue
		}
		if i > 0 && tokens[i-1].Kind == parser.Keyword && declarators[tokens[i-1].Text] {
			d.add(t.Text)
			continue
		}
		if parens > 0 || (i > 0 && (tokens[i-1].Is(".") || tokens[i-1].Is("->"))) {
			continue
		}
		if i+1 < len(tokens) && (tokens[i+1].Is("=") || tokens[i+1].Is(":=")) {
			d.add(t.Text)
		}
	}
	return d.items
}

// StringLiterals lists distinct non-blank literals in first-seen order.
func StringLiterals(raw []string) []string {
	d := newDedup()
	for _, s := range raw {
		if strings.TrimSpace(s) != "" {
			d.add(s)
		}
	}
	return d.items
}

type dedup struct {
	seen  map[string]bool
	items []string
}

func newDedup() *dedup {
	return &dedup{seen: make(map[string]bool), items: []string{}}
}

func (d *dedup) add(s string) {
	if s == "" || d.seen[s] {
		return
	}
	d.seen[s] = true
	d.items = append(d.items, s)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
