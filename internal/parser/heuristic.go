package parser

import (
	"strings"

	"github.com/RishiKendai/codelens/internal/lang"
)

var (
	ifWords     = wordSet("if elif elsif unless guard")
	loopWords   = wordSet("for foreach while until loop repeat do")
	switchWords = wordSet("switch match select")
	tryWords    = wordSet("try begin")
	catchWords  = wordSet("catch except rescue")
	elseWords   = wordSet("else finally ensure")
	funcWords   = wordSet("def function func fn fun sub")
	classWords  = wordSet("class struct interface trait module enum object")
	typeWords   = wordSet(`void int char double float long short bool boolean static public private
		protected final async virtual inline override unsigned signed string var auto`)
)

func wordSet(s string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		out[w] = true
	}
	return out
}

type openBlock struct {
	node  int // index into nodes, -1 for else/finally placeholders
	block bool
	open  int
	doTag bool
}

type heuristic struct {
	tokens []Token
	lang   lang.Language
	nodes  []Node
	stack  []openBlock
}

// heuristicSkeleton builds a skeleton from keywords and block delimiters
// alone. Brace languages nest on '{' '}', the rest on indentation.
func heuristicSkeleton(tokens []Token, rawLines []string, l lang.Language) Skeleton {
	h := &heuristic{tokens: tokens, lang: l}
	if l == lang.Python || l == lang.Ruby || !hasBrace(tokens) {
		h.byIndent(rawLines)
	} else {
		h.byBraces()
	}
	last := len(rawLines)
	if len(tokens) > 0 {
		last = tokens[len(tokens)-1].Line
	}
	for len(h.stack) > 0 {
		h.pop(last)
	}
	sortNodes(h.nodes)
	return Skeleton{Nodes: h.nodes}
}

func hasBrace(tokens []Token) bool {
	for _, t := range tokens {
		if t.Is("{") {
			return true
		}
	}
	return false
}

func (h *heuristic) enclosing(depth int, strict bool) int {
	n := 0
	for _, e := range h.stack {
		if e.block && (!strict || e.open < depth) {
			n++
		}
	}
	return n
}

func (h *heuristic) push(kind NodeKind, name string, line, level, open int, block bool) {
	h.nodes = append(h.nodes, Node{Kind: kind, Name: name, StartLine: line, EndLine: line, NestingLevel: level})
	h.stack = append(h.stack, openBlock{node: len(h.nodes) - 1, block: block, open: open})
}

func (h *heuristic) pop(endLine int) openBlock {
	e := h.stack[len(h.stack)-1]
	h.stack = h.stack[:len(h.stack)-1]
	if e.node >= 0 && endLine >= h.nodes[e.node].StartLine {
		h.nodes[e.node].EndLine = endLine
	}
	return e
}

func (h *heuristic) next(i int) Token {
	if i+1 < len(h.tokens) {
		return h.tokens[i+1]
	}
	return Token{Kind: Punct}
}

func (h *heuristic) prev(i int) Token {
	if i > 0 {
		return h.tokens[i-1]
	}
	return Token{Kind: Punct}
}

// caseIsSwitch reports whether "case" opens a switch (Ruby) or labels an arm.
func (h *heuristic) caseIsSwitch() bool {
	return h.lang == lang.Ruby
}

func (h *heuristic) nameAfter(i int) string {
	j := i + 1
	if j < len(h.tokens) && h.tokens[j].Is("(") {
		j = h.matchParen(j) + 1
	}
	if j < len(h.tokens) && h.tokens[j].Kind == Identifier {
		return h.tokens[j].Text
	}
	return ""
}

func (h *heuristic) matchParen(i int) int {
	depth := 0
	for j := i; j < len(h.tokens); j++ {
		switch {
		case h.tokens[j].Is("("):
			depth++
		case h.tokens[j].Is(")"):
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return len(h.tokens) - 1
}

func (h *heuristic) byBraces() {
	depth := 0
	lastClosedDo := false
	for i, t := range h.tokens {
		switch {
		case t.Is("{"):
			depth++
			continue
		case t.Is("}"):
			depth = max(0, depth-1)
			lastClosedDo = false
			for len(h.stack) > 0 && h.stack[len(h.stack)-1].open >= depth {
				lastClosedDo = h.pop(t.Line).doTag
			}
			continue
		case t.Kind == Identifier && h.looksLikeDefinition(i):
			h.push(KindFunction, t.Text, t.Line, h.enclosing(depth, true), depth, false)
			continue
		case t.Kind != Keyword || h.prev(i).Is("#"):
			continue
		}

		word := t.Text
		level := h.enclosing(depth, true)
		switch {
		case ifWords[word]:
			h.push(KindIf, "", t.Line, level+1, depth, true)
		case word == "while" && h.prev(i).Is("}") && lastClosedDo:
			// trailing condition of do-while
		case word == "do":
			if h.next(i).Is("{") {
				h.push(KindLoop, "", t.Line, level+1, depth, true)
				h.stack[len(h.stack)-1].doTag = true
			}
		case loopWords[word]:
			h.push(KindLoop, "", t.Line, level+1, depth, true)
		case switchWords[word] || (word == "when" && h.lang == lang.Kotlin):
			h.push(KindSwitch, "", t.Line, level+1, depth, true)
		case word == "case" || word == "when":
			h.nodes = append(h.nodes, Node{Kind: KindCase, StartLine: t.Line, EndLine: t.Line, NestingLevel: level})
		case tryWords[word]:
			h.push(KindTry, "", t.Line, level+1, depth, true)
		case catchWords[word]:
			h.nodes = append(h.nodes, Node{Kind: KindCatch, StartLine: t.Line, EndLine: t.Line, NestingLevel: level + 1})
			h.stack = append(h.stack, openBlock{node: len(h.nodes) - 1, block: true, open: depth})
		case word == "else" && h.next(i).Is("if"):
		case elseWords[word]:
			h.stack = append(h.stack, openBlock{node: -1, block: true, open: depth})
		case funcWords[word]:
			h.push(KindFunction, h.nameAfter(i), t.Line, level, depth, false)
		case classWords[word] && h.next(i).Kind == Identifier:
			if word == "struct" && !h.bodyFollows(i+1) {
				continue
			}
			h.push(KindClass, h.next(i).Text, t.Line, level, depth, false)
		}
	}
}

func (h *heuristic) bodyFollows(i int) bool {
	for j := i + 1; j < len(h.tokens) && j <= i+3; j++ {
		if h.tokens[j].Is("{") {
			return true
		}
	}
	return false
}

// looksLikeDefinition matches "Type name(...) {" style method headers of
// languages without a function keyword.
func (h *heuristic) looksLikeDefinition(i int) bool {
	if !h.next(i).Is("(") {
		return false
	}
	p := h.prev(i)
	switch {
	case p.Kind == Keyword && typeWords[p.Text]:
	case p.Kind == Identifier:
	case p.Is(">") || p.Is("]") || p.Is("*") || p.Is("&"):
	default:
		return false
	}
	end := h.matchParen(i + 1)
	for j := end + 1; j < len(h.tokens) && j <= end+6; j++ {
		tok := h.tokens[j]
		if tok.Is("{") {
			return true
		}
		if tok.Is(";") || tok.Is("}") || tok.Is("=") {
			return false
		}
	}
	return false
}

func indentOf(line string) int {
	w := 0
	for _, c := range line {
		switch c {
		case ' ':
			w++
		case '\t':
			w += 4
		default:
			return w
		}
	}
	return w
}

func (h *heuristic) byIndent(rawLines []string) {
	for i, t := range h.tokens {
		if i > 0 && h.tokens[i-1].Line == t.Line {
			continue
		}
		w := 0
		if t.Line-1 < len(rawLines) {
			w = indentOf(rawLines[t.Line-1])
		}
		endLine := h.prev(i).Line
		if t.Kind == Keyword && t.Text == "end" {
			endLine = t.Line
		}
		for len(h.stack) > 0 && h.stack[len(h.stack)-1].open >= w {
			h.pop(endLine)
		}
		h.lineStatement(i, t, w)
	}
}

func (h *heuristic) lineStatement(i int, t Token, w int) {
	if t.Kind != Keyword {
		return
	}
	word := t.Text
	level := h.enclosing(w, false)
	switch {
	case word == "end":
	case ifWords[word]:
		h.push(KindIf, "", t.Line, level+1, w, true)
	case word == "case" && h.caseIsSwitch():
		h.push(KindSwitch, "", t.Line, level+1, w, true)
	case switchWords[word]:
		h.push(KindSwitch, "", t.Line, level+1, w, true)
	case word == "case" || word == "when":
		h.push(KindCase, "", t.Line, level, w, false)
	case loopWords[word] && word != "do":
		h.push(KindLoop, "", t.Line, level+1, w, true)
	case tryWords[word]:
		h.push(KindTry, "", t.Line, level+1, w, true)
	case catchWords[word]:
		h.push(KindCatch, "", t.Line, level+1, w, true)
	case elseWords[word]:
		h.stack = append(h.stack, openBlock{node: -1, block: true, open: w})
	case funcWords[word]:
		h.push(KindFunction, h.nameAfter(i), t.Line, level, w, false)
	case classWords[word] && h.next(i).Kind == Identifier:
		h.push(KindClass, h.next(i).Text, t.Line, level, w, false)
	}
}
