package parser

import (
	"sort"

	"github.com/RishiKendai/codelens/internal/lang"
)

// NodeKind is the syntactic role of a skeleton node.
type NodeKind string

const (
	KindFunction NodeKind = "function"
	KindClass    NodeKind = "class"
	KindIf       NodeKind = "if"
	KindLoop     NodeKind = "loop"
	KindSwitch   NodeKind = "switch"
	KindTry      NodeKind = "try"
	KindCase     NodeKind = "case"
	KindCatch    NodeKind = "catch"
	KindLogical  NodeKind = "logical"
)

// Node is one entry of the syntax skeleton. NestingLevel counts the
// control-flow blocks (if, loop, switch, try) enclosing the node, plus one
// when the node is itself such a block.
type Node struct {
	Kind         NodeKind `json:"kind"`
	Name         string   `json:"name,omitempty"`
	StartLine    int      `json:"start_line"`
	EndLine      int      `json:"end_line"`
	NestingLevel int      `json:"nesting_level"`
}

// Skeleton is the lightweight structural view of a snippet.
type Skeleton struct {
	Nodes   []Node   `json:"nodes"`
	Imports []string `json:"imports"`
}

// Count returns how many nodes have the given kind.
func (s Skeleton) Count(kind NodeKind) int {
	n := 0
	for _, node := range s.Nodes {
		if node.Kind == kind {
			n++
		}
	}
	return n
}

// Of returns the nodes of the given kind in source order.
func (s Skeleton) Of(kind NodeKind) []Node {
	var out []Node
	for _, node := range s.Nodes {
		if node.Kind == kind {
			out = append(out, node)
		}
	}
	return out
}

// MaxNesting is the deepest nesting level observed.
func (s Skeleton) MaxNesting() int {
	depth := 0
	for _, node := range s.Nodes {
		depth = max(depth, node.NestingLevel)
	}
	return depth
}

func isBlock(k NodeKind) bool {
	switch k {
	case KindIf, KindLoop, KindSwitch, KindTry:
		return true
	}
	return false
}

// addLogicalSites appends one node per short-circuit operator. Operators
// come from the token stream, so text inside strings or comments never
// counts.
func addLogicalSites(s *Skeleton, tokens []Token, rules *lang.Rules) {
	for _, t := range tokens {
		logical := t.Is("&&") || t.Is("||")
		if t.Kind == Keyword && rules.IsLogicalWord(t.Text) {
			logical = true
		}
		if !logical {
			continue
		}
		level := 0
		for _, n := range s.Nodes {
			if isBlock(n.Kind) && n.StartLine <= t.Line && t.Line <= n.EndLine {
				level = max(level, n.NestingLevel)
			}
		}
		s.Nodes = append(s.Nodes, Node{
			Kind:         KindLogical,
			StartLine:    t.Line,
			EndLine:      t.Line,
			NestingLevel: level,
		})
	}
	sortNodes(s.Nodes)
}

func sortNodes(nodes []Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].StartLine < nodes[j].StartLine
	})
}
