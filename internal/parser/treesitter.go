package parser

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/kotlin"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/swift"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/RishiKendai/codelens/internal/lang"
)

// grammar binds a language to its tree-sitter grammar and the node types
// that map onto skeleton kinds.
type grammar struct {
	language func() *sitter.Language
	kinds    map[string]NodeKind
}

func kindTable(groups map[NodeKind]string) map[string]NodeKind {
	out := make(map[string]NodeKind)
	for kind, types := range groups {
		for _, t := range strings.Fields(types) {
			out[t] = kind
		}
	}
	return out
}

var jsKinds = map[NodeKind]string{
	KindFunction: "function_declaration generator_function_declaration method_definition arrow_function function_expression function",
	KindClass:    "class_declaration class",
	KindIf:       "if_statement",
	KindLoop:     "for_statement for_in_statement while_statement do_statement",
	KindSwitch:   "switch_statement",
	KindCase:     "switch_case",
	KindTry:      "try_statement",
	KindCatch:    "catch_clause",
}

var grammars = map[lang.Language]grammar{
	lang.Python: {python.GetLanguage, kindTable(map[NodeKind]string{
		KindFunction: "function_definition",
		KindClass:    "class_definition",
		KindIf:       "if_statement elif_clause",
		KindLoop:     "for_statement while_statement",
		KindSwitch:   "match_statement",
		KindCase:     "case_clause",
		KindTry:      "try_statement",
		KindCatch:    "except_clause except_group_clause",
	})},
	lang.JavaScript: {javascript.GetLanguage, kindTable(jsKinds)},
	lang.TypeScript: {typescript.GetLanguage, kindTable(map[NodeKind]string{
		KindFunction: jsKinds[KindFunction],
		KindClass:    jsKinds[KindClass] + " abstract_class_declaration interface_declaration",
		KindIf:       jsKinds[KindIf],
		KindLoop:     jsKinds[KindLoop],
		KindSwitch:   jsKinds[KindSwitch],
		KindCase:     jsKinds[KindCase],
		KindTry:      jsKinds[KindTry],
		KindCatch:    jsKinds[KindCatch],
	})},
	lang.Java: {java.GetLanguage, kindTable(map[NodeKind]string{
		KindFunction: "method_declaration constructor_declaration",
		KindClass:    "class_declaration interface_declaration enum_declaration record_declaration",
		KindIf:       "if_statement",
		KindLoop:     "for_statement enhanced_for_statement while_statement do_statement",
		KindSwitch:   "switch_expression switch_statement",
		KindCase:     "switch_label",
		KindTry:      "try_statement try_with_resources_statement",
		KindCatch:    "catch_clause",
	})},
	lang.CPP: {cpp.GetLanguage, kindTable(map[NodeKind]string{
		KindFunction: "function_definition",
		KindClass:    "class_specifier struct_specifier",
		KindIf:       "if_statement",
		KindLoop:     "for_statement for_range_loop while_statement do_statement",
		KindSwitch:   "switch_statement",
		KindCase:     "case_statement",
		KindTry:      "try_statement",
		KindCatch:    "catch_clause",
	})},
	lang.C: {c.GetLanguage, kindTable(map[NodeKind]string{
		KindFunction: "function_definition",
		KindIf:       "if_statement",
		KindLoop:     "for_statement while_statement do_statement",
		KindSwitch:   "switch_statement",
		KindCase:     "case_statement",
	})},
	lang.CSharp: {csharp.GetLanguage, kindTable(map[NodeKind]string{
		KindFunction: "method_declaration constructor_declaration local_function_statement",
		KindClass:    "class_declaration interface_declaration struct_declaration record_declaration",
		KindIf:       "if_statement",
		KindLoop:     "for_statement for_each_statement foreach_statement while_statement do_statement",
		KindSwitch:   "switch_statement switch_expression",
		KindCase:     "switch_section",
		KindTry:      "try_statement",
		KindCatch:    "catch_clause",
	})},
	lang.PHP: {php.GetLanguage, kindTable(map[NodeKind]string{
		KindFunction: "function_definition method_declaration",
		KindClass:    "class_declaration interface_declaration trait_declaration",
		KindIf:       "if_statement else_if_clause",
		KindLoop:     "for_statement foreach_statement while_statement do_statement",
		KindSwitch:   "switch_statement match_expression",
		KindCase:     "case_statement",
		KindTry:      "try_statement",
		KindCatch:    "catch_clause",
	})},
	lang.Ruby: {ruby.GetLanguage, kindTable(map[NodeKind]string{
		KindFunction: "method singleton_method",
		KindClass:    "class module",
		KindIf:       "if elsif unless if_modifier unless_modifier",
		KindLoop:     "while until for while_modifier until_modifier",
		KindSwitch:   "case",
		KindCase:     "when",
		KindTry:      "begin",
		KindCatch:    "rescue",
	})},
	lang.Go: {golang.GetLanguage, kindTable(map[NodeKind]string{
		KindFunction: "function_declaration method_declaration",
		KindClass:    "type_spec",
		KindIf:       "if_statement",
		KindLoop:     "for_statement",
		KindSwitch:   "expression_switch_statement type_switch_statement select_statement",
		KindCase:     "expression_case type_case communication_case",
	})},
	lang.Rust: {rust.GetLanguage, kindTable(map[NodeKind]string{
		KindFunction: "function_item",
		KindClass:    "struct_item enum_item trait_item",
		KindIf:       "if_expression if_let_expression",
		KindLoop:     "for_expression while_expression while_let_expression loop_expression",
		KindSwitch:   "match_expression",
		KindCase:     "match_arm",
	})},
	lang.Swift: {swift.GetLanguage, kindTable(map[NodeKind]string{
		KindFunction: "function_declaration init_declaration",
		KindClass:    "class_declaration protocol_declaration",
		KindIf:       "if_statement guard_statement",
		KindLoop:     "for_statement while_statement repeat_while_statement",
		KindSwitch:   "switch_statement",
		KindCase:     "switch_entry",
		KindTry:      "do_statement",
		KindCatch:    "catch_block",
	})},
	lang.Kotlin: {kotlin.GetLanguage, kindTable(map[NodeKind]string{
		KindFunction: "function_declaration",
		KindClass:    "class_declaration object_declaration",
		KindIf:       "if_expression",
		KindLoop:     "for_statement while_statement do_while_statement",
		KindSwitch:   "when_expression",
		KindCase:     "when_entry",
		KindTry:      "try_expression",
		KindCatch:    "catch_block",
	})},
}

// default arms are not decision points
var defaultArmPrefixes = []string{"default", "else", "_", "case _"}

type treeWalker struct {
	src        []byte
	kinds      map[string]NodeKind
	lineOffset int
	nodes      []Node
}

// treeSitterSkeleton parses src with the language grammar. ok is false when
// no grammar exists or the tree contains syntax errors.
func treeSitterSkeleton(ctx context.Context, src []byte, l lang.Language) (Skeleton, bool, string) {
	g, found := grammars[l]
	if !found {
		return Skeleton{}, false, "no grammar for language " + string(l) + ", heuristic skeleton used"
	}

	lineOffset := 0
	if l == lang.PHP && !strings.Contains(string(src), "<?php") {
		src = append([]byte("<?php\n"), src...)
		lineOffset = 1
	}

	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(g.language())

	tree, err := p.ParseCtx(ctx, nil, src)
	if err != nil {
		return Skeleton{}, false, "parser failed: " + err.Error()
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return Skeleton{}, false, "syntax errors in snippet, heuristic skeleton used"
	}

	w := &treeWalker{src: src, kinds: g.kinds, lineOffset: lineOffset}
	w.visit(root, 0, false)
	sortNodes(w.nodes)
	return Skeleton{Nodes: w.nodes}, true, ""
}

func (w *treeWalker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	start, end := n.StartByte(), n.EndByte()
	if start > end || end > uint32(len(w.src)) {
		return ""
	}
	return string(w.src[start:end])
}

func (w *treeWalker) visit(n *sitter.Node, depth int, elseBranch bool) {
	nodeType := n.Type()
	kind, mapped := w.kinds[nodeType]
	if mapped && !w.accept(n, nodeType, kind) {
		mapped = false
	}

	childDepth := depth
	if mapped {
		level := depth
		switch kind {
		case KindIf:
			if !elseBranch {
				level = depth + 1
				childDepth = level
			}
		case KindLoop, KindSwitch, KindTry:
			level = depth + 1
			childDepth = level
		}
		node := Node{
			Kind:         kind,
			StartLine:    int(n.StartPoint().Row) + 1 - w.lineOffset,
			EndLine:      int(n.EndPoint().Row) + 1 - w.lineOffset,
			NestingLevel: level,
		}
		if kind == KindFunction || kind == KindClass {
			node.Name = w.nameOf(n)
		}
		w.nodes = append(w.nodes, node)
	}

	var alt *sitter.Node
	if mapped && kind == KindIf {
		alt = n.ChildByFieldName("alternative")
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		inElse := false
		switch {
		case alt != nil && child.StartByte() == alt.StartByte() && child.EndByte() == alt.EndByte():
			inElse = true
		case mapped && kind == KindIf && strings.HasPrefix(child.Type(), "el"):
			inElse = true
		case elseBranch && !mapped && strings.Contains(nodeType, "else"):
			inElse = true
		}
		w.visit(child, childDepth, inElse)
	}
}

// accept filters mapped node types whose meaning depends on their content.
func (w *treeWalker) accept(n *sitter.Node, nodeType string, kind NodeKind) bool {
	switch kind {
	case KindCase:
		head := strings.TrimSpace(w.text(n))
		for _, p := range defaultArmPrefixes {
			if strings.HasPrefix(head, p) {
				rest := strings.TrimPrefix(head, p)
				if rest == "" || !isIdentPart([]rune(rest)[0]) {
					return false
				}
			}
		}
	case KindClass:
		switch nodeType {
		case "type_spec":
			t := n.ChildByFieldName("type")
			return t != nil && (t.Type() == "struct_type" || t.Type() == "interface_type")
		case "struct_specifier", "class_specifier":
			return n.ChildByFieldName("body") != nil
		}
	case KindFunction:
		if nodeType == "arrow_function" || nodeType == "function_expression" || nodeType == "function" {
			return w.nameOf(n) != ""
		}
	}
	return true
}

var nameTypes = map[string]bool{
	"identifier":          true,
	"simple_identifier":   true,
	"field_identifier":    true,
	"type_identifier":     true,
	"property_identifier": true,
	"constant":            true,
	"name":                true,
}

func (w *treeWalker) nameOf(n *sitter.Node) string {
	switch n.Type() {
	case "arrow_function", "function_expression", "function":
		parent := n.Parent()
		if parent == nil {
			return ""
		}
		switch parent.Type() {
		case "variable_declarator":
			return w.text(parent.ChildByFieldName("name"))
		case "pair":
			return w.text(parent.ChildByFieldName("key"))
		case "assignment_expression":
			return w.text(parent.ChildByFieldName("left"))
		}
		if name := n.ChildByFieldName("name"); name != nil {
			return w.text(name)
		}
		return ""
	}

	if name := n.ChildByFieldName("name"); name != nil {
		return w.text(name)
	}
	for d := n.ChildByFieldName("declarator"); d != nil; d = d.ChildByFieldName("declarator") {
		switch d.Type() {
		case "identifier", "field_identifier", "qualified_identifier", "destructor_name", "operator_name":
			return w.text(d)
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child != nil && nameTypes[child.Type()] {
			return w.text(child)
		}
	}
	return ""
}
