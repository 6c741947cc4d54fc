package patterns

import (
	"strings"

	"github.com/RishiKendai/codelens/internal/lang"
	"github.com/RishiKendai/codelens/internal/parser"
)

// Category groups signatures; each category is matched independently.
type Category string

const (
	Algorithm     Category = "algorithm"
	DataStructure Category = "data_structure"
	Design        Category = "design_pattern"
)

// Signature is one catalog entry: a named predicate over a parsed snippet.
type Signature struct {
	Name     string
	Category Category
	Match    func(*Input) bool
}

func anyLang(ls ...lang.Language) func(lang.Language) bool {
	return func(l lang.Language) bool {
		for _, x := range ls {
			if x == l {
				return true
			}
		}
		return false
	}
}

var (
	isPython  = anyLang(lang.Python)
	isJS      = anyLang(lang.JavaScript, lang.TypeScript)
	isJVMLike = anyLang(lang.Java, lang.Kotlin, lang.CSharp)
)

// Catalog is evaluated in order; new patterns are added as rows.
var Catalog = []Signature{
	{"Recursion", Algorithm, func(in *Input) bool { return len(in.recursiveFunctions()) > 0 }},
	{"Iteration", Algorithm, func(in *Input) bool { return in.count(parser.KindLoop) > 0 }},
	{"Fibonacci", Algorithm, func(in *Input) bool { return in.identContains("fib") }},
	{"Factorial", Algorithm, func(in *Input) bool {
		return in.identContains("factorial") || in.ident("fact")
	}},
	{"Bubble Sort", Algorithm, func(in *Input) bool {
		return in.identContains("bubble") || (in.nestedLoops() && in.swaps() && !in.identContains("min"))
	}},
	{"Selection Sort", Algorithm, func(in *Input) bool {
		return in.identContains("selection") || (in.nestedLoops() && in.swaps() && in.identContains("min"))
	}},
	{"Insertion Sort", Algorithm, func(in *Input) bool {
		return in.identContains("insertion") || (in.nestedLoops() && in.ident("key") && !in.swaps())
	}},
	{"Quick Sort", Algorithm, func(in *Input) bool {
		return in.identContains("quick") || (in.recursive() && (in.identContains("pivot") || in.identContains("partition")))
	}},
	{"Merge Sort", Algorithm, func(in *Input) bool {
		return in.identContains("merge") && (in.recursive() || in.identContains("sort"))
	}},
	{"Built-in Sort", Algorithm, func(in *Input) bool {
		return in.seq("sorted", "(") || in.seq(".", "sort", "(") || in.seq("::", "sort", "(") || in.seq(".", "Sort", "(")
	}},
	{"Binary Search", Algorithm, func(in *Input) bool {
		if in.identContains("binary") {
			return true
		}
		bounds := (in.ident("low") || in.ident("lo") || in.ident("left")) &&
			(in.ident("high") || in.ident("hi") || in.ident("right"))
		return bounds && in.midpoint() && (in.count(parser.KindLoop) > 0 || in.recursive())
	}},
	{"Linear Search", Algorithm, func(in *Input) bool {
		if in.identContains("linear") {
			return true
		}
		return in.functionNamed("search", "find", "index") && in.count(parser.KindLoop) > 0 && !in.midpoint() && !in.nestedLoops()
	}},
	{"Dynamic Programming", Algorithm, func(in *Input) bool {
		return in.identContains("memo") || in.ident("dp") || in.ident("lru_cache") || in.identContains("tabulat")
	}},
	{"Depth-First Search", Algorithm, func(in *Input) bool {
		return in.ident("dfs") || in.identContains("depth_first") || (in.recursive() && in.identContains("visited"))
	}},
	{"Breadth-First Search", Algorithm, func(in *Input) bool {
		return in.ident("bfs") || in.identContains("breadth") ||
			(in.identContains("visited") && (in.identContains("queue") || in.ident("deque")))
	}},
	{"Two Pointers", Algorithm, func(in *Input) bool {
		return in.ident("left") && in.ident("right") && in.count(parser.KindLoop) > 0 && !in.midpoint()
	}},

	{"List", DataStructure, func(in *Input) bool {
		return isPython(in.Language) && (in.seq("=", "[") || in.seq("list", "("))
	}},
	{"Dictionary", DataStructure, func(in *Input) bool {
		if isPython(in.Language) {
			return in.seq("=", "{", "STR", ":") || in.seq("=", "{", "}") || in.seq("dict", "(") || in.ident("defaultdict")
		}
		return in.Language == lang.CSharp && in.ident("Dictionary")
	}},
	{"Set", DataStructure, func(in *Input) bool {
		return in.seq("set", "(") || in.seq("new", "Set") || in.ident("HashSet") || in.ident("unordered_set")
	}},
	{"Tuple", DataStructure, func(in *Input) bool {
		return isPython(in.Language) && (in.seq("tuple", "(") || in.seq("=", "(", "ID", ",") || in.seq("=", "(", "NUM", ","))
	}},
	{"Deque", DataStructure, func(in *Input) bool { return in.ident("deque") || in.ident("ArrayDeque") }},
	{"Array", DataStructure, func(in *Input) bool {
		if isJS(in.Language) {
			return in.seq("=", "[") || in.seq("new", "Array") || in.seq("Array", ".")
		}
		return in.seq("[", "]") && !isPython(in.Language)
	}},
	{"Object/Map", DataStructure, func(in *Input) bool {
		return isJS(in.Language) && (in.seq("new", "Map") || in.seq("=", "{", "ID", ":") || in.seq("=", "{", "STR", ":"))
	}},
	{"ArrayList", DataStructure, func(in *Input) bool { return isJVMLike(in.Language) && (in.ident("ArrayList") || in.ident("List")) }},
	{"HashMap", DataStructure, func(in *Input) bool {
		return in.ident("HashMap") || in.ident("unordered_map") || (in.Language == lang.Go && in.seq("map", "["))
	}},
	{"Stack", DataStructure, func(in *Input) bool {
		return in.identContains("stack") || (in.call("push") && in.call("pop"))
	}},
	{"Queue", DataStructure, func(in *Input) bool {
		return in.identContains("queue") || in.call("enqueue") || (in.call("offer") && in.call("poll"))
	}},
	{"Tree", DataStructure, func(in *Input) bool {
		return in.identContains("tree") || (in.ident("left") && in.ident("right") && in.identContains("node"))
	}},
	{"Graph", DataStructure, func(in *Input) bool {
		return in.identContains("graph") || in.identContains("adj") || in.identContains("neighbor") ||
			in.seq("{", "STR", ":", "[") || in.seq(",", "STR", ":", "[")
	}},
	{"Linked List", DataStructure, func(in *Input) bool {
		return in.identContains("linkedlist") || in.identContains("linked_list") ||
			(in.ident("next") && (in.ident("head") || in.identContains("node")))
	}},
	{"Heap", DataStructure, func(in *Input) bool {
		return in.identContains("heap") || in.ident("PriorityQueue") || in.ident("priority_queue")
	}},

	{"Singleton", Design, func(in *Input) bool {
		return in.count(parser.KindClass) > 0 &&
			(in.ident("_instance") || in.ident("instance") || in.ident("getInstance") || in.ident("get_instance") || in.ident("__new__"))
	}},
	{"Factory", Design, func(in *Input) bool {
		return in.identContains("factory") || in.functionPrefixed("create", "make")
	}},
	{"Observer", Design, func(in *Input) bool {
		return in.identContains("observer") || in.identContains("subscribe") || in.identContains("listener") ||
			(in.identContains("notify") && in.identContains("attach"))
	}},
	{"Builder", Design, func(in *Input) bool {
		return in.identContains("builder") || (in.ident("build") && (in.seq("return", "this") || in.seq("return", "self")))
	}},
	{"Decorator", Design, func(in *Input) bool {
		return in.identContains("decorator") || (isPython(in.Language) && in.ident("wrapper") && in.seq("@", "ID"))
	}},
	{"Strategy", Design, func(in *Input) bool { return in.identContains("strategy") }},
	{"Iterator", Design, func(in *Input) bool {
		return in.ident("__iter__") || in.ident("__next__") || in.ident("hasNext") || in.ident("Iterator")
	}},
}

func hasPrefixFold(s string, prefixes ...string) bool {
	ls := strings.ToLower(s)
	for _, p := range prefixes {
		if strings.HasPrefix(ls, p) && len(ls) > len(p) {
			return true
		}
	}
	return false
}
