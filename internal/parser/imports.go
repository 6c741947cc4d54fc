package parser

import (
	"regexp"
	"sort"
	"strings"

	"github.com/RishiKendai/codelens/internal/lang"
)

var importPatterns = map[lang.Language][]*regexp.Regexp{
	lang.Python: {
		regexp.MustCompile(`(?m)^\s*import\s+([\w.]+(?:\s*,\s*[\w.]+)*)`),
		regexp.MustCompile(`(?m)^\s*from\s+([\w.]+)\s+import\b`),
	},
	lang.JavaScript: jsImports,
	lang.TypeScript: jsImports,
	lang.Java: {
		regexp.MustCompile(`(?m)^\s*import\s+(?:static\s+)?([\w.*]+)\s*;`),
	},
	lang.Kotlin: {
		regexp.MustCompile(`(?m)^\s*import\s+([\w.*]+)`),
	},
	lang.C:   cIncludes,
	lang.CPP: cIncludes,
	lang.CSharp: {
		regexp.MustCompile(`(?m)^\s*using\s+(?:static\s+)?([\w.]+)\s*;`),
	},
	lang.PHP: {
		regexp.MustCompile(`(?m)^\s*use\s+([\w\\]+)`),
		regexp.MustCompile(`(?m)^\s*(?:require|include)(?:_once)?\s*\(?\s*['"]([^'"]+)['"]`),
	},
	lang.Ruby: {
		regexp.MustCompile(`(?m)^\s*require(?:_relative)?\s*\(?\s*['"]([^'"]+)['"]`),
	},
	lang.Go: {
		regexp.MustCompile(`(?m)^\s*import\s+(?:\w+\s+)?"([^"]+)"`),
	},
	lang.Rust: {
		regexp.MustCompile(`(?m)^\s*(?:pub\s+)?use\s+([\w:{}, *]+);`),
		regexp.MustCompile(`(?m)^\s*extern\s+crate\s+(\w+)`),
	},
	lang.Swift: {
		regexp.MustCompile(`(?m)^\s*import\s+(\w+)`),
	},
}

var (
	jsImports = []*regexp.Regexp{
		regexp.MustCompile(`import\s+[^'"]*?from\s+['"]([^'"]+)['"]`),
		regexp.MustCompile(`require\s*\(\s*['"]([^'"]+)['"]\s*\)`),
		regexp.MustCompile(`(?m)^\s*import\s+['"]([^'"]+)['"]`),
	}
	cIncludes = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^\s*#\s*include\s*[<"]([^>"]+)[>"]`),
	}
	goImportBlock = regexp.MustCompile(`(?s)import\s*\(([^)]*)\)`)
	goImportPath  = regexp.MustCompile(`"([^"]+)"`)
	genericImport = regexp.MustCompile(`(?m)^\s*(?:import|using|require|include|use)\s+['"<]?([\w./:\\-]+)`)
)

// extractImports lists imported modules in first-seen order.
func extractImports(text string, l lang.Language) []string {
	patterns, ok := importPatterns[l]
	if !ok {
		patterns = []*regexp.Regexp{genericImport}
	}

	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		name = strings.TrimSpace(name)
		if len(name) < 2 || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	}

	type hit struct {
		at   int
		name string
	}
	var hits []hit
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			hits = append(hits, hit{at: m[0], name: text[m[2]:m[3]]})
		}
	}
	if l == lang.Go {
		for _, m := range goImportBlock.FindAllStringSubmatchIndex(text, -1) {
			block := text[m[2]:m[3]]
			for _, p := range goImportPath.FindAllStringSubmatchIndex(block, -1) {
				hits = append(hits, hit{at: m[2] + p[0], name: block[p[2]:p[3]]})
			}
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].at < hits[j].at })

	for _, h := range hits {
		if l == lang.Python {
			for _, part := range strings.Split(h.name, ",") {
				add(part)
			}
			continue
		}
		add(h.name)
	}
	return out
}
