// Package lang enumerates the source languages the analyzer understands and
// holds the lexical rules each of them is tokenized with.
package lang

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Language is a declared or detected source language tag.
type Language string

const (
	Python     Language = "python"
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	Java       Language = "java"
	CPP        Language = "cpp"
	C          Language = "c"
	CSharp     Language = "csharp"
	PHP        Language = "php"
	Ruby       Language = "ruby"
	Go         Language = "go"
	Rust       Language = "rust"
	Swift      Language = "swift"
	Kotlin     Language = "kotlin"

	// Unknown routes to the heuristic tokenizer.
	Unknown Language = "unknown"
	// Auto asks for content based detection.
	Auto Language = "auto"
)

var supported = []Language{
	Python, JavaScript, TypeScript, Java, CPP, C, CSharp,
	PHP, Ruby, Go, Rust, Swift, Kotlin,
}

var aliases = map[string]Language{
	"py":      Python,
	"python3": Python,
	"js":      JavaScript,
	"node":    JavaScript,
	"ts":      TypeScript,
	"c++":     CPP,
	"cc":      CPP,
	"cxx":     CPP,
	"c#":      CSharp,
	"cs":      CSharp,
	"rb":      Ruby,
	"golang":  Go,
	"rs":      Rust,
	"kt":      Kotlin,
}

var extensions = map[string]Language{
	".py":    Python,
	".pyw":   Python,
	".js":    JavaScript,
	".jsx":   JavaScript,
	".mjs":   JavaScript,
	".cjs":   JavaScript,
	".ts":    TypeScript,
	".tsx":   TypeScript,
	".java":  Java,
	".cpp":   CPP,
	".cc":    CPP,
	".cxx":   CPP,
	".hpp":   CPP,
	".hxx":   CPP,
	".c":     C,
	".h":     C,
	".cs":    CSharp,
	".php":   PHP,
	".rb":    Ruby,
	".go":    Go,
	".rs":    Rust,
	".swift": Swift,
	".kt":    Kotlin,
	".kts":   Kotlin,
}

// Supported returns the closed set of languages with a dedicated parser.
func Supported() []Language {
	out := make([]Language, len(supported))
	copy(out, supported)
	return out
}

// IsSupported reports whether l has a dedicated parser strategy.
func (l Language) IsSupported() bool {
	for _, s := range supported {
		if s == l {
			return true
		}
	}
	return false
}

func (l Language) String() string {
	return string(l)
}

// Normalize maps a user supplied tag to a Language. Empty and "auto" map to
// Auto; anything unrecognised maps to Unknown.
func Normalize(tag string) Language {
	t := strings.ToLower(strings.TrimSpace(tag))
	if t == "" || t == string(Auto) {
		return Auto
	}
	if l := Language(t); l.IsSupported() {
		return l
	}
	if l, ok := aliases[t]; ok {
		return l
	}
	return Unknown
}

// FromFilename detects the language from a file extension.
func FromFilename(name string) Language {
	if l, ok := extensions[strings.ToLower(filepath.Ext(name))]; ok {
		return l
	}
	return Unknown
}

var detectors = map[Language][]*regexp.Regexp{
	Python: compileAll(
		`def\s+\w+\s*\(`,
		`(?m)^\s*import\s+\w+`,
		`from\s+\w+\s+import`,
		`if\s+__name__\s*==\s*["']__main__["']`,
	),
	JavaScript: compileAll(
		`function\s+\w+\s*\(`,
		`const\s+\w+\s*=`,
		`let\s+\w+\s*=`,
		`console\.log\s*\(`,
	),
	TypeScript: compileAll(
		`interface\s+\w+\s*\{`,
		`:\s*(string|number|boolean)\b`,
		`(export\s+)?type\s+\w+\s*=`,
	),
	Java: compileAll(
		`public\s+class\s+\w+`,
		`public\s+static\s+void\s+main`,
		`System\.out\.print`,
		`import\s+java\.`,
	),
	CPP: compileAll(
		`#include\s*<\w+>`,
		`std::\w+`,
		`cout\s*<<`,
		`using\s+namespace\s+std`,
	),
	C: compileAll(
		`#include\s*<\w+\.h>`,
		`printf\s*\(`,
		`int\s+main\s*\(`,
		`malloc\s*\(`,
	),
	CSharp: compileAll(
		`using\s+System`,
		`Console\.Write`,
		`namespace\s+\w+`,
	),
	PHP: compileAll(
		`<\?php`,
		`\$\w+\s*=`,
		`echo\s+`,
	),
	Ruby: compileAll(
		`(?m)^\s*def\s+\w+[^:(]*$`,
		`(?m)^\s*end\s*$`,
		`puts\s+`,
		`require\s+['"]`,
	),
	Go: compileAll(
		`package\s+\w+`,
		`func\s+\w+\s*\(`,
		`:=`,
		`fmt\.\w+`,
	),
	Rust: compileAll(
		`fn\s+\w+\s*\(`,
		`let\s+mut\s+`,
		`println!\s*\(`,
		`impl\s+\w+`,
	),
	Swift: compileAll(
		`func\s+\w+\s*\(`,
		`(?m)^\s*import\s+(Foundation|UIKit|SwiftUI)`,
		`\bguard\s+let\b`,
		`\bvar\s+\w+\s*:\s*\w+`,
	),
	Kotlin: compileAll(
		`fun\s+\w+\s*\(`,
		`\bval\s+\w+`,
		`println\s*\(`,
		`data\s+class`,
	),
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

// Detect guesses the language of code by counting signature hits per
// language. Ties resolve in Supported() order. Returns Unknown when nothing
// matches.
func Detect(code string) Language {
	type score struct {
		lang Language
		hits int
	}
	scores := make([]score, 0, len(supported))
	for _, l := range supported {
		hits := 0
		for _, re := range detectors[l] {
			if re.MatchString(code) {
				hits++
			}
		}
		scores = append(scores, score{lang: l, hits: hits})
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].hits > scores[j].hits
	})
	if scores[0].hits == 0 {
		return Unknown
	}
	return scores[0].lang
}

// Resolve turns a declared tag into the language the pipeline runs with.
// Auto falls through to content detection.
func Resolve(tag, code string) Language {
	l := Normalize(tag)
	if l == Auto {
		return Detect(code)
	}
	return l
}
