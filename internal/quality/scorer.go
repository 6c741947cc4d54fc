// Package quality scores readability and maintainability, checks best
// practices per language family and tags code smells.
package quality

import (
	"math"
	"regexp"
	"strings"

	"github.com/RishiKendai/codelens/internal/features"
	"github.com/RishiKendai/codelens/internal/lang"
	"github.com/RishiKendai/codelens/internal/models"
	"github.com/RishiKendai/codelens/internal/parser"
)

// Scorer applies one weight set.
type Scorer struct {
	w Weights
}

func NewScorer(w Weights) *Scorer {
	return &Scorer{w: w}
}

// Score uses the v1 weight set.
func Score(r *parser.Result, f features.Features) models.CodeQuality {
	return NewScorer(weightsV1).Score(r, f)
}

type inputs struct {
	avgLineLength float64
	longestLine   int
	commentRatio  float64
	naming        float64
	namedCount    int
	complexity    int
	nesting       int
	loc           int
	volume        float64
	longestFunc   int
	trailingSpace bool
	distinctShare float64
	nonBlankLines int
	magicNumbers  int
	names         []string
}

func (s *Scorer) Score(r *parser.Result, f features.Features) models.CodeQuality {
	in := measure(r, f)
	return models.CodeQuality{
		ReadabilityScore:     round2(s.readability(in)),
		MaintainabilityIndex: round2(s.maintainability(in)),
		CodeSmells:           smells(in),
		BestPractices:        bestPractices(r, in),
		WeightsVersion:       s.w.Version,
	}
}

func measure(r *parser.Result, f features.Features) inputs {
	names := append(append([]string{}, f.Structure.FunctionNames...), f.Structure.VariableNames...)
	share, committed := namingConsistency(names)
	in := inputs{
		naming:     share,
		namedCount: committed,
		complexity: f.Complexity.CyclomaticComplexity,
		nesting:    f.Complexity.NestingDepth,
		loc:        max(1, f.Lines.Code),
		names:      names,
	}
	if code := f.Lines.Code; code > 0 {
		in.commentRatio = float64(f.Lines.Comments) / float64(code)
	}

	total, count := 0, 0
	seen := make(map[string]bool)
	for _, raw := range r.RawLines {
		line := strings.TrimRight(raw, "\r")
		if line != strings.TrimRight(line, " \t") {
			in.trailingSpace = true
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		n := len([]rune(line))
		total += n
		count++
		in.longestLine = max(in.longestLine, n)
		seen[trimmed] = true
	}
	if count > 0 {
		in.avgLineLength = float64(total) / float64(count)
		in.distinctShare = float64(len(seen)) / float64(count)
	} else {
		in.distinctShare = 1
	}
	in.nonBlankLines = count

	distinct := make(map[string]bool)
	magic := make(map[string]bool)
	for _, t := range r.Tokens {
		distinct[t.Text] = true
		if t.Kind == parser.Number && !trivialNumbers[t.Text] {
			magic[t.Text] = true
		}
	}
	in.magicNumbers = len(magic)
	in.volume = 1
	if n := len(r.Tokens); n > 0 {
		in.volume = math.Max(1, float64(n)*math.Log2(math.Max(2, float64(len(distinct)))))
	}

	for _, fn := range r.Skeleton.Of(parser.KindFunction) {
		in.longestFunc = max(in.longestFunc, fn.EndLine-fn.StartLine+1)
	}
	return in
}

var trivialNumbers = map[string]bool{"0": true, "1": true, "2": true, "-1": true, "0.0": true, "1.0": true, "10": true, "100": true}

func (s *Scorer) readability(in inputs) float64 {
	w := s.w
	score := w.ReadabilityBase
	score -= math.Min(w.LineLengthCap, math.Max(0, in.avgLineLength-w.LineLengthTarget)*w.LineLengthPenalty)
	score += math.Min(w.CommentBonusCap, in.commentRatio*w.CommentBonus)
	score -= (1 - in.naming) * w.NamingPenalty
	score -= math.Min(w.ComplexityCap, math.Max(0, float64(in.complexity)-w.ComplexityTarget))
	score -= math.Min(w.NestingCap, math.Max(0, float64(in.nesting)-w.NestingTarget)*w.NestingPenalty)
	return clamp(score)
}

// maintainability is the classic index with comment weighting, rescaled to
// 0-100.
func (s *Scorer) maintainability(in inputs) float64 {
	ratio := math.Min(1, in.commentRatio)
	raw := 171 - 5.2*math.Log(in.volume) - 0.23*float64(in.complexity) - 16.2*math.Log(float64(in.loc)) +
		50*math.Sin(math.Sqrt(2.4*ratio))
	score := clamp(raw * 100 / 171)
	score -= math.Min(s.w.MINestingCap, math.Max(0, float64(in.nesting)-s.w.NestingTarget)*s.w.MINestingPenalty)
	return clamp(score)
}

func smells(in inputs) []string {
	out := []string{}
	if in.nesting > maxNestingSmell {
		out = append(out, "deep_nesting")
	}
	if in.longestFunc > maxFunctionLines {
		out = append(out, "long_method")
	}
	if in.complexity > maxComplexity {
		out = append(out, "high_complexity")
	}
	if in.nonBlankLines >= duplicateMinLines && in.distinctShare < minDistinctLines {
		out = append(out, "duplicate_code")
	}
	if in.namedCount >= namingMinForSmells && in.naming < minNamingShare {
		out = append(out, "inconsistent_naming")
	}
	if in.magicNumbers > magicNumberLimit {
		out = append(out, "magic_numbers")
	}
	if in.longestLine > maxLineLength {
		out = append(out, "long_lines")
	}
	return out
}

var (
	wildcardImport   = regexp.MustCompile(`(?m)^\s*(import\s+[\w.]+\.\*\s*;?|using\s+namespace\s+\w+|import\s+\.\s+"|use\s+[\w:]+::\*\s*;)`)
	pythonStarImport = regexp.MustCompile(`(?m)^\s*from\s+\S+\s+import\s+\*`)
	pythonImportLine = regexp.MustCompile(`^(import|from)\s+\S+`)
)

func bestPractices(r *parser.Result, in inputs) map[string]bool {
	bp := map[string]bool{
		"has_comments":               r.Lines.Comments > 0,
		"consistent_naming":          in.naming >= goodNamingShare,
		"reasonable_function_length": in.longestFunc <= maxFunctionLines,
		"reasonable_nesting":         in.nesting <= reasonableNesting,
	}
	text := strings.Join(r.RawLines, "\n")
	switch lang.FamilyOf(r.Language) {
	case lang.FamilyPython:
		bp["uses_snake_case"] = allSnake(in.names)
		bp["has_docstrings"] = hasDocstrings(r)
		bp["proper_imports"] = properPythonImports(r) && !pythonStarImport.MatchString(text)
		bp["no_trailing_whitespace"] = !in.trailingSpace
	case lang.FamilyCLike:
		bp["no_wildcard_imports"] = !wildcardImport.MatchString(text)
		bp["no_trailing_whitespace"] = !in.trailingSpace
		bp["reasonable_line_length"] = in.longestLine <= maxLineLength
	case lang.FamilyRuby:
		bp["uses_snake_case"] = allSnake(in.names)
		bp["no_trailing_whitespace"] = !in.trailingSpace
	}
	return bp
}

func isDocstring(line string) bool {
	t := strings.TrimSpace(line)
	return strings.HasPrefix(t, `"""`) || strings.HasPrefix(t, `'''`)
}

// hasDocstrings accepts a module docstring or one on any function.
func hasDocstrings(r *parser.Result) bool {
	for _, line := range r.RawLines {
		if strings.TrimSpace(line) == "" || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		if isDocstring(line) {
			return true
		}
		break
	}
	for _, fn := range r.Skeleton.Of(parser.KindFunction) {
		for i := fn.StartLine; i < len(r.RawLines) && i < fn.EndLine; i++ {
			t := strings.TrimSpace(r.RawLines[i])
			if t == "" {
				continue
			}
			if isDocstring(t) {
				return true
			}
			break
		}
	}
	return false
}

// properPythonImports requires top-level imports to precede the first
// definition.
func properPythonImports(r *parser.Result) bool {
	first := 0
	for _, n := range r.Skeleton.Nodes {
		if n.Kind == parser.KindFunction || n.Kind == parser.KindClass {
			if first == 0 || n.StartLine < first {
				first = n.StartLine
			}
		}
	}
	if first == 0 {
		return true
	}
	for i, line := range r.RawLines {
		if i+1 > first && pythonImportLine.MatchString(line) {
			return false
		}
	}
	return true
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
