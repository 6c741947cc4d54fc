package quality

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RishiKendai/codelens/internal/features"
	"github.com/RishiKendai/codelens/internal/lang"
	"github.com/RishiKendai/codelens/internal/models"
	"github.com/RishiKendai/codelens/internal/parser"
)

func score(src string, l lang.Language) models.CodeQuality {
	r := parser.Parse(context.Background(), src, l)
	return Score(r, features.Extract(r))
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

const cleanPython = `import math


def circle_area(radius):
    """Area of a circle."""
    # pi times r squared
    return math.pi * radius * radius
`

func TestScoreCleanPython(t *testing.T) {
	q := score(cleanPython, lang.Python)

	assert.Equal(t, "v1", q.WeightsVersion)
	assert.Empty(t, q.CodeSmells)
	assert.Greater(t, q.ReadabilityScore, 85.0)
	assert.Greater(t, q.MaintainabilityIndex, 50.0)
	assert.ElementsMatch(t, []string{
		"has_comments", "consistent_naming", "reasonable_function_length", "reasonable_nesting",
		"uses_snake_case", "has_docstrings", "proper_imports", "no_trailing_whitespace",
	}, keys(q.BestPractices))
	for name, ok := range q.BestPractices {
		assert.True(t, ok, name)
	}
}

func TestBestPracticeNamesPerFamily(t *testing.T) {
	common := []string{"has_comments", "consistent_naming", "reasonable_function_length", "reasonable_nesting"}
	tests := []struct {
		lang  lang.Language
		src   string
		extra []string
	}{
		{lang.Java, "import java.util.*;\nclass A {}\n", []string{"no_wildcard_imports", "no_trailing_whitespace", "reasonable_line_length"}},
		{lang.Ruby, "def greet\n  puts 'hi'\nend\n", []string{"uses_snake_case", "no_trailing_whitespace"}},
		{lang.Unknown, "x = 1\n", nil},
	}
	for _, tt := range tests {
		t.Run(string(tt.lang), func(t *testing.T) {
			q := score(tt.src, tt.lang)
			assert.ElementsMatch(t, append(append([]string{}, common...), tt.extra...), keys(q.BestPractices))
		})
	}

	q := score("import java.util.*;\nclass A {}\n", lang.Java)
	assert.False(t, q.BestPractices["no_wildcard_imports"])
}

func TestDeepNestingSmell(t *testing.T) {
	var b strings.Builder
	b.WriteString("function f(a) {\n")
	for i := 0; i < 7; i++ {
		b.WriteString(strings.Repeat("  ", i+1) + "if (a) {\n")
	}
	b.WriteString("return 1;\n")
	for i := 7; i > 0; i-- {
		b.WriteString(strings.Repeat("  ", i) + "}\n")
	}
	b.WriteString("}\n")

	q := score(b.String(), lang.JavaScript)
	assert.Contains(t, q.CodeSmells, "deep_nesting")
	assert.False(t, q.BestPractices["reasonable_nesting"])
	assert.Less(t, q.ReadabilityScore, score("function f(a) { return a; }\n", lang.JavaScript).ReadabilityScore)
}

func TestSmellTags(t *testing.T) {
	dup := strings.Repeat("total = total + 1\n", 8)
	assert.Contains(t, score(dup, lang.Python).CodeSmells, "duplicate_code")

	magic := "a = 37\nb = 42\nc = 97\nd = 3.14\ne = 512\n"
	assert.Contains(t, score(magic, lang.Python).CodeSmells, "magic_numbers")

	long := "x = '" + strings.Repeat("y", 200) + "'\n"
	q := score(long, lang.Python)
	assert.Contains(t, q.CodeSmells, "long_lines")

	mixed := "userName = 1\nuser_age = 2\nUserZip = 3\nuser_city = 4\naccountId = 5\n"
	assert.Contains(t, score(mixed, lang.Python).CodeSmells, "inconsistent_naming")
}

func TestScoresStayInRange(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("if a and b or c and d: x = " + strings.Repeat("1234 + ", 40) + "1\n")
	}
	q := score(b.String(), lang.Python)
	for _, v := range []float64{q.ReadabilityScore, q.MaintainabilityIndex} {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}

	empty := score("", lang.Python)
	assert.GreaterOrEqual(t, empty.MaintainabilityIndex, 0.0)
	assert.LessOrEqual(t, empty.MaintainabilityIndex, 100.0)
}

func TestScoreIsDeterministic(t *testing.T) {
	assert.Equal(t, score(cleanPython, lang.Python), score(cleanPython, lang.Python))
}

func TestWeightsV1IsACopy(t *testing.T) {
	w := WeightsV1()
	assert.Equal(t, "v1", w.Version)
	w.ReadabilityBase = 0
	w.Version = "tampered"

	assert.Equal(t, "v1", WeightsV1().Version)
	assert.Equal(t, 90.0, WeightsV1().ReadabilityBase)
	assert.Equal(t, "v1", score(cleanPython, lang.Python).WeightsVersion)
}

func TestClassify(t *testing.T) {
	tests := map[string]namingStyle{
		"total":     styleFlat,
		"user_name": styleSnake,
		"userName":  styleCamel,
		"UserName":  stylePascal,
		"MAX_SIZE":  styleUpper,
		"User_name": styleMixed,
		"__init__":  styleSnake,
		"_instance": styleFlat,
	}
	for name, want := range tests {
		assert.Equal(t, want, classify(name), name)
	}
}

func TestNamingConsistency(t *testing.T) {
	share, n := namingConsistency([]string{"a_b", "c_d", "eF", "flat"})
	assert.Equal(t, 3, n)
	assert.InDelta(t, 2.0/3.0, share, 1e-9)

	share, n = namingConsistency(nil)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1.0, share)
}
