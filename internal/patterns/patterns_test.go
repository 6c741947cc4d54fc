package patterns

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RishiKendai/codelens/internal/lang"
	"github.com/RishiKendai/codelens/internal/parser"
)

func detect(src string, l lang.Language) (algos, structures, designs []string) {
	p := Detect(parser.Parse(context.Background(), src, l))
	return p.AlgorithmPatterns, p.DataStructures, p.DesignPatterns
}

func TestDetectAlgorithms(t *testing.T) {
	tests := []struct {
		name    string
		lang    lang.Language
		src     string
		want    []string
		notWant []string
	}{
		{
			name: "bubble sort",
			lang: lang.Python,
			src: `def bubble_sort(arr):
    n = len(arr)
    for i in range(n):
        for j in range(0, n - i - 1):
            if arr[j] > arr[j + 1]:
                arr[j], arr[j + 1] = arr[j + 1], arr[j]
    return arr
`,
			want:    []string{"Bubble Sort", "Iteration"},
			notWant: []string{"Recursion", "Binary Search"},
		},
		{
			name: "unnamed swap sort",
			lang: lang.Python,
			src: `def order(xs):
    for i in range(len(xs)):
        for j in range(len(xs) - 1):
            if xs[j] > xs[j + 1]:
                xs[j], xs[j + 1] = xs[j + 1], xs[j]
`,
			want: []string{"Bubble Sort"},
		},
		{
			name: "recursive fibonacci",
			lang: lang.JavaScript,
			src: `function fibonacci(n) {
  if (n <= 1) return n;
  return fibonacci(n - 1) + fibonacci(n - 2);
}
`,
			want:    []string{"Recursion", "Fibonacci"},
			notWant: []string{"Iteration"},
		},
		{
			name: "binary search without the name",
			lang: lang.Python,
			src: `def find(arr, target):
    lo, hi = 0, len(arr) - 1
    while lo <= hi:
        mid = (lo + hi) // 2
        if arr[mid] == target:
            return mid
        if arr[mid] < target:
            lo = mid + 1
        else:
            hi = mid - 1
    return -1
`,
			want:    []string{"Binary Search", "Iteration"},
			notWant: []string{"Linear Search"},
		},
		{
			name:    "header is not a recursive call",
			lang:    lang.Java,
			src:     "class A {\n  int total(int[] xs) {\n    int s = 0;\n    for (int x : xs) { s += x; }\n    return s;\n  }\n}\n",
			notWant: []string{"Recursion"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			algos, _, _ := detect(tt.src, tt.lang)
			for _, w := range tt.want {
				assert.Contains(t, algos, w)
			}
			for _, w := range tt.notWant {
				assert.NotContains(t, algos, w)
			}
		})
	}
}

func TestDetectDataStructures(t *testing.T) {
	_, ds, _ := detect("graph = {\"A\": [\"B\", \"C\"], \"B\": []}\nseen = set()\n", lang.Python)
	assert.Contains(t, ds, "Graph")
	assert.Contains(t, ds, "Set")

	_, ds, _ = detect("const cache = new Map();\nconst items = [];\n", lang.JavaScript)
	assert.Contains(t, ds, "Object/Map")
	assert.Contains(t, ds, "Array")
	assert.NotContains(t, ds, "List")
}

func TestDetectDesignPatterns(t *testing.T) {
	src := `class Config:
    _instance = None

    def __new__(cls):
        if cls._instance is None:
            cls._instance = super().__new__(cls)
        return cls._instance
`
	_, _, dp := detect(src, lang.Python)
	assert.Equal(t, []string{"Singleton"}, dp)
}

func TestDetectEmptyInputYieldsEmptyLists(t *testing.T) {
	algos, ds, dp := detect("", lang.Python)
	assert.NotNil(t, algos)
	assert.NotNil(t, ds)
	assert.NotNil(t, dp)
	assert.Empty(t, algos)
	assert.Empty(t, ds)
	assert.Empty(t, dp)
}

func TestPanickingSignatureIsSkipped(t *testing.T) {
	catalog := []Signature{
		{"Broken", Algorithm, func(*Input) bool { panic("boom") }},
		{"Always", Algorithm, func(*Input) bool { return true }},
		{"Always", Algorithm, func(*Input) bool { return true }},
	}
	p := DetectWith(parser.Parse(context.Background(), "x = 1", lang.Python), catalog)
	assert.Equal(t, []string{"Always"}, p.AlgorithmPatterns)
}
