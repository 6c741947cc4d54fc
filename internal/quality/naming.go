package quality

import "unicode"

type namingStyle int

const (
	styleFlat namingStyle = iota // lowercase, fits any convention
	styleSnake
	styleCamel
	stylePascal
	styleUpper
	styleMixed
)

func classify(name string) namingStyle {
	var lower, upper, underscore bool
	for _, r := range name {
		switch {
		case r == '_':
			underscore = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		}
	}
	first := []rune(name)[0]
	if first == '_' && len(name) > 1 {
		return classify(trimUnderscores(name))
	}
	switch {
	case upper && !lower:
		return styleUpper
	case underscore && upper:
		return styleMixed
	case underscore:
		return styleSnake
	case upper && unicode.IsUpper(first):
		return stylePascal
	case upper:
		return styleCamel
	default:
		return styleFlat
	}
}

func trimUnderscores(s string) string {
	i := 0
	for i < len(s)-1 && s[i] == '_' {
		i++
	}
	return s[i:]
}

// namingConsistency is the share of the dominant convention among names that
// commit to one. Names with no convention signal count for nothing; with no
// committed names at all the snippet is fully consistent.
func namingConsistency(names []string) (share float64, committed int) {
	counts := make(map[namingStyle]int)
	for _, n := range names {
		if n == "" {
			continue
		}
		s := classify(n)
		if s == styleFlat || s == styleUpper {
			continue
		}
		counts[s]++
		committed++
	}
	if committed == 0 {
		return 1, 0
	}
	best := 0
	for _, c := range counts {
		best = max(best, c)
	}
	return float64(best) / float64(committed), committed
}

func allSnake(names []string) bool {
	for _, n := range names {
		if n == "" {
			continue
		}
		switch classify(n) {
		case styleCamel, stylePascal, styleMixed:
			return false
		}
	}
	return true
}
