package plagiarism

import "math"

// Blend weights for lexical and semantic similarity. When only one signal is
// available it carries the whole score.
const (
	LexicalWeight  = 0.4
	SemanticWeight = 0.6
)

// Risk tiers, ordered.
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskVeryHigh = "very_high"
)

// Blend combines the signals. A nil semantic score means lexical only.
func Blend(lexical float64, semantic *float64) float64 {
	if semantic == nil {
		return clamp01(lexical)
	}
	return clamp01(LexicalWeight*lexical + SemanticWeight**semantic)
}

// GetRiskLevel returns the tier of a highest-similarity score.
func GetRiskLevel(score float64) string {
	if score < 0.4 {
		return RiskLow
	} else if score < 0.6 {
		return RiskMedium
	} else if score < 0.8 {
		return RiskHigh
	}
	return RiskVeryHigh
}

// RiskRank orders tiers; unknown tiers rank below low.
func RiskRank(level string) int {
	switch level {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	case RiskVeryHigh:
		return 3
	default:
		return -1
	}
}

// Round4 is applied to every reported score so equal inputs compare equal
// after serialization.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
