package quality

// Weights is one frozen set of scoring constants. Scores are only comparable
// between results that carry the same Version.
type Weights struct {
	Version string

	ReadabilityBase float64

	LineLengthTarget  float64
	LineLengthPenalty float64
	LineLengthCap     float64

	CommentBonus    float64
	CommentBonusCap float64

	NamingPenalty float64

	ComplexityTarget float64
	ComplexityCap    float64

	NestingTarget  float64
	NestingPenalty float64
	NestingCap     float64

	// Maintainability index nesting deduction, applied after scaling.
	MINestingPenalty float64
	MINestingCap     float64
}

var weightsV1 = Weights{
	Version:           "v1",
	ReadabilityBase:   90,
	LineLengthTarget:  80,
	LineLengthPenalty: 0.5,
	LineLengthCap:     20,
	CommentBonus:      50,
	CommentBonusCap:   10,
	NamingPenalty:     15,
	ComplexityTarget:  10,
	ComplexityCap:     15,
	NestingTarget:     3,
	NestingPenalty:    5,
	NestingCap:        15,
	MINestingPenalty:  2,
	MINestingCap:      10,
}

// WeightsV1 returns a copy of the current set.
func WeightsV1() Weights {
	return weightsV1
}

// Smell and best-practice thresholds.
const (
	maxNestingSmell    = 5
	maxFunctionLines   = 50
	maxComplexity      = 15
	minDistinctLines   = 0.8
	minNamingShare     = 0.6
	goodNamingShare    = 0.8
	reasonableNesting  = 4
	maxLineLength      = 120
	magicNumberLimit   = 3
	duplicateMinLines  = 5
	namingMinForSmells = 3
)
