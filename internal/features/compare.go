package features

import "github.com/RishiKendai/codelens/internal/models"

// CompareStructure sets the function names and control flow of two snippets
// against each other. Name lists keep first-seen order.
func CompareStructure(a, b Features) models.StructuralComparison {
	inA := toSet(a.Structure.FunctionNames)
	inB := toSet(b.Structure.FunctionNames)

	common, onlyA, onlyB := []string{}, []string{}, []string{}
	for _, name := range a.Structure.FunctionNames {
		if inB[name] {
			common = append(common, name)
		} else {
			onlyA = append(onlyA, name)
		}
	}
	for _, name := range b.Structure.FunctionNames {
		if !inA[name] {
			onlyB = append(onlyB, name)
		}
	}

	return models.StructuralComparison{
		CommonFunctions:    common,
		DifferentFunctions: models.FunctionDiff{Code1Only: onlyA, Code2Only: onlyB},
		ControlFlowComparison: models.ControlFlowComparison{
			Code1: a.Structure.ControlFlow,
			Code2: b.Structure.ControlFlow,
		},
		Complexity1: a.Complexity.CyclomaticComplexity,
		Complexity2: b.Complexity.CyclomaticComplexity,
	}
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
