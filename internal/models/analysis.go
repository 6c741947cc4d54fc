package models

import "time"

// LinesOfCode classifies every line of a snippet exactly once.
type LinesOfCode struct {
	Total    int `json:"total" bson:"total"`
	Code     int `json:"code" bson:"code"`
	Comments int `json:"comments" bson:"comments"`
	Blank    int `json:"blank" bson:"blank"`
}

type ComplexityMetrics struct {
	CyclomaticComplexity int `json:"cyclomatic_complexity" bson:"cyclomaticComplexity"`
	FunctionCount        int `json:"function_count" bson:"functionCount"`
	ClassCount           int `json:"class_count" bson:"classCount"`
	NestingDepth         int `json:"nesting_depth" bson:"nestingDepth"`
}

type ControlFlow struct {
	IfStatements int `json:"if_statements" bson:"ifStatements"`
	Loops        int `json:"loops" bson:"loops"`
	Switches     int `json:"switches" bson:"switches"`
	TryCatch     int `json:"try_catch" bson:"tryCatch"`
}

type StructureAnalysis struct {
	ControlFlow    ControlFlow `json:"control_flow" bson:"controlFlow"`
	FunctionNames  []string    `json:"function_names" bson:"functionNames"`
	Imports        []string    `json:"imports" bson:"imports"`
	VariableNames  []string    `json:"variable_names" bson:"variableNames"`
	StringLiterals []string    `json:"string_literals" bson:"stringLiterals"`
}

type Patterns struct {
	AlgorithmPatterns []string `json:"algorithm_patterns" bson:"algorithmPatterns"`
	DataStructures    []string `json:"data_structures" bson:"dataStructures"`
	DesignPatterns    []string `json:"design_patterns" bson:"designPatterns"`
}

type CodeQuality struct {
	ReadabilityScore     float64         `json:"readability_score" bson:"readabilityScore"`
	MaintainabilityIndex float64         `json:"maintainability_index" bson:"maintainabilityIndex"`
	CodeSmells           []string        `json:"code_smells" bson:"codeSmells"`
	BestPractices        map[string]bool `json:"best_practices" bson:"bestPractices"`
	WeightsVersion       string          `json:"weights_version" bson:"weightsVersion"`
}

// AnalysisResult is produced once per analyzed snippet and never mutated.
type AnalysisResult struct {
	DetectedLanguage  string            `json:"detected_language"`
	LinesOfCode       LinesOfCode       `json:"lines_of_code"`
	ComplexityMetrics ComplexityMetrics `json:"complexity_metrics"`
	StructureAnalysis StructureAnalysis `json:"structure_analysis"`
	Patterns          Patterns          `json:"patterns"`
	CodeQuality       CodeQuality       `json:"code_quality"`
	ParseDegraded     bool              `json:"parse_degraded"`
	ParseNotes        []string          `json:"parse_notes,omitempty"`
}

// SimilarityBreakdown shows the signals behind a blended score.
type SimilarityBreakdown struct {
	Lexical  float64  `json:"lexical_similarity"`
	Semantic *float64 `json:"semantic_similarity"`
}

// Match is one corpus hit.
type Match struct {
	ID              string              `json:"id"`
	SimilarityScore float64             `json:"similarity_score"`
	Description     string              `json:"description"`
	Source          string              `json:"source"`
	CodeSnippet     string              `json:"code_snippet"`
	Language        string              `json:"language"`
	Breakdown       SimilarityBreakdown `json:"similarity_breakdown"`
}

// Scoring modes.
const (
	ModeLexical  = "lexical"
	ModeEnhanced = "enhanced"
)

// SimilarityReport is the ranked outcome of a corpus search.
type SimilarityReport struct {
	Matches           []Match `json:"matches"`
	HighestSimilarity float64 `json:"highest_similarity"`
	RiskLevel         string  `json:"risk_level"`
	TotalChecked      int     `json:"total_checked"`
	Mode              string  `json:"mode"`
	Degraded          bool    `json:"degraded"`
	DegradedReason    string  `json:"degraded_reason,omitempty"`
}

// AnalyzeRequest is the body of the analyze endpoints.
type AnalyzeRequest struct {
	Code          string `json:"code"`
	Language      string `json:"language"`
	CheckDatabase *bool  `json:"checkDatabase"`
	UseCohere     bool   `json:"useCohere"`
}

type AnalyzeResponse struct {
	Analysis   *AnalysisResult   `json:"analysis"`
	Similarity *SimilarityReport `json:"similarity"`
	Timestamp  time.Time         `json:"timestamp"`
	Language   string            `json:"language"`
}

type BatchAnalyzeRequest struct {
	Codes    []string `json:"codes"`
	Language string   `json:"language"`
}

type BatchItem struct {
	Index    int             `json:"index"`
	Status   string          `json:"status"`
	Analysis *AnalysisResult `json:"analysis,omitempty"`
	Error    string          `json:"error,omitempty"`
}

type CrossSimilarity struct {
	Code1Index      int     `json:"code1_index"`
	Code2Index      int     `json:"code2_index"`
	SimilarityScore float64 `json:"similarity_score"`
}

type BatchAnalyzeResponse struct {
	Results           []BatchItem       `json:"results"`
	CrossSimilarities []CrossSimilarity `json:"cross_similarities"`
	Timestamp         time.Time         `json:"timestamp"`
}
