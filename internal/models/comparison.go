package models

import "time"

// ComparisonAnalysis explains how a pairwise score was reached.
type ComparisonAnalysis struct {
	LexicalSimilarity  float64  `json:"lexical_similarity" bson:"lexicalSimilarity"`
	SemanticSimilarity *float64 `json:"semantic_similarity" bson:"semanticSimilarity"`
	// TokenTileSimilarity is nil when tiling was cut off by its work budget.
	TokenTileSimilarity  *float64             `json:"token_tile_similarity" bson:"tokenTileSimilarity"`
	CommonTokens         int                  `json:"common_tokens" bson:"commonTokens"`
	Code1Tokens          int                  `json:"code1_tokens" bson:"code1Tokens"`
	Code2Tokens          int                  `json:"code2_tokens" bson:"code2Tokens"`
	Language1            string               `json:"language1" bson:"language1"`
	Language2            string               `json:"language2" bson:"language2"`
	SimilarBlocks        []SimilarBlock       `json:"similar_blocks" bson:"similarBlocks"`
	StructuralComparison StructuralComparison `json:"structural_comparison" bson:"structuralComparison"`
	Explanation          string               `json:"explanation" bson:"explanation"`
	Mode                 string               `json:"mode" bson:"mode"`
	Degraded             bool                 `json:"degraded" bson:"degraded"`
	DegradedReason       string               `json:"degraded_reason,omitempty" bson:"degradedReason,omitempty"`
}

// SimilarBlock locates one shared token run in both sources. Lines are
// 1-based and inclusive; Content is the matching code1 source.
type SimilarBlock struct {
	Code1StartLine int    `json:"code1_start_line" bson:"code1StartLine"`
	Code1EndLine   int    `json:"code1_end_line" bson:"code1EndLine"`
	Code2StartLine int    `json:"code2_start_line" bson:"code2StartLine"`
	Code2EndLine   int    `json:"code2_end_line" bson:"code2EndLine"`
	Tokens         int    `json:"tokens" bson:"tokens"`
	Content        string `json:"content" bson:"content"`
}

type FunctionDiff struct {
	Code1Only []string `json:"code1_only" bson:"code1Only"`
	Code2Only []string `json:"code2_only" bson:"code2Only"`
}

type ControlFlowComparison struct {
	Code1 ControlFlow `json:"code1" bson:"code1"`
	Code2 ControlFlow `json:"code2" bson:"code2"`
}

// StructuralComparison sets the declared functions and control flow of the
// two sides against each other.
type StructuralComparison struct {
	CommonFunctions       []string              `json:"common_functions" bson:"commonFunctions"`
	DifferentFunctions    FunctionDiff          `json:"different_functions" bson:"differentFunctions"`
	ControlFlowComparison ControlFlowComparison `json:"control_flow_comparison" bson:"controlFlowComparison"`
	Complexity1           int                   `json:"complexity1" bson:"complexity1"`
	Complexity2           int                   `json:"complexity2" bson:"complexity2"`
}

// ComparisonReport is written once per compare/upload request and never
// changed afterwards.
type ComparisonReport struct {
	ID              string             `json:"id" bson:"_id"`
	File1Name       string             `json:"file1_name" bson:"file1Name"`
	File2Name       string             `json:"file2_name" bson:"file2Name"`
	Language1       string             `json:"language1" bson:"language1"`
	Language2       string             `json:"language2" bson:"language2"`
	Code1           string             `json:"code1" bson:"code1"`
	Code2           string             `json:"code2" bson:"code2"`
	SimilarityScore float64            `json:"similarity_score" bson:"similarityScore"`
	IsPlagiarized   bool               `json:"is_plagiarized" bson:"isPlagiarized"`
	Analysis        ComparisonAnalysis `json:"analysis" bson:"analysis"`
	CreatedAt       time.Time          `json:"created_at" bson:"createdAt"`
}

// ReportSummary is the history listing view of a ComparisonReport.
type ReportSummary struct {
	ID              string    `json:"id" bson:"_id"`
	File1Name       string    `json:"file1_name" bson:"file1Name"`
	File2Name       string    `json:"file2_name" bson:"file2Name"`
	SimilarityScore float64   `json:"similarity_score" bson:"similarityScore"`
	IsPlagiarized   bool      `json:"is_plagiarized" bson:"isPlagiarized"`
	CreatedAt       time.Time `json:"created_at" bson:"createdAt"`
}

// Summary projects the report onto its history view.
func (r *ComparisonReport) Summary() ReportSummary {
	return ReportSummary{
		ID:              r.ID,
		File1Name:       r.File1Name,
		File2Name:       r.File2Name,
		SimilarityScore: r.SimilarityScore,
		IsPlagiarized:   r.IsPlagiarized,
		CreatedAt:       r.CreatedAt,
	}
}

type CompareRequest struct {
	Code1     string `json:"code1"`
	Code2     string `json:"code2"`
	Language1 string `json:"language1"`
	Language2 string `json:"language2"`
	UseCohere *bool  `json:"useCohere"`
}

type CompareResponse struct {
	ComparisonID    string  `json:"comparison_id"`
	SimilarityScore float64 `json:"similarity_score"`
	IsPlagiarized   bool    `json:"is_plagiarized"`
	Explanation     string  `json:"explanation"`
}
