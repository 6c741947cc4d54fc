package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/RishiKendai/codelens/internal/engine"
	"github.com/RishiKendai/codelens/internal/lang"
	"github.com/RishiKendai/codelens/internal/models"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a file and search the reference corpus",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringP("language", "l", "", "Language tag (detected from the extension when empty)")
	analyzeCmd.Flags().Bool("no-corpus", false, "Skip the corpus search")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	code, err := readSource(args[0])
	if err != nil {
		return err
	}
	language, _ := cmd.Flags().GetString("language")
	if language == "" {
		language = string(fileLanguage(args[0]))
	}
	noCorpus, _ := cmd.Flags().GetBool("no-corpus")

	svc, closeFn, err := newService(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	resp, err := svc.Analyze(cmd.Context(), engine.AnalyzeInput{
		Code:          code,
		Language:      language,
		CheckDatabase: !noCorpus,
	})
	if err != nil {
		return fmt.Errorf("analysis failed: %s", engine.MessageOf(err))
	}

	w := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(w, resp)
	}
	printAnalysis(w, args[0], resp.Analysis)
	if !noCorpus {
		printSimilarity(w, resp.Similarity)
	}
	return nil
}

func fileLanguage(path string) lang.Language {
	if l := lang.FromFilename(path); l != lang.Unknown {
		return l
	}
	return lang.Auto
}

func printAnalysis(w io.Writer, name string, a *models.AnalysisResult) {
	color.New(color.Bold, color.FgCyan).Fprintf(w, "%s (%s)\n", name, a.DetectedLanguage)
	if a.ParseDegraded {
		color.New(color.FgYellow).Fprintln(w, "Parsed heuristically; structure counts are approximate")
	}

	renderTable(w, "Metrics", []string{"Metric", "Value"}, [][]string{
		{"Lines (code/comment/blank)", fmt.Sprintf("%d (%d/%d/%d)", a.LinesOfCode.Total, a.LinesOfCode.Code, a.LinesOfCode.Comments, a.LinesOfCode.Blank)},
		{"Cyclomatic complexity", fmt.Sprint(a.ComplexityMetrics.CyclomaticComplexity)},
		{"Functions", fmt.Sprint(a.ComplexityMetrics.FunctionCount)},
		{"Classes", fmt.Sprint(a.ComplexityMetrics.ClassCount)},
		{"Nesting depth", fmt.Sprint(a.ComplexityMetrics.NestingDepth)},
		{"Readability", fmt.Sprintf("%.2f", a.CodeQuality.ReadabilityScore)},
		{"Maintainability", fmt.Sprintf("%.2f", a.CodeQuality.MaintainabilityIndex)},
	})

	p := a.Patterns
	renderTable(w, "Patterns", []string{"Category", "Detected"}, [][]string{
		{"Algorithms", orNone(p.AlgorithmPatterns)},
		{"Data structures", orNone(p.DataStructures)},
		{"Design patterns", orNone(p.DesignPatterns)},
		{"Code smells", orNone(a.CodeQuality.CodeSmells)},
	})
}

func printSimilarity(w io.Writer, s *models.SimilarityReport) {
	rows := make([][]string, 0, len(s.Matches))
	for _, m := range s.Matches {
		rows = append(rows, []string{m.ID, m.Description, m.Language, fmt.Sprintf("%.4f", m.SimilarityScore)})
	}
	title := fmt.Sprintf("Corpus matches (%d checked, %s)", s.TotalChecked, s.Mode)
	if len(rows) == 0 {
		color.New(color.Bold).Fprintln(w, title)
		color.New(color.FgGreen).Fprintln(w, "No matches above the floor")
	} else {
		renderTable(w, title, []string{"ID", "Description", "Language", "Score"}, rows)
	}

	fmt.Fprintf(w, "Highest similarity: %.4f  Risk: %s\n", s.HighestSimilarity, riskColor(s.RiskLevel))
}

func orNone(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
