package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/RishiKendai/codelens/internal/engine"
	"github.com/RishiKendai/codelens/internal/models"
)

var compareCmd = &cobra.Command{
	Use:     "compare <file1> <file2>",
	Aliases: []string{"cmp"},
	Short:   "Score the similarity of two files",
	Args:    cobra.ExactArgs(2),
	RunE:    runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	code1, err := readSource(args[0])
	if err != nil {
		return err
	}
	code2, err := readSource(args[1])
	if err != nil {
		return err
	}

	svc, closeFn, err := newService(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	report, err := svc.Compare(cmd.Context(), engine.CompareInput{
		Code1:     code1,
		Code2:     code2,
		Language1: string(fileLanguage(args[0])),
		Language2: string(fileLanguage(args[1])),
		File1Name: filepath.Base(args[0]),
		File2Name: filepath.Base(args[1]),
	})
	if err != nil {
		return fmt.Errorf("comparison failed: %s", engine.MessageOf(err))
	}

	w := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(w, report)
	}
	printComparison(w, report)
	return nil
}

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.4f", *v)
}

func printComparison(w io.Writer, r *models.ComparisonReport) {
	a := r.Analysis

	renderTable(w, fmt.Sprintf("%s vs %s", r.File1Name, r.File2Name), []string{"Signal", "Value"}, [][]string{
		{"Languages", a.Language1 + " / " + a.Language2},
		{"Lexical similarity", fmt.Sprintf("%.4f", a.LexicalSimilarity)},
		{"Semantic similarity", optional(a.SemanticSimilarity)},
		{"Token tile coverage", optional(a.TokenTileSimilarity)},
		{"Shared shingles", fmt.Sprintf("%d (%d / %d tokens)", a.CommonTokens, a.Code1Tokens, a.Code2Tokens)},
		{"Common functions", orNone(a.StructuralComparison.CommonFunctions)},
	})

	if len(a.SimilarBlocks) > 0 {
		rows := make([][]string, len(a.SimilarBlocks))
		for i, b := range a.SimilarBlocks {
			rows[i] = []string{
				fmt.Sprintf("%d-%d", b.Code1StartLine, b.Code1EndLine),
				fmt.Sprintf("%d-%d", b.Code2StartLine, b.Code2EndLine),
				fmt.Sprintf("%d", b.Tokens),
			}
		}
		renderTable(w, "Similar blocks", []string{"Code1 lines", "Code2 lines", "Tokens"}, rows)
	}

	verdict := color.GreenString("not plagiarized")
	if r.IsPlagiarized {
		verdict = color.RedString("plagiarized")
	}
	fmt.Fprintf(w, "Similarity: %.4f  Verdict: %s\n", r.SimilarityScore, verdict)
	fmt.Fprintln(w, a.Explanation)
}
